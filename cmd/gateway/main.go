package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Embedded tz database so /time works in containers without zoneinfo
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/voicehooks/gateway/internal/auth"
	"github.com/voicehooks/gateway/internal/config"
	"github.com/voicehooks/gateway/internal/ratelimit"
	"github.com/voicehooks/gateway/internal/server"
	"github.com/voicehooks/gateway/internal/telemetry"
	"github.com/voicehooks/gateway/internal/upstream/geocode"
	"github.com/voicehooks/gateway/internal/upstream/openweather"
	"github.com/voicehooks/gateway/internal/upstream/wikipedia"
	"github.com/voicehooks/gateway/internal/webhook"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	shutdownTracer, err := telemetry.InitTracer("voicehooks-gateway", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Credential store is fixed for the process lifetime
	keystore := auth.NewKeystore(cfg.Auth.APIKeys)
	if keystore.Len() == 0 {
		log.Fatal("No gateway API keys configured (set VOICE_AUTH__API_KEYS or auth.api_keys in config.yaml)")
	}

	limiter := ratelimit.NewFixedWindow(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Close()

	// One shared outbound client; each call is additionally ctx-bounded
	httpClient := &http.Client{Timeout: cfg.Upstream.Timeout}

	wikiOpts := []wikipedia.ClientOption{wikipedia.WithHTTPClient(httpClient)}
	if cfg.Upstream.Wikipedia.BaseURL != "" {
		wikiOpts = append(wikiOpts, wikipedia.WithBaseURL(cfg.Upstream.Wikipedia.BaseURL))
	}
	weatherOpts := []openweather.ClientOption{openweather.WithHTTPClient(httpClient)}
	if cfg.Upstream.OpenWeather.BaseURL != "" {
		weatherOpts = append(weatherOpts, openweather.WithBaseURL(cfg.Upstream.OpenWeather.BaseURL))
	}
	geoOpts := []geocode.ClientOption{geocode.WithHTTPClient(httpClient)}
	if cfg.Upstream.Geocode.BaseURL != "" {
		geoOpts = append(geoOpts, geocode.WithBaseURL(cfg.Upstream.Geocode.BaseURL))
	}

	hooks := webhook.NewHandler(
		wikipedia.NewClient(wikiOpts...),
		openweather.NewClient(cfg.Upstream.OpenWeather.APIKey, weatherOpts...),
		geocode.NewClient(geoOpts...),
	)

	srv := server.New(cfg.Server.Port, logger)

	// Health stays outside the auth/rate-limit chain
	srv.Router.Get("/health", hooks.Health)

	srv.Router.Group(func(r chi.Router) {
		r.Use(server.AuthMiddleware(keystore))
		r.Use(server.RateLimitMiddleware(limiter))
		r.Use(server.TimeoutMiddleware(cfg.Server.RequestTimeout))

		r.Post("/search", hooks.Search)
		r.Post("/weather", hooks.Weather)
		r.Post("/time", hooks.Clock)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("gateway shutdown complete")
}
