// Package config loads gateway configuration from an optional config.yaml
// overlaid with VOICE_-prefixed environment variables.
package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Upstream  UpstreamConfig  `koanf:"upstream"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// RequestTimeout bounds a whole webhook request, upstream call included.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type AuthConfig struct {
	// APIKeys are the gateway keys accepted from callers, as SHA-256 hex
	// hashes (cmd/keygen output) or plaintext for local development.
	APIKeys []string `koanf:"api_keys"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"` // quota per window per key
	Window   time.Duration `koanf:"window"`
}

type UpstreamConfig struct {
	// Timeout bounds each single outbound call.
	Timeout     time.Duration     `koanf:"timeout"`
	Wikipedia   WikipediaConfig   `koanf:"wikipedia"`
	OpenWeather OpenWeatherConfig `koanf:"openweather"`
	Geocode     GeocodeConfig     `koanf:"geocode"`
}

type WikipediaConfig struct {
	BaseURL string `koanf:"base_url"`
}

type OpenWeatherConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type GeocodeConfig struct {
	BaseURL string `koanf:"base_url"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load from config.yaml file first
	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Load environment variables (can override file config).
	// VOICE_SERVER__PORT=9000 -> server.port
	if err := k.Load(env.Provider("VOICE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "VOICE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("server.request_timeout") {
		k.Set("server.request_timeout", "15s")
	}
	if !k.Exists("ratelimit.requests") {
		k.Set("ratelimit.requests", 20)
	}
	if !k.Exists("ratelimit.window") {
		k.Set("ratelimit.window", "60s")
	}
	if !k.Exists("upstream.timeout") {
		k.Set("upstream.timeout", "5s")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in provider credentials
	cfg.Upstream.OpenWeather.APIKey = substituteEnvVars(cfg.Upstream.OpenWeather.APIKey)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
