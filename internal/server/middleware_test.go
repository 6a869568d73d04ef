package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voicehooks/gateway/internal/auth"
	"github.com/voicehooks/gateway/internal/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func decodeErrorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not the error envelope: %v (body %q)", err, rec.Body.String())
	}
	return body.Error.Kind
}

// =============================================================================
// AuthMiddleware
// =============================================================================

func TestAuthMiddleware(t *testing.T) {
	ks := auth.NewKeystore([]string{"valid-key"})
	wrapped := AuthMiddleware(ks)(okHandler())

	tests := []struct {
		name       string
		apiKey     string
		omitHeader bool
		wantStatus int
	}{
		{name: "valid key", apiKey: "valid-key", wantStatus: http.StatusOK},
		{name: "missing header", omitHeader: true, wantStatus: http.StatusUnauthorized},
		{name: "empty header", apiKey: "", wantStatus: http.StatusUnauthorized},
		{name: "unknown key", apiKey: "other-key", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/search", nil)
			if !tt.omitHeader {
				req.Header.Set(APIKeyHeader, tt.apiKey)
			}
			rec := httptest.NewRecorder()

			wrapped.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if kind := decodeErrorKind(t, rec); kind != "unauthorized" {
					t.Errorf("error kind = %q, want %q", kind, "unauthorized")
				}
			}
		})
	}
}

// countingLimiter records Allow calls.
type countingLimiter struct {
	mu    sync.Mutex
	calls int

	allowed bool
	info    ratelimit.Info
}

func (l *countingLimiter) Allow(key string, now time.Time) (bool, ratelimit.Info) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.allowed, l.info
}

func (l *countingLimiter) Close() {}

func TestAuthMiddleware_RunsBeforeRateLimiter(t *testing.T) {
	ks := auth.NewKeystore([]string{"valid-key"})
	limiter := &countingLimiter{allowed: true}

	wrapped := AuthMiddleware(ks)(RateLimitMiddleware(limiter)(okHandler()))

	req := httptest.NewRequest("POST", "/search", nil)
	req.Header.Set(APIKeyHeader, "guessed-key")
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if limiter.calls != 0 {
		t.Errorf("limiter consulted %d times for an unauthenticated request, want 0", limiter.calls)
	}
}

// =============================================================================
// RateLimitMiddleware
// =============================================================================

func TestRateLimitMiddleware_Allowed(t *testing.T) {
	resetAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := &countingLimiter{
		allowed: true,
		info:    ratelimit.Info{Limit: 20, Remaining: 19, ResetAt: resetAt},
	}

	wrapped := RateLimitMiddleware(limiter)(okHandler())

	req := httptest.NewRequest("POST", "/search", nil)
	req.Header.Set(APIKeyHeader, "valid-key")
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	checkHeader(t, rec, "x-ratelimit-limit-requests", "20")
	checkHeader(t, rec, "x-ratelimit-remaining-requests", "19")
	checkHeader(t, rec, "x-ratelimit-reset-requests", "2024-06-01T12:00:00Z")
}

func TestRateLimitMiddleware_Denied(t *testing.T) {
	limiter := &countingLimiter{
		allowed: false,
		info: ratelimit.Info{
			Limit:      20,
			Remaining:  0,
			ResetAt:    time.Now().Add(30 * time.Second),
			RetryAfter: 30 * time.Second,
		},
	}

	wrapped := RateLimitMiddleware(limiter)(okHandler())

	req := httptest.NewRequest("POST", "/weather", nil)
	req.Header.Set(APIKeyHeader, "valid-key")
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	checkHeader(t, rec, "Retry-After", "30")
	if kind := decodeErrorKind(t, rec); kind != "rate_limit_exceeded" {
		t.Errorf("error kind = %q, want %q", kind, "rate_limit_exceeded")
	}
}

func TestRateLimitMiddleware_ConcurrentQuota(t *testing.T) {
	const quota = 5
	const requests = 20

	limiter := ratelimit.NewFixedWindow(quota, time.Minute)
	defer limiter.Close()

	wrapped := RateLimitMiddleware(limiter)(okHandler())

	var wg sync.WaitGroup
	var mu sync.Mutex
	statuses := make(map[int]int)

	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest("POST", "/search", nil)
			req.Header.Set(APIKeyHeader, "same-key")
			rec := httptest.NewRecorder()

			wrapped.ServeHTTP(rec, req)

			mu.Lock()
			statuses[rec.Code]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if statuses[http.StatusOK] != quota {
		t.Errorf("successes = %d, want exactly %d", statuses[http.StatusOK], quota)
	}
	if statuses[http.StatusTooManyRequests] != requests-quota {
		t.Errorf("rate-limited = %d, want exactly %d", statuses[http.StatusTooManyRequests], requests-quota)
	}
}

// =============================================================================
// RequestIDMiddleware / TimeoutMiddleware
// =============================================================================

func TestCORSPreflight(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ks := auth.NewKeystore([]string{"valid-key"})

	s := New(0, logger)
	s.Router.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(ks))
		r.Post("/search", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// A browser preflight carries no API key; it must clear the gate anyway.
	req := httptest.NewRequest("OPTIONS", "/search", nil)
	req.Header.Set("Origin", "https://agent.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-API-Key")
	rec := httptest.NewRecorder()

	s.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %d, want 200", rec.Code)
	}
	checkHeader(t, rec, "Access-Control-Allow-Origin", "*")
	allowed := rec.Header().Get("Access-Control-Allow-Headers")
	if !strings.Contains(strings.ToLower(allowed), strings.ToLower(APIKeyHeader)) {
		t.Errorf("Access-Control-Allow-Headers = %q, want it to allow %s", allowed, APIKeyHeader)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	RequestIDMiddleware(handler).ServeHTTP(rec, req)

	if seen == "" {
		t.Error("request ID missing from context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("X-Request-ID header = %q, want %q", got, seen)
	}
}

func TestRequestIDMiddleware_CallerSuppliedID(t *testing.T) {
	tests := []struct {
		name     string
		inbound  string
		wantKept bool
	}{
		{name: "well-formed UUID kept", inbound: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", wantKept: true},
		{name: "junk replaced", inbound: "'; DROP TABLE logs;--", wantKept: false},
		{name: "empty replaced", inbound: "", wantKept: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/search", nil)
			if tt.inbound != "" {
				req.Header.Set(RequestIDHeader, tt.inbound)
			}
			rec := httptest.NewRecorder()

			RequestIDMiddleware(okHandler()).ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if tt.wantKept && got != tt.inbound {
				t.Errorf("request ID = %q, want the caller's %q", got, tt.inbound)
			}
			if !tt.wantKept && (got == tt.inbound || got == "") {
				t.Errorf("request ID = %q, want a fresh UUID", got)
			}
		})
	}
}

func TestTimeoutMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok := r.Context().Deadline()
		if !ok {
			t.Error("context has no deadline")
		}
		if remaining := time.Until(deadline); remaining > 5*time.Second {
			t.Errorf("deadline %v away, want <= 5s", remaining)
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/search", nil)
	rec := httptest.NewRecorder()

	TimeoutMiddleware(5 * time.Second)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestTimeoutMiddleware_ExpiredWithoutResponse(t *testing.T) {
	// A handler that gives up on cancellation without writing anything.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	req := httptest.NewRequest("POST", "/search", nil)
	rec := httptest.NewRecorder()

	TimeoutMiddleware(10 * time.Millisecond)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
	if kind := decodeErrorKind(t, rec); kind != "upstream_unavailable" {
		t.Errorf("error kind = %q, want %q", kind, "upstream_unavailable")
	}
}

func TestTimeoutMiddleware_HandlerResponseWins(t *testing.T) {
	// Once the handler has written, an expired deadline must not append
	// a second body.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"found":true}`))
		<-r.Context().Done()
	})

	req := httptest.NewRequest("POST", "/search", nil)
	rec := httptest.NewRecorder()

	TimeoutMiddleware(10 * time.Millisecond)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != `{"found":true}` {
		t.Errorf("body = %q, want the handler's response untouched", got)
	}
}

func checkHeader(t *testing.T, rec *httptest.ResponseRecorder, name, want string) {
	t.Helper()
	if got := rec.Header().Get(name); got != want {
		t.Errorf("header %s = %q, want %q", name, got, want)
	}
}
