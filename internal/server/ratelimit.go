package server

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/voicehooks/gateway/internal/codec"
	"github.com/voicehooks/gateway/internal/domain"
	"github.com/voicehooks/gateway/internal/ratelimit"
)

// RateLimitMiddleware enforces the per-client request quota and writes
// normalized x-ratelimit-* headers on every response.
//
// The client identifier is the presented API key; requests reaching this
// middleware have already passed the auth gate, so the key is known valid.
// The remote address is the fallback identifier if the middleware is ever
// mounted on an unauthenticated route.
func RateLimitMiddleware(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				key = r.RemoteAddr
			}

			allowed, info := limiter.Allow(key, time.Now())

			h := w.Header()
			h.Set("x-ratelimit-limit-requests", fmt.Sprintf("%d", info.Limit))
			h.Set("x-ratelimit-remaining-requests", fmt.Sprintf("%d", info.Remaining))
			h.Set("x-ratelimit-reset-requests", info.ResetAt.UTC().Format(time.RFC3339))

			if !allowed {
				retryAfter := int(math.Ceil(info.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set("Retry-After", fmt.Sprintf("%d", retryAfter))

				err := domain.ErrRateLimit(
					fmt.Sprintf("rate limit exceeded, retry in %d seconds", retryAfter))
				AddError(r.Context(), err)
				codec.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
