package server

import (
	"net/http"

	"github.com/voicehooks/gateway/internal/auth"
	"github.com/voicehooks/gateway/internal/codec"
)

// APIKeyHeader is the header callers present their gateway key in.
const APIKeyHeader = "X-API-Key"

// AuthMiddleware validates the gateway API key before any handler logic runs.
// A missing, empty, or unrecognized key is rejected identically with 401.
// This middleware is mounted ahead of the rate limiter, so unauthenticated
// attempts never consume quota.
func AuthMiddleware(keystore *auth.Keystore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(APIKeyHeader)

			if err := keystore.Validate(apiKey); err != nil {
				AddError(r.Context(), err)
				codec.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
