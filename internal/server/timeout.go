package server

import (
	"context"
	"net/http"
	"time"

	"github.com/voicehooks/gateway/internal/codec"
	"github.com/voicehooks/gateway/internal/domain"
)

// TimeoutMiddleware bounds each webhook call with a context deadline.
// Cancellation is cooperative: handlers hand the context to their upstream
// clients and bail out when it expires. If the deadline passes and the
// handler wrote nothing, the caller still gets a timeout envelope instead
// of an empty response.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &deadlineResponseWriter{ResponseWriter: w}
			next.ServeHTTP(tw, r.WithContext(ctx))

			if !tw.wrote && ctx.Err() == context.DeadlineExceeded {
				codec.WriteError(w, domain.ErrUpstreamTimeout("request timed out"))
			}
		})
	}
}

// deadlineResponseWriter tracks whether the handler produced a response.
type deadlineResponseWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *deadlineResponseWriter) WriteHeader(code int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *deadlineResponseWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}
