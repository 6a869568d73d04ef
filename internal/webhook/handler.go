// Package webhook implements the tool endpoints exposed to the voice-agent
// platform. Each handler validates its input at the boundary, makes exactly
// one upstream call, and returns either a normalized result or a speakable
// negative outcome.
package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/voicehooks/gateway/internal/codec"
	"github.com/voicehooks/gateway/internal/domain"
	"github.com/voicehooks/gateway/internal/upstream/geocode"
	"github.com/voicehooks/gateway/internal/upstream/openweather"
	"github.com/voicehooks/gateway/internal/upstream/wikipedia"
)

// Searcher is the knowledge-base search adapter.
type Searcher interface {
	Search(ctx context.Context, query string) ([]wikipedia.SearchResult, error)
}

// WeatherProvider is the current-conditions adapter.
type WeatherProvider interface {
	Current(ctx context.Context, location string) (*openweather.Conditions, error)
}

// Geocoder resolves free-text place names to a timezone-bearing place.
type Geocoder interface {
	Lookup(ctx context.Context, name string) (*geocode.Place, error)
}

// Handler serves the webhook endpoints. Dependencies are injected so tests
// can substitute upstream doubles.
type Handler struct {
	search  Searcher
	weather WeatherProvider
	geo     Geocoder
	now     func() time.Time
}

// HandlerOption configures the handler.
type HandlerOption func(*Handler)

// WithClock overrides the time source used by the world clock endpoint.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.now = now
	}
}

// NewHandler creates the webhook handler.
func NewHandler(search Searcher, weather WeatherProvider, geo Geocoder, opts ...HandlerOption) *Handler {
	h := &Handler{
		search:  search,
		weather: weather,
		geo:     geo,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// decode parses the request body into dst. On failure it writes the error
// response and returns false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		codec.WriteError(w, domain.ErrInvalidInput("request body must be a JSON object"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// missResponse is the 200 body for a lookup that produced nothing usable.
// The message is phrased so the agent can read it to the caller verbatim.
type missResponse struct {
	Found   bool   `json:"found"`
	Message string `json:"message"`
}

func writeMiss(w http.ResponseWriter, message string) {
	writeJSON(w, missResponse{Found: false, Message: message})
}
