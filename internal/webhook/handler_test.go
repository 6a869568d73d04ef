package webhook

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/voicehooks/gateway/internal/upstream/geocode"
	"github.com/voicehooks/gateway/internal/upstream/openweather"
	"github.com/voicehooks/gateway/internal/upstream/wikipedia"
)

// Upstream doubles. Each records its invocation count so validation tests can
// assert no outbound call was attempted.

type fakeSearcher struct {
	results []wikipedia.SearchResult
	err     error
	calls   int
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]wikipedia.SearchResult, error) {
	f.calls++
	return f.results, f.err
}

type fakeWeather struct {
	cond  *openweather.Conditions
	err   error
	calls int
}

func (f *fakeWeather) Current(ctx context.Context, location string) (*openweather.Conditions, error) {
	f.calls++
	return f.cond, f.err
}

type fakeGeocoder struct {
	place *geocode.Place
	err   error
	calls int
}

func (f *fakeGeocoder) Lookup(ctx context.Context, name string) (*geocode.Place, error) {
	f.calls++
	return f.place, f.err
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("response body is not valid JSON: %v (body %q)", err, rec.Body.String())
	}
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	decodeBody(t, rec, &body)
	return body.Error.Kind
}
