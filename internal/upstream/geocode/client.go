// Package geocode implements the location-resolution adapter over the
// Open-Meteo geocoding API, which reports an IANA timezone per place.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/voicehooks/gateway/internal/domain"
	"github.com/voicehooks/gateway/internal/upstream"
)

const (
	defaultBaseURL = "https://geocoding-api.open-meteo.com/v1"
	providerName   = "geocoding provider"
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client is an HTTP client for the Open-Meteo geocoding API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new geocoding client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Place is a resolved location.
type Place struct {
	Name     string
	Country  string
	Timezone string // IANA zone name, e.g. "Europe/London"
}

// geocodeResponse mirrors the relevant slice of the Open-Meteo schema.
type geocodeResponse struct {
	Results []struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone string `json:"timezone"`
	} `json:"results"`
}

// Lookup resolves a free-text place name to its highest-ranked match.
// Ambiguous names (several cities sharing one name) resolve to the first
// match; no further disambiguation is attempted.
func (c *Client) Lookup(ctx context.Context, name string) (*Place, error) {
	params := url.Values{
		"name":   {name},
		"count":  {"1"},
		"format": {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstream.ClassifyTransport(err, providerName)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, upstream.ErrStatus(providerName, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, upstream.ClassifyTransport(err, providerName)
	}

	var parsed geocodeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, upstream.ErrStatus(providerName, resp.StatusCode)
	}

	if len(parsed.Results) == 0 {
		return nil, domain.ErrLocationNotFound(fmt.Sprintf("no location matching %q", name))
	}

	first := parsed.Results[0]
	return &Place{
		Name:     first.Name,
		Country:  first.Country,
		Timezone: first.Timezone,
	}, nil
}
