// Package openweather implements the weather adapter over the OpenWeatherMap
// current-conditions API.
package openweather

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
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
	providerName   = "weather provider"
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

// Client is an HTTP client for the OpenWeatherMap API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new OpenWeatherMap client. The apiKey is the gateway's
// own provider credential, never a caller's key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Conditions is the normalized current-conditions report.
type Conditions struct {
	City        string
	Temperature float64 // degrees Celsius
	Description string
	Humidity    int // percent
}

// conditionsResponse mirrors the relevant slice of the OpenWeatherMap schema.
type conditionsResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Current fetches current conditions for a free-text place name, in metric
// units. An upstream 404 means the place name was not recognized; a 401 means
// the gateway's provider key is bad, which is the gateway's fault, not the
// caller's.
func (c *Client) Current(ctx context.Context, location string) (*Conditions, error) {
	if c.apiKey == "" {
		return nil, domain.ErrUpstreamUnavailable("weather provider key not configured")
	}

	params := url.Values{
		"q":     {location},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstream.ClassifyTransport(err, providerName)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrLocationNotFound(fmt.Sprintf("no weather data for %q", location))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrUpstreamUnavailable("weather provider rejected the gateway's credentials")
	case resp.StatusCode != http.StatusOK:
		return nil, upstream.ErrStatus(providerName, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, upstream.ClassifyTransport(err, providerName)
	}

	var parsed conditionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, upstream.ErrStatus(providerName, resp.StatusCode)
	}

	cond := &Conditions{
		City:        parsed.Name,
		Temperature: parsed.Main.Temp,
		Humidity:    parsed.Main.Humidity,
	}
	if len(parsed.Weather) > 0 {
		cond.Description = parsed.Weather[0].Description
	}

	return cond, nil
}
