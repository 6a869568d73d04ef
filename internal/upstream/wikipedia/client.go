// Package wikipedia implements the knowledge-base search adapter over the
// Wikipedia search API.
package wikipedia

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/voicehooks/gateway/internal/upstream"
)

const (
	defaultBaseURL = "https://en.wikipedia.org/w/api.php"
	userAgent      = "VoiceAgentDemo/1.0"
	providerName   = "search provider"
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

// Client is an HTTP client for the Wikipedia search API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Wikipedia search client.
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

// SearchResult is a single search hit with presentation markup removed.
type SearchResult struct {
	Title   string
	Snippet string
}

// searchResponse mirrors the relevant slice of the MediaWiki response schema.
type searchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// Snippets arrive as HTML with the matched terms wrapped in highlight spans.
var snippetCleaner = strings.NewReplacer(
	`<span class="searchmatch">`, "",
	`</span>`, "",
)

// Search runs a full-text search and returns the matching results in rank
// order. An empty slice means the query matched nothing; that is not an
// error at this layer.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"format":   {"json"},
		"utf8":     {""},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

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

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, upstream.ErrStatus(providerName, resp.StatusCode)
	}

	results := make([]SearchResult, 0, len(parsed.Query.Search))
	for _, hit := range parsed.Query.Search {
		results = append(results, SearchResult{
			Title:   hit.Title,
			Snippet: snippetCleaner.Replace(hit.Snippet),
		})
	}

	return results, nil
}
