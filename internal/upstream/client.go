// Package upstream talks to the third-party news search provider.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	requestTimeout = 10 * time.Second

	// Provider-side knobs for both endpoints.
	resultLimit   = "20"
	searchWindow  = "7d"
	searchCountry = "US"
	searchLang    = "en"

	headlinesCountry = "IN"
	headlinesLang    = "en"
)

// Result is one article as returned by the provider.
type Result struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	PhotoURL    string `json:"photo_url"`
	PublishedAt string `json:"published_datetime_utc"`
	SourceName  string `json:"source_name"`
}

type searchResponse struct {
	Data []Result `json:"data"`
}

// Client issues authenticated requests to the provider.
type Client struct {
	http    *http.Client
	baseURL string
	host    string
	apiKey  string
}

// New builds a client for the given provider host and API key.
//
// The host may carry a scheme (handy for tests); without one, https is
// assumed.
func New(host, apiKey string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	rc.HTTPClient.Timeout = requestTimeout

	baseURL := host
	if !strings.Contains(host, "://") {
		baseURL = "https://" + host
	}
	hostOnly := baseURL
	if u, err := url.Parse(baseURL); err == nil {
		hostOnly = u.Host
	}

	return &Client{
		http:    rc.StandardClient(),
		baseURL: baseURL,
		host:    hostOnly,
		apiKey:  apiKey,
	}
}

// Search fetches articles for the topic.
//
// Failures are absorbed: the caller always gets a usable slice, and the
// reasons end up in the log. Persisted data answers the request either way.
func (c *Client) Search(ctx context.Context, topic string) []Result {
	params := url.Values{}
	params.Set("query", topic)
	params.Set("limit", resultLimit)
	params.Set("time_published", searchWindow)
	params.Set("country", searchCountry)
	params.Set("lang", searchLang)

	body, err := c.get(ctx, "/search", params)
	if err != nil {
		slog.Error("news search request failed", "topic", topic, "error", err)
		return []Result{}
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Error("news search response malformed", "topic", topic, "error", err)
		return []Result{}
	}
	if resp.Data == nil {
		return []Result{}
	}

	return resp.Data
}

// TopHeadlines fetches the current top headlines payload.
//
// Unlike [Client.Search] this surfaces failures, so the caller can decide
// between serving its cache and erroring out.
func (c *Client) TopHeadlines(ctx context.Context) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("limit", resultLimit)
	params.Set("country", headlinesCountry)
	params.Set("lang", headlinesLang)

	body, err := c.get(ctx, "/top-headlines", params)
	if err != nil {
		return nil, fmt.Errorf("error fetching headlines: %w", err)
	}

	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %s", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %s", err)
	}

	return body, nil
}
