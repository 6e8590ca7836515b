package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	defaultLanguage     = "en-US"
	defaultCacheTTL     = 6 * time.Hour

	searchTimeout = 10 * time.Second
	posterTimeout = 15 * time.Second

	// maxPosterBytes bounds poster downloads; w500 posters are well under.
	maxPosterBytes = 10 << 20
)

// Client talks to a TMDB-style metadata service.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	searchClient *http.Client
	imageClient  *http.Client
	cache        *cache
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithImageBaseURL sets the poster base URL, size segment included.
func WithImageBaseURL(url string) Option {
	return func(c *Client) {
		c.imageBaseURL = url
	}
}

// WithLanguage sets the language sent on search requests.
func WithLanguage(language string) Option {
	return func(c *Client) {
		if language != "" {
			c.language = language
		}
	}
}

// WithCacheTTL sets the search cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = newCache(ttl)
	}
}

// WithHTTPClient sets a custom HTTP client for both search and images.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.searchClient = hc
		c.imageClient = hc
	}
}

// NewClient creates a metadata client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		imageBaseURL: defaultImageBaseURL,
		language:     defaultLanguage,
		searchClient: &http.Client{Timeout: searchTimeout},
		imageClient:  &http.Client{Timeout: posterTimeout},
		cache:        newCache(defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchMulti runs a multi search (movies and series in one response) and
// returns the raw ordered result list.
func (c *Client) SearchMulti(ctx context.Context, query string) ([]Result, error) {
	cacheKey := c.language + "|" + query
	if results, ok := c.cache.get(cacheKey); ok {
		return results, nil
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("language", c.language)
	params.Set("page", "1")

	endpoint := fmt.Sprintf("%s/search/multi?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.searchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata API error: %s", resp.Status)
	}

	var payload struct {
		Results []Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.cache.set(cacheKey, payload.Results)
	return payload.Results, nil
}

// DownloadPoster fetches the poster image behind a poster path reference.
func (c *Client) DownloadPoster(ctx context.Context, posterPath string) ([]byte, error) {
	if posterPath == "" {
		return nil, fmt.Errorf("empty poster path")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.imageBaseURL+posterPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.imageClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poster fetch error: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPosterBytes))
	if err != nil {
		return nil, fmt.Errorf("read poster body: %w", err)
	}

	return data, nil
}
