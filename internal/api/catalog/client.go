// Package catalog fetches dining data: restaurant listings, search
// results, and menus. Upstream documents are large and stay rank-stable
// for minutes, so every operation reads through a fingerprint cache
// with a per-operation lifetime.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 30 * time.Second

	restaurantsTTL = 5 * time.Minute
	searchTTL      = 3 * time.Minute
	menuTTL        = 10 * time.Minute
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

// WithCache replaces the default in-memory cache.
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger sets the logger for cache diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client talks to the dining catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	logger     *slog.Logger
}

// NewClient creates a new catalog API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
		cache:  NewTTLCache(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restaurants returns the listing document for the given coordinates.
// An empty pageType means the default collection listing.
func (c *Client) Restaurants(ctx context.Context, lat, lng float64, pageType string) (json.RawMessage, error) {
	if pageType == "" {
		pageType = "COLLECTION"
	}
	fingerprint := "restaurants:" + pageType + ":" + coord(lat) + ":" + coord(lng)

	params := url.Values{}
	params.Set("lat", coord(lat))
	params.Set("lng", coord(lng))
	params.Set("page_type", pageType)
	return c.fetch(ctx, "/api/restaurants", params, fingerprint, restaurantsTTL)
}

// Search returns restaurants matching a free-text query.
func (c *Client) Search(ctx context.Context, lat, lng float64, query string) (json.RawMessage, error) {
	fingerprint := "search:" + query + ":" + coord(lat) + ":" + coord(lng)

	params := url.Values{}
	params.Set("lat", coord(lat))
	params.Set("lng", coord(lng))
	params.Set("query", query)
	return c.fetch(ctx, "/api/search", params, fingerprint, searchTTL)
}

// Menu returns the full menu document for one restaurant.
func (c *Client) Menu(ctx context.Context, lat, lng float64, restaurantID string) (json.RawMessage, error) {
	fingerprint := "menu:" + restaurantID + ":" + coord(lat) + ":" + coord(lng)

	params := url.Values{}
	params.Set("lat", coord(lat))
	params.Set("lng", coord(lng))
	params.Set("restaurantId", restaurantID)
	return c.fetch(ctx, "/api/menu", params, fingerprint, menuTTL)
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values, fingerprint string, ttl time.Duration) (json.RawMessage, error) {
	if doc, ok := c.cache.Get(fingerprint, ttl); ok {
		c.logger.Debug("catalog cache hit", slog.String("fingerprint", fingerprint))
		return doc, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("catalog API returned invalid JSON")
	}

	c.cache.Set(fingerprint, body)
	return body, nil
}

// coord formats a coordinate the way fingerprints and query strings
// expect, with no exponent and no trailing zeros.
func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
