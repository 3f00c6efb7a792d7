// Package history is the client for the conversation history API:
// listing persisted sessions, fetching one, and deleting one. It also
// owns normalization of persisted records, whose field names vary by
// producer.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 30 * time.Second
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

// Client talks to the conversation history API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new history API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns one page of persisted conversations. A nil request uses
// the API defaults.
func (c *Client) List(ctx context.Context, req *ListRequest) (*ListResult, error) {
	r := ListRequest{}
	if req != nil {
		r = *req
	}
	if r.Limit <= 0 {
		r.Limit = 10
	}
	if r.SortBy == "" {
		r.SortBy = "timestamp"
	}
	if r.SortOrder == 0 {
		r.SortOrder = -1
	}

	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/conversation/history", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result ListResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// Get fetches one conversation by id. Missing ids map to ErrNotFound.
func (c *Client) Get(ctx context.Context, conversationID string) (*Conversation, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.conversationURL(conversationID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var conv Conversation
	if err := json.Unmarshal(respBody, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &conv, nil
}

// Delete removes one conversation by id. Missing ids map to ErrNotFound.
func (c *Client) Delete(ctx context.Context, conversationID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.conversationURL(conversationID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("history API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("delete rejected: %s", result.Message)
	}
	return nil
}

func (c *Client) conversationURL(conversationID string) string {
	return c.baseURL + "/api/conversation/" + url.PathEscape(conversationID)
}
