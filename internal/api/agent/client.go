// Package agent is the HTTP client for the conversational agent API. A
// chat turn is a single POST whose response is a stream of event frames;
// the client hands back a Stream the caller drains event by event.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gd03champ/swiggy-ai-agent/internal/stream"
)

const (
	defaultBaseURL   = "http://localhost:8000"
	defaultUserAgent = "swiggy-assistant/1.0"
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

// WithLogger sets the logger used for stream-level diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// Client talks to the agent API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
}

// NewClient creates a new agent API client. The default transport is
// traced; chat responses stream for as long as the agent keeps working,
// so no client-level timeout is set. Cancel the request context to abort
// a turn.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:    slog.Default(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StreamChat sends one chat turn and returns the agent's event stream.
func (c *Client) StreamChat(ctx context.Context, req *ChatRequest) (*Stream, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/agent/chat/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("agent API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return &Stream{
		body:   resp.Body,
		reader: stream.NewReader(resp.Body, stream.WithLogger(c.logger)),
	}, nil
}

// Ping checks that the agent API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("agent API error (status %d)", resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

// Stream is the event sequence of one chat turn. It yields frames until
// the agent signals completion or the transport ends; Close releases the
// underlying connection and is safe after the stream is drained.
type Stream struct {
	body   io.ReadCloser
	reader *stream.Reader
}

// Next advances to the next event. It returns false once the turn is
// complete or the stream fails; check Err afterwards.
func (s *Stream) Next() bool { return s.reader.Next() }

// Event returns the event read by the last call to Next.
func (s *Stream) Event() stream.Event { return s.reader.Event() }

// Err reports a transport or read error, if any.
func (s *Stream) Err() error { return s.reader.Err() }

// Close releases the response body.
func (s *Stream) Close() error { return s.body.Close() }
