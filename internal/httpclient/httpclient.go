// Package httpclient is a small JSON-over-HTTP client with Bearer auth and
// retry on rate limiting and server errors.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultBaseDelay  = time.Second
	maxErrorBody      = 512
)

// Client is an HTTP client with Bearer auth, base URL, and retry logic.
type Client struct {
	baseURL    string
	token      string
	headers    map[string]string
	maxRetries int
	baseDelay  time.Duration
	httpClient *http.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
	retryAfter string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxRetries sets how many times a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBaseDelay sets the first backoff step; later steps double it.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) { c.headers = h }
}

// New creates a Client. An empty token sends no Authorization header.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON marshals body, POSTs it and unmarshals the response into dest.
// dest may be nil when the response body is not needed.
func (c *Client) PostJSON(ctx context.Context, path string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("httpclient: marshal: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, payload, dest)
}

// do returns *APIError for non-2xx responses. It retries 429 (honoring
// Retry-After) and 5xx with exponential backoff up to maxRetries times.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, dest any) error {
	var lastErr *APIError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(c.backoff(attempt, lastErr))
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if dest == nil || len(data) == 0 {
				return nil
			}
			return json.Unmarshal(data, dest)
		}

		msg := string(data)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: msg}
		if !apiErr.Temporary() {
			return apiErr
		}
		apiErr.retryAfter = resp.Header.Get("Retry-After")
		lastErr = apiErr
	}
	return lastErr
}

// backoff returns the wait before a retry attempt.
func (c *Client) backoff(attempt int, lastErr *APIError) time.Duration {
	if lastErr != nil && lastErr.StatusCode == http.StatusTooManyRequests && lastErr.retryAfter != "" {
		if secs, err := strconv.Atoi(lastErr.retryAfter); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return c.baseDelay << (attempt - 1)
}
