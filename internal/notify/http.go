package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultRetryDelays is the wait before each attempt: immediately, after 5s,
// after 30s.
var DefaultRetryDelays = []time.Duration{0, 5 * time.Second, 30 * time.Second}

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// HTTPClient posts payloads with retry on 429 and 5xx.
type HTTPClient struct {
	client     *http.Client
	retryDelay []time.Duration
	userAgent  string
}

// NewHTTPClient creates a new HTTP client with default settings.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		client:     &http.Client{Timeout: 30 * time.Second},
		retryDelay: DefaultRetryDelays,
		userAgent:  "tickwatch/1.0",
	}
}

// WithTimeout sets the per-request timeout.
func (c *HTTPClient) WithTimeout(d time.Duration) *HTTPClient {
	c.client.Timeout = d
	return c
}

// WithRetryDelays replaces the attempt schedule. The number of delays is the
// number of attempts.
func (c *HTTPClient) WithRetryDelays(delays ...time.Duration) *HTTPClient {
	if len(delays) == 0 {
		delays = []time.Duration{0}
	}
	c.retryDelay = delays
	return c
}

// SendResult contains the result of a send operation.
type SendResult struct {
	StatusCode int
	Duration   time.Duration
	Attempts   int
	Error      error
}

// Send POSTs body to url. Network errors, 429 and 5xx are retried on the
// configured schedule; other 4xx responses fail at once.
func (c *HTTPClient) Send(ctx context.Context, url, contentType string, body []byte, headers map[string]string) *SendResult {
	result := &SendResult{}
	start := time.Now()

	for attempt, delay := range c.retryDelay {
		if delay > 0 {
			select {
			case <-ctx.Done():
				result.Error = ctx.Err()
				result.Duration = time.Since(start)
				return result
			case <-time.After(delay):
			}
		}
		result.Attempts = attempt + 1

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			result.Error = fmt.Errorf("failed to create request: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("User-Agent", c.userAgent)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			result.Error = fmt.Errorf("request failed: %w", err)
			continue
		}
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		result.StatusCode = resp.StatusCode
		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			result.Error = nil
			result.Duration = time.Since(start)
			return result
		case resp.StatusCode == http.StatusTooManyRequests:
			result.Error = fmt.Errorf("rate limited (HTTP 429)")
		case resp.StatusCode >= 500:
			result.Error = fmt.Errorf("server error (HTTP %d): %s", resp.StatusCode, snippet)
		default:
			result.Error = fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode, snippet)
			result.Duration = time.Since(start)
			return result
		}
	}

	result.Duration = time.Since(start)
	return result
}
