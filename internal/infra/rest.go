package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// APIError carries the HTTP status and response body of a failed venue call.
type APIError struct {
	Venue  string
	Status int
	URL    string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: http %d from %s: %s", e.Venue, e.Status, e.URL, e.Body)
}

const restRetries = 3

// RESTClient is a small JSON-over-HTTP helper shared by the venue adapters.
// Every call takes a context and runs against a bounded-timeout client; a
// per-venue circuit breaker rejects calls fast while the venue is down.
type RESTClient struct {
	venue   string
	http    *http.Client
	breaker *CircuitBreaker
}

// NewRESTClient creates a client for one venue.
func NewRESTClient(venue string, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RESTClient{
		venue:   venue,
		http:    &http.Client{Timeout: timeout},
		breaker: NewCircuitBreaker(venue),
	}
}

// GetJSON issues a GET and decodes the JSON response into out.
// Throttling (429) and server errors are retried with exponential backoff.
func (c *RESTClient) GetJSON(ctx context.Context, rawURL string, params url.Values, headers map[string]string, out any) error {
	var lastErr error
	for attempt := 0; attempt < restRetries; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(attempt - 1)
			slog.Debug("retrying venue request", "venue", c.venue, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.do(ctx, http.MethodGet, rawURL, params, nil, headers, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
	}
	return lastErr
}

// PostJSON issues a POST with a JSON body and decodes the response into out.
// Posts are not retried: order submission is not idempotent.
func (c *RESTClient) PostJSON(ctx context.Context, rawURL string, body any, headers map[string]string, out any) error {
	return c.do(ctx, http.MethodPost, rawURL, nil, body, headers, out)
}

func (c *RESTClient) do(ctx context.Context, method, rawURL string, params url.Values, body any, headers map[string]string, out any) error {
	if !c.breaker.Allow() {
		return fmt.Errorf("%s: %w", c.venue, ErrBreakerOpen)
	}

	u := rawURL
	if len(params) > 0 {
		u = rawURL + "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request body: %w", c.venue, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.venue, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("%s: %w", c.venue, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("%s: read response: %w", c.venue, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.breaker.RecordFailure()
		return &APIError{Venue: c.venue, Status: resp.StatusCode, URL: rawURL, Body: string(data)}
	}

	c.breaker.RecordSuccess()

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", c.venue, err)
		}
	}
	return nil
}

func retryable(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
	}
	return false
}
