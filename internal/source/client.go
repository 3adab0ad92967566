// Package source downloads dataset files over HTTP with retry on transient failures.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rewired-gh/bikeshare/internal/logger"
)

// maxBodyBytes bounds a single download; the hourly file is ~1.2 MB.
const maxBodyBytes = 64 << 20

// Client fetches dataset files
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// ClientConfig holds retry settings
type ClientConfig struct {
	MaxRetries     int
	RetryDelayBase time.Duration
}

// NewClient creates a new download client
func NewClient(timeout time.Duration, cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
	}
}

// StatusError is a non-retryable HTTP status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Fetch downloads url. Network errors and 5xx responses are retried with
// linear backoff; any other non-200 status fails immediately.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}

		body, retry, err := c.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		logger.Warn("Fetching %s failed (attempt %d/%d): %v", url, i+1, c.maxRetries, err)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "text/csv, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("server error: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read body: %w", err)
	}
	return body, false, nil
}
