// Package feed fetches raw catalog exports from store feeds
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/simplespend/backend/internal/domain"
	"github.com/simplespend/backend/internal/infrastructure/logging"
	"golang.org/x/time/rate"
)

const (
	componentFeed = "catalog.feed"

	maxAttempts = 3

	// maxExportSize caps how much of one export is read into memory
	maxExportSize = 64 << 20
)

// Client downloads exports over HTTP with a shared rate limit and retries
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	baseBackoff time.Duration
}

// NewClient creates a feed client allowing perMinute requests across all feeds
func NewClient(perMinute int) *Client {
	if perMinute <= 0 {
		perMinute = 30
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		rateLimiter: limiter,
		userAgent:   "SimpleSpend/1.0",
		baseBackoff: 500 * time.Millisecond,
	}
}

// exponentialBackoff returns the wait after a failed attempt: base, 2*base, 4*base, ...
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<(attempt-1))
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}

	return resp, nil
}

// Fetch downloads one export. 5xx responses and transport errors are retried
// with exponential backoff; 4xx responses fail at once.
func (c *Client) Fetch(ctx context.Context, reqURL string) ([]byte, error) {
	log := logging.WithComponentAndFields(componentFeed, logging.Fields{"url": reqURL})

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(exponentialBackoff(c.baseBackoff, attempt-1)):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).WithField("attempt", attempt).Warn("feed request failed")
			lastErr = err
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxExportSize))
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: reading body: %v", domain.ErrFeedUnavailable, err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			log.WithField("bytes", len(body)).Debug("feed fetched")
			return body, nil
		case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
			log.WithFields(logging.Fields{
				"attempt": attempt,
				"status":  resp.StatusCode,
			}).Warn("feed returned a retryable status")
			lastErr = fmt.Errorf("%w: status %d", domain.ErrFeedUnavailable, resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: status %d", domain.ErrFeedUnavailable, resp.StatusCode)
		}
	}

	log.WithError(lastErr).Error("all feed attempts failed")
	return nil, lastErr
}
