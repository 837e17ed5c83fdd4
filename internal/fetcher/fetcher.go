// Package fetcher downloads single remote images with bounded retries and
// content sanity checks. Providers occasionally serve HTML error pages with a
// 200 status, so a successful transfer is not trusted until its content type
// and size look like an actual image.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const maxImageBytes = 100 << 20

type Config struct {
	MaxRetries int
	Timeout    time.Duration
	Backoff    time.Duration
	MinBytes   int
}

// FetchError is the per-item failure surfaced after retry exhaustion. The
// caller drops the item and continues with the rest of the batch.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Fetcher struct {
	client   *retryablehttp.Client
	minBytes int
}

func New(cfg Config) *Fetcher {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = cfg.MaxRetries
	client.RetryWaitMin = cfg.Backoff
	client.RetryWaitMax = 10 * cfg.Backoff
	client.HTTPClient.Timeout = cfg.Timeout
	client.Backoff = linearBackoff
	client.CheckRetry = makeCheckRetry(cfg.MinBytes)
	return &Fetcher{
		client:   client,
		minBytes: cfg.MinBytes,
	}
}

// Fetch downloads url and returns its bytes. All failure modes, including
// retry exhaustion, come back as *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}
	if isHTMLContentType(resp.Header.Get("Content-Type")) {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("response is html, not an image")}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if len(body) < f.minBytes {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("payload too small (%d bytes), likely an error page", len(body))}
	}

	return body, nil
}

// linearBackoff waits base*attempt between tries, capped at max. The delay is
// monotonically non-decreasing across attempts.
func linearBackoff(min, max time.Duration, attemptNum int, _ *http.Response) time.Duration {
	wait := min * time.Duration(attemptNum+1)
	if wait > max {
		wait = max
	}
	return wait
}

// makeCheckRetry retries network errors, 5xx responses, and soft failures
// where the payload is visibly not an image. 4xx responses fail immediately.
func makeCheckRetry(minBytes int) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return true, nil
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if isHTMLContentType(resp.Header.Get("Content-Type")) {
				return true, fmt.Errorf("response is html, not an image")
			}
			if resp.ContentLength >= 0 && resp.ContentLength < int64(minBytes) {
				return true, fmt.Errorf("payload too small (%d bytes)", resp.ContentLength)
			}
		}
		return false, nil
	}
}

func isHTMLContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}
