// Package fetcher retrieves product page content with per-attempt timeouts,
// retryable-failure classification and exponential backoff.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/pricewatch/tracker-api/pkg/logger"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodyBytes     = 5 << 20
)

// Fetcher retrieves the raw content of a product page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Error carries the failure classification for one fetch.
type Error struct {
	URL       string
	Attempts  int
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to fetch %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options tune the HTTP fetcher.
type Options struct {
	Timeout   time.Duration
	Attempts  int
	Backoff   time.Duration
	UserAgent string

	// Outbound pacing across all fetches, shared by every caller of this
	// fetcher so sequential sweeps cannot hammer a storefront.
	RPS   float64
	Burst int
}

// HTTPFetcher implements Fetcher over net/http.
type HTTPFetcher struct {
	opts    Options
	client  *http.Client
	limiter *rate.Limiter
	logger  *logger.Logger
}

func NewHTTPFetcher(opts Options, log *logger.Logger) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.RPS <= 0 {
		opts.RPS = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	return &HTTPFetcher{
		opts:    opts,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
		logger:  log,
	}
}

// Fetch retrieves url, retrying transient failures up to the configured
// attempt bound with backoff growing linearly per attempt. Terminal
// failures (4xx other than 429, malformed URLs) are returned immediately.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= f.opts.Attempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", &Error{URL: url, Attempts: attempt, Err: err}
		}

		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return "", &Error{URL: url, Attempts: attempt, Err: err}
		}

		if attempt < f.opts.Attempts {
			f.logger.Warn("fetch attempt failed, retrying",
				"url", url, "attempt", attempt, "error", err.Error())
			select {
			case <-ctx.Done():
				return "", &Error{URL: url, Attempts: attempt, Err: ctx.Err()}
			case <-time.After(f.opts.Backoff * time.Duration(attempt)):
			}
		}
	}

	return "", &Error{URL: url, Attempts: f.opts.Attempts, Err: lastErr}
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &statusError{code: 0, err: fmt.Errorf("invalid url: %w", err)}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

// isRetryable classifies a single-attempt failure. Connection resets,
// timeouts, refused connections, HTTP 429 and HTTP 5xx are worth retrying;
// everything else is terminal.
func isRetryable(err error) bool {
	var sErr *statusError
	if errors.As(err, &sErr) {
		return sErr.code == http.StatusTooManyRequests || sErr.code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
