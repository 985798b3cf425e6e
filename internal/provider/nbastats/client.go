// Package nbastats is a client for the public stats.nba.com endpoints.
//
// Responses are tabular result sets ({name, headers, rowSet}). The service
// drops requests that do not look like they come from a browser, so every
// call carries nba.com headers. Rate limiting is a token bucket; transient
// failures are retried with exponential backoff.
package nbastats

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production stats API root.
const DefaultBaseURL = "https://stats.nba.com/stats"

// ErrTransient marks failures worth retrying: network errors, throttling and
// server-side errors. Marked errors keep their cause, so a wrapped
// net.Error or context error is still visible to errors.As and errors.Is.
var ErrTransient = crerr.New("nba stats transient failure")

// IsTransient reports whether err carries ErrTransient.
func IsTransient(err error) bool {
	return crerr.Is(err, ErrTransient)
}

var browserHeaders = map[string]string{
	"User-Agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":             "application/json, text/plain, */*",
	"Accept-Language":    "en-US,en;q=0.9",
	"Referer":            "https://www.nba.com/",
	"Origin":             "https://www.nba.com",
	"x-nba-stats-origin": "stats",
	"x-nba-stats-token":  "true",
}

// Client is a rate-limited, retrying stats.nba.com client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRetry sets the number of retries after the first attempt and the
// initial backoff, which doubles on each retry.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a client. requestsPerMinute <= 0 disables rate limiting.
func NewClient(baseURL string, requestsPerMinute int, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Limit(float64(requestsPerMinute) / 60.0)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: 3,
		backoff:    5 * time.Second,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get fetches endpoint and decodes its result sets.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	raw, err := c.executeRequest(ctx, endpoint, u)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return &resp, nil
}

func (c *Client) executeRequest(ctx context.Context, endpoint, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, err := c.do(ctx, fullURL)
		if err == nil {
			return body, nil
		}
		lastErr = crerr.Wrap(err, endpoint)
		if !IsTransient(err) || ctx.Err() != nil {
			return nil, lastErr
		}
		if attempt == c.maxRetries {
			break
		}

		backoff := c.backoff << attempt
		c.logger.Warn("nba stats request failed, retrying",
			"endpoint", endpoint, "attempt", attempt+1, "backoff", backoff, "error", err)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	c.logger.Error("nba stats request abandoned", "endpoint", endpoint, "attempts", c.maxRetries+1, "error", lastErr)
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "http request"), ErrTransient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "read response body"), ErrTransient)
	}

	if resp.StatusCode != http.StatusOK {
		if isRetryableStatus(resp.StatusCode) {
			return nil, crerr.Mark(statusError(resp.StatusCode, body), ErrTransient)
		}
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

func statusError(code int, body []byte) error {
	return crerr.Newf("status %d: %s", code, truncate(body, 200))
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
