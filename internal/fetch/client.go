// internal/fetch/client.go
// Package fetch retrieves episode page markup for the extraction core. The
// core itself performs no I/O; retry, timeout, and rate-limit policy all live
// here, on the calling side of the boundary.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrDisallowedHost marks a locator outside the supported source domain.
// Callers map it to the "input rejected" class, not a retrieval failure.
var ErrDisallowedHost = errors.New("fetch: locator host not in allowlist")

// Config defines the retrieval client options.
type Config struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	RateLimit     float64 // requests per second
	RateBurst     int
	UserAgents    []string
	AllowedHosts  []string
}

// Client fetches pages from the supported source site with retries,
// user-agent rotation, and rate limiting.
type Client struct {
	httpClient    *http.Client
	userAgents    []string
	currentUA     int
	uaMutex       sync.Mutex
	limiter       *rate.Limiter
	retryAttempts int
	retryDelay    time.Duration
	allowedHosts  map[string]bool
}

// New creates a retrieval client, filling in defaults for unset options.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1.0
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 5
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = defaultUserAgents()
	}

	allowed := make(map[string]bool, len(cfg.AllowedHosts))
	for _, host := range cfg.AllowedHosts {
		allowed[strings.ToLower(host)] = true
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgents:    cfg.UserAgents,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
		allowedHosts:  allowed,
	}
}

// Allow validates the locator: absolute http(s) URL whose host is on the
// allowlist. An empty allowlist admits any host.
func (c *Client) Allow(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: malformed locator %q", ErrDisallowedHost, rawURL)
	}
	if len(c.allowedHosts) > 0 && !c.allowedHosts[strings.ToLower(u.Hostname())] {
		return fmt.Errorf("%w: %s", ErrDisallowedHost, u.Hostname())
	}
	return nil
}

// Page retrieves the markup at rawURL. Transient failures are retried with
// exponential backoff; the final error is returned after the last attempt.
func (c *Client) Page(ctx context.Context, rawURL string) (string, error) {
	if err := c.Allow(rawURL); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		c.setRequestHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt+1, c.retryAttempts+1, err)
			if ctx.Err() != nil {
				return "", lastErr
			}
			if attempt < c.retryAttempts {
				c.waitForRetry(ctx, attempt)
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return "", fmt.Errorf("failed to read response body: %w", err)
			}
			return string(body), nil
		}

		resp.Body.Close()
		lastErr = fmt.Errorf("HTTP %d fetching %s (attempt %d/%d)", resp.StatusCode, rawURL, attempt+1, c.retryAttempts+1)
		if !shouldRetryStatus(resp.StatusCode) {
			break
		}
		// No point sleeping after the last attempt.
		if attempt < c.retryAttempts {
			c.waitForRetry(ctx, attempt)
		}
	}

	return "", lastErr
}

func (c *Client) setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
}

func (c *Client) nextUserAgent() string {
	c.uaMutex.Lock()
	defer c.uaMutex.Unlock()
	ua := c.userAgents[c.currentUA]
	c.currentUA = (c.currentUA + 1) % len(c.userAgents)
	return ua
}

func (c *Client) waitForRetry(ctx context.Context, attempt int) {
	delay := c.retryDelay * time.Duration(1<<uint(attempt))
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func shouldRetryStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0",
	}
}
