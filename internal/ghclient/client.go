package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	gh "github.com/google/go-github/v57/github"
	"github.com/spiffcs/ghissues/internal/constants"
	"github.com/spiffcs/ghissues/internal/log"
	"golang.org/x/oauth2"
)

// rateLimitTransport wraps an http.RoundTripper to handle GitHub rate limits
type rateLimitTransport struct {
	base  http.RoundTripper
	state *rateLimitState
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// The rate_limit endpoint does not consume quota and must stay reachable.
	if t.state.isLimited() && !strings.HasSuffix(req.URL.Path, "/rate_limit") {
		return nil, ErrRateLimited
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining >= 0 && limit > 0 {
		t.state.update(remaining, limit, resetAt)
	}

	if remaining <= constants.RateLimitLowWatermark && remaining > 0 {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.StatusCode == http.StatusTooManyRequests {
			t.state.setLimited(resetAt)
			_ = resp.Body.Close()
			return nil, ErrRateLimited
		}
	}

	return resp, nil
}

// parseRateLimitHeaders extracts rate limit info from response headers.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if remainingStr := resp.Header.Get("X-RateLimit-Remaining"); remainingStr != "" {
		if rem, err := strconv.Atoi(remainingStr); err == nil {
			remaining = rem
		}
	}

	if limitStr := resp.Header.Get("X-RateLimit-Limit"); limitStr != "" {
		if lim, err := strconv.Atoi(limitStr); err == nil {
			limit = lim
		}
	}

	if resetStr := resp.Header.Get("X-RateLimit-Reset"); resetStr != "" {
		if resetTime, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			resetAt = time.Unix(resetTime, 0)
		}
	}

	return remaining, limit, resetAt
}

// Client wraps the GitHub API client with retry and error classification.
type Client struct {
	client *gh.Client
	// token is intentionally unexported. NEVER add String(), MarshalJSON(),
	// or any method that could expose this value in logs or serialized output.
	token      string
	retries    int
	retryDelay time.Duration
	rate       *rateLimitState
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithRetryDelay sets the fixed delay between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithBaseURL points the client at a different API root, such as a
// GitHub Enterprise server or a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// NewClient creates a GitHub client. An empty token yields an anonymous
// client that can read public repositories at a much lower rate limit.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	c := &Client{
		token:      strings.TrimSpace(token),
		retries:    constants.DefaultRequestRetries,
		retryDelay: constants.DefaultRequestRetryDelay,
		rate:       newRateLimitState(),
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := &http.Client{}
	if c.token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: c.token},
		)
		hc = oauth2.NewClient(ctx, ts)
	}

	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = &rateLimitTransport{
		base:  base,
		state: c.rate,
	}

	c.client = gh.NewClient(hc)
	if c.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(c.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL %q: %w", c.baseURL, err)
		}
		c.client.BaseURL = u
	}

	return c, nil
}

// HasToken reports whether the client sends an authentication token.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// LastRate returns the quota seen on the most recent response.
func (c *Client) LastRate() (remaining, limit int, resetAt time.Time, ok bool) {
	return c.rate.status()
}

// do runs fn, retrying transient failures with a constant backoff.
// Every error it returns is an *Error.
func (c *Client) do(ctx context.Context, op string, fn func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.retries)),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		log.Debug("github request", "op", op, "attempt", attempt)
		err := fn()
		if err == nil {
			return nil
		}
		classified := classify(op, err)
		if classified.Kind == KindNetworkTransient {
			log.Debug("transient github error", "op", op, "attempt", attempt, "error", err)
			return classified
		}
		return backoff.Permanent(classified)
	}, policy)
	if err == nil {
		return nil
	}
	return classify(op, err)
}
