// Package client talks to the upstream identity provider the gateway
// depends on: one-time authorization-code exchange and bearer-token
// verification. It is the single source of truth for authentication
// decisions; the gateway's cache and limiter are best-effort layers on top.
package client

import (
	"net/http"
	"time"
)

const (
	ExchangeRoute = "/auth/exchange"
	VerifyRoute   = "/auth/verify"
)

type Client struct {
	baseURL      string
	app          string
	serviceToken string

	httpClient  *http.Client
	timeout     time.Duration // per attempt
	maxAttempts int           // total tries, 1 initial + retries
	backoff     time.Duration // linear: attempt n waits n * backoff

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

type Option func(*Client)

// WithServiceToken sets the service-level bearer sent on code exchange.
func WithServiceToken(token string) Option {
	return func(c *Client) {
		c.serviceToken = token
	}
}

// WithTimeout bounds every single upstream attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetry sets the total number of verification tries and the linear
// backoff base between network-level failures.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the identity provider at baseURL. The app slug
// is sent with every exchange and verification request.
func New(baseURL, app string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		app:         app,
		httpClient:  &http.Client{},
		timeout:     5 * time.Second,
		maxAttempts: 3,
		backoff:     250 * time.Millisecond,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
