package client

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/supasaas/pkg/config"
)

// ClientConfig represents the transport settings shared by both handles
type ClientConfig struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	UserAgent     string
	QuietMode     bool // Suppress debug/info logs when no logger is supplied
}

// DefaultClientConfig returns the transport defaults.
func DefaultClientConfig() *ClientConfig {
	d := config.DefaultConfig().Client
	return &ClientConfig{
		Timeout:       d.Timeout,
		RetryAttempts: d.RetryAttempts,
		RetryDelay:    d.RetryDelay,
		UserAgent:     d.UserAgent,
	}
}

// FromConfig returns options mirroring the client section of a file config.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithTimeout(cfg.Client.Timeout),
		WithRetry(cfg.Client.RetryAttempts, cfg.Client.RetryDelay),
		WithUserAgent(cfg.Client.UserAgent),
	}
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for client lifecycle messages.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithQuiet builds a warn-level logger when none was supplied.
func WithQuiet(quiet bool) Option {
	return func(c *Client) { c.cfg.QuietMode = quiet }
}

// WithHTTPClient replaces the underlying http.Client for both handles.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.cfg.Timeout = d
		}
	}
}

// WithRetry sets the number of attempts and the delay between them.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.cfg.RetryAttempts = attempts
		}
		if delay >= 0 {
			c.cfg.RetryDelay = delay
		}
	}
}

// WithUserAgent sets the X-Client-Info header value.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.cfg.UserAgent = ua
		}
	}
}
