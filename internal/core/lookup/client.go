// Package lookup fetches server-rendered policy statements from the
// accounting service.
package lookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/policyview/internal/core/logging"
)

// Display receives the raw response body of a successful lookup.
type Display interface {
	SetHTML(html string)
}

// Config configures a Client.
type Config struct {
	Endpoint     string
	Timeout      time.Duration // zero disables the client timeout
	MaxBodyBytes int64
	UserAgent    string
}

// Response is a fetched lookup result.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        string
	Duration    time.Duration
}

// Client issues lookups against a fixed endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	display Display
	logger  zerolog.Logger

	wg sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithDisplay sets where Submit writes successful results.
func WithDisplay(d Display) Option {
	return func(c *Client) { c.display = d }
}

// NewClient creates a lookup client.
func NewClient(cfg Config, logger zerolog.Logger, opts ...Option) *Client {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2 << 20
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL builds the lookup URL by plain concatenation. Path segments are not
// escaped, so values containing '/' or '?' change the request path.
func (c *Client) URL(policy, dateTo string) string {
	return c.cfg.Endpoint + "/" + policy + "/" + dateTo
}

// Fetch performs one GET for the policy and date. A non-2xx status returns
// a *StatusError together with the response. A body larger than
// MaxBodyBytes returns ErrBodyTooLarge and no body.
func (c *Client) Fetch(ctx context.Context, policy, dateTo string) (Response, error) {
	url := c.URL(policy, dateTo)
	resp := Response{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return resp, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html, */*;q=0.5")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		return resp, fmt.Errorf("request %s: %w", url, err)
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("close lookup response body")
		}
	}()

	resp.StatusCode = httpResp.StatusCode
	resp.ContentType = httpResp.Header.Get("Content-Type")

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.cfg.MaxBodyBytes+1))
	if err != nil {
		return resp, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > c.cfg.MaxBodyBytes {
		c.logger.Warn().
			Ctx(ctx).
			Str("url", url).
			Int64("limit", c.cfg.MaxBodyBytes).
			Msg("lookup response exceeds body limit")
		return resp, fmt.Errorf("request %s: %w (limit %d bytes)", url, ErrBodyTooLarge, c.cfg.MaxBodyBytes)
	}

	resp.Body = string(body)
	resp.Duration = time.Since(start)

	c.logger.Debug().
		Ctx(ctx).
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("duration", resp.Duration).
		Int("bytes", len(body)).
		Msg("lookup response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: resp.Body}
	}

	return resp, nil
}

// Submit starts a lookup in the background and writes the body to the
// display when it succeeds. Failures are logged and leave the display
// untouched. Concurrent submissions are not deduplicated: whichever
// response arrives last is shown.
func (c *Client) Submit(ctx context.Context, policy, dateTo string) {
	ctx = logging.WithLookup(ctx, policy, dateTo)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		resp, err := c.Fetch(ctx, policy, dateTo)
		if err != nil {
			c.logger.Warn().Ctx(ctx).Err(err).Msg("lookup failed")
			return
		}
		if c.display != nil {
			c.display.SetHTML(resp.Body)
		}
	}()
}

// Wait blocks until all submitted lookups have finished.
func (c *Client) Wait() {
	c.wg.Wait()
}
