package jikan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/mmcdole/kanshi/internal/domain"
)

const (
	DefaultBaseURL     = "https://api.jikan.moe/v4"
	DefaultMinInterval = 400 * time.Millisecond
	DefaultRetryDelay  = 1500 * time.Millisecond
	DefaultPageLimit   = 24

	defaultTimeout = 15 * time.Second
	userAgent      = "Kanshi/1.0"
)

// Config controls endpoint construction and request cadence
type Config struct {
	BaseURL     string
	MinInterval time.Duration // Minimum spacing between request starts
	RetryDelay  time.Duration // Backoff before the single retry after a 429
	Timeout     time.Duration
	PageLimit   int
	SFW         bool
}

// Client implements domain.CatalogClient for the Jikan API.
// All requests, retries included, pass through one admission gate.
type Client struct {
	cfg        Config
	httpClient *http.Client
	gate       *Gate
	clock      clockwork.Clock
	logger     *slog.Logger
}

var _ domain.CatalogClient = (*Client)(nil)

// NewClient creates a new Jikan client. A nil clock uses the real clock.
func NewClient(cfg Config, clock clockwork.Clock, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = DefaultPageLimit
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		gate:       NewGate(cfg.MinInterval, clock),
		clock:      clock,
		logger:     logger.With("adapter", "jikan"),
	}
}

// Fetch retrieves the titles behind an endpoint.
// A 429 is retried exactly once after RetryDelay; any other failure is returned as is.
func (c *Client) Fetch(ctx context.Context, ep domain.Endpoint) ([]domain.CatalogItem, error) {
	body, err := c.doRequest(ctx, ep)
	if isThrottled(err) {
		c.logger.Warn("catalog throttled, retrying once", "path", ep.Path, "delay", c.cfg.RetryDelay)
		if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
			return nil, err
		}
		body, err = c.doRequest(ctx, ep)
		if isThrottled(err) {
			c.logger.Error("catalog still throttled after retry", "path", ep.Path)
			return nil, fmt.Errorf("%s: %w", ep.Path, err)
		}
	}
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return MapAnimeList(resp.Data), nil
}

// Search returns titles matching a keyword query
func (c *Client) Search(ctx context.Context, query string) ([]domain.CatalogItem, error) {
	return c.Fetch(ctx, c.endpoint("/anime", map[string]string{"q": query}))
}

// TopAiring returns the currently airing top list
func (c *Client) TopAiring(ctx context.Context) ([]domain.CatalogItem, error) {
	return c.Fetch(ctx, c.endpoint("/top/anime", map[string]string{"filter": "airing"}))
}

// Top returns the all-time top list
func (c *Client) Top(ctx context.Context) ([]domain.CatalogItem, error) {
	return c.Fetch(ctx, c.endpoint("/top/anime", nil))
}

// SeasonNow returns the current season's titles
func (c *Client) SeasonNow(ctx context.Context) ([]domain.CatalogItem, error) {
	return c.Fetch(ctx, c.endpoint("/seasons/now", nil))
}

// endpoint adds the page limit and sfw flag shared by every list call
func (c *Client) endpoint(path string, query map[string]string) domain.Endpoint {
	q := map[string]string{"limit": strconv.Itoa(c.cfg.PageLimit)}
	if c.cfg.SFW {
		q["sfw"] = "true"
	}
	for k, v := range query {
		q[k] = v
	}
	return domain.Endpoint{Path: path, Query: q}
}

// doRequest waits on the gate and performs one GET
func (c *Client) doRequest(ctx context.Context, ep domain.Endpoint) ([]byte, error) {
	if err := c.gate.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.cfg.BaseURL + ep.Path
	if len(ep.Query) > 0 {
		reqURL += "?" + encodeQuery(ep.Query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("catalog request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("catalog request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode != http.StatusTooManyRequests {
			c.logger.Error("catalog request error", "status", resp.StatusCode, "body", string(body))
		}
		return nil, &domain.StatusError{Code: resp.StatusCode}
	}

	return body, nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-c.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isThrottled(err error) bool {
	var se *domain.StatusError
	return errors.As(err, &se) && se.Code == http.StatusTooManyRequests
}

func encodeQuery(q map[string]string) string {
	values := make(url.Values, len(q))
	for k, v := range q {
		values.Set(k, v)
	}
	return values.Encode()
}
