package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mmcdole/kanshi/internal/domain"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "Kanshi/1.0"
)

// listResponse wraps GET /entries
type listResponse struct {
	Data []domain.ListEntry `json:"data"`
}

// Client implements domain.EntryRepository against a JSON HTTP backend.
// Requests go through a circuit breaker so a dead backend fails fast.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

var _ domain.EntryRepository = (*Client)(nil)

// NewClient creates a new backend client
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger = logger.With("adapter", "rest")

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "list-backend",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors say nothing about backend health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrEntryNotFound) ||
				errors.Is(err, domain.ErrDuplicateEntry) ||
				errors.Is(err, domain.ErrAuthFailed) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		cb:         cb,
		logger:     logger,
	}
}

func (c *Client) List(ctx context.Context) ([]domain.ListEntry, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/entries", nil)
	if err != nil {
		return nil, err
	}
	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp.Data, nil
}

func (c *Client) Create(ctx context.Context, entry domain.ListEntry) (domain.ListEntry, error) {
	entry.ID = ""
	body, err := c.doRequest(ctx, http.MethodPost, "/entries", entry)
	if err != nil {
		return domain.ListEntry{}, err
	}
	return c.parseEntry(body)
}

func (c *Client) Update(ctx context.Context, id string, entry domain.ListEntry) (domain.ListEntry, error) {
	entry.ID = id
	body, err := c.doRequest(ctx, http.MethodPut, "/entries/"+url.PathEscape(id), entry)
	if err != nil {
		return domain.ListEntry{}, err
	}
	return c.parseEntry(body)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/entries/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) parseEntry(body []byte) (domain.ListEntry, error) {
	var e domain.ListEntry
	if err := json.Unmarshal(body, &e); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return domain.ListEntry{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return e, nil
}

// doRequest performs an authenticated request through the circuit breaker
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.send(ctx, method, path, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("backend request rejected", "error", err, "path", path)
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return body, err
}

func (c *Client) send(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("backend request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("backend request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("backend request error", "status", resp.StatusCode, "body", string(body))
		return nil, &domain.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}
