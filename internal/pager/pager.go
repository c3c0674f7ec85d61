// Package pager drains paginated listing endpoints for client-side exports.
package pager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jetpackmatt/freightdesk/internal/domain"
)

// ListingPage is the wire shape of one listing response.
type ListingPage struct {
	Rows  []domain.Record `json:"rows"`
	Total int             `json:"total"`
}

// Config configures a pager client.
type Config struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Timeout  time.Duration
	Retry    RetryConfig
}

// Client fetches every page of a listing endpoint, reporting progress as it
// goes. It is the external paging collaborator consumed by the export engine.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	pageSize int
	retry    RetryConfig
	logger   *slog.Logger
}

// NewClient creates a pager client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 250
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		retry:    cfg.Retry,
		logger:   logger,
	}
}

// FetchAll retrieves all pages from endpoint until the reported total is
// reached, invoking onProgress after every page with the running count and
// the server's total.
func (c *Client) FetchAll(ctx context.Context, endpoint string, params url.Values, onProgress func(fetched, total int)) ([]domain.Record, error) {
	var all []domain.Record
	total := -1

	for page := 1; ; page++ {
		result, err := Retry(ctx, c.retry, func() (*ListingPage, error) {
			return c.fetchPage(ctx, endpoint, params, page)
		}, isRetryable)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}

		all = append(all, result.Rows...)
		total = result.Total

		if onProgress != nil {
			onProgress(len(all), total)
		}

		if len(all) >= total || len(result.Rows) == 0 {
			break
		}
	}

	c.logger.Debug("listing drained", "endpoint", endpoint, "rows", len(all), "total", total)
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, endpoint string, params url.Values, page int) (*ListingPage, error) {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrInvalidAPIKey
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result ListingPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode listing page: %w", err)
	}
	return &result, nil
}

func isRetryable(err error) bool {
	// A rejected key will not start working on the next attempt.
	return !errors.Is(err, domain.ErrInvalidAPIKey)
}
