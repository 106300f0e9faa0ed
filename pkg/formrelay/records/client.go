// Package records is a client for the PocketBase records API.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the number of records requested per page.
	DefaultPageSize = 500
	// MaxPageSize is the largest page PocketBase serves.
	MaxPageSize = 1000
	// DefaultTimeout bounds every HTTP request.
	DefaultTimeout = 30 * time.Second
)

// Client talks to a single PocketBase instance.
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the auth token sent in the Authorization header.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithPageSize sets the page size used when listing records,
// capped at MaxPageSize.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = min(n, MaxPageSize)
		}
	}
}

// WithHTTPClient replaces the HTTP client. A nil client is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each HTTP request. The client passed to WithHTTPClient
// is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a client for the PocketBase instance at baseURL.
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   DefaultPageSize,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.httpClient.Timeout != c.timeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

type listResponse struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalItems int      `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
	Items      []Record `json:"items"`
}

type errorResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// GetFilteredList returns every record of collection matching filter,
// in the order the store returns them.
func (c *Client) GetFilteredList(ctx context.Context, collection, filter string) ([]Record, error) {
	log := c.logger.With(zap.String("collection", collection), zap.String("filter", filter))
	log.Info("fetching records")

	records, err := c.list(ctx, collection, filter)
	if err != nil {
		log.Error("fetch records failed", zap.Error(err))
		return nil, err
	}

	log.Info("records fetched", zap.Int("count", len(records)))
	return records, nil
}

// GetFullList returns every record of collection.
func (c *Client) GetFullList(ctx context.Context, collection string) ([]Record, error) {
	records, err := c.list(ctx, collection, "")
	if err != nil {
		c.logger.Error("fetch records failed", zap.String("collection", collection), zap.Error(err))
		return nil, err
	}
	return records, nil
}

// UpdateStatus sets the status field of one record and returns the updated record.
func (c *Client) UpdateStatus(ctx context.Context, collection, id, status string) (Record, error) {
	body, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return Record{}, err
	}

	var updated Record
	endpoint := c.recordsURL(collection) + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, endpoint, body, &updated); err != nil {
		c.logger.Error("update record failed",
			zap.String("collection", collection),
			zap.String("id", id),
			zap.Error(err))
		return Record{}, err
	}
	return updated, nil
}

func (c *Client) list(ctx context.Context, collection, filter string) ([]Record, error) {
	var result []Record
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("perPage", strconv.Itoa(c.pageSize))
		q.Set("skipTotal", "1")
		if filter != "" {
			q.Set("filter", filter)
		}

		var resp listResponse
		if err := c.do(ctx, http.MethodGet, c.recordsURL(collection)+"?"+q.Encode(), nil, &resp); err != nil {
			return nil, err
		}
		result = append(result, resp.Items...)

		// The server may serve fewer records per page than requested.
		limit := c.pageSize
		if resp.PerPage > 0 && resp.PerPage < limit {
			limit = resp.PerPage
		}
		if len(resp.Items) < limit || len(resp.Items) == 0 {
			return result, nil
		}
	}
}

func (c *Client) recordsURL(collection string) string {
	return c.baseURL + "/api/collections/" + url.PathEscape(collection) + "/records"
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respErr := &ResponseError{Method: method, URL: endpoint, Status: resp.StatusCode}
		var payload errorResponse
		if data, _ := io.ReadAll(resp.Body); len(data) > 0 {
			if json.Unmarshal(data, &payload) == nil {
				respErr.Message = payload.Message
				respErr.Data = payload.Data
			} else {
				respErr.Message = strings.TrimSpace(string(data))
			}
		}
		return respErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, endpoint, err)
	}
	return nil
}
