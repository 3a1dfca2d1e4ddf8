// Package httpapi is the data source for the finance REST backend.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"aruskas/internal/cache"
	"aruskas/internal/core"
	"aruskas/internal/log"
	"aruskas/internal/source"
	"aruskas/internal/trace"
)

const (
	categoriesKey = "categories"
	maxErrorBody  = 512
)

type Options struct {
	BaseURL          string // e.g. http://localhost:3000/api
	Token            string // sent as a Bearer token when set
	Timeout          time.Duration
	CategoryCacheTTL time.Duration // 0 disables caching
	HTTPClient       *http.Client // defaults to a client with a tracing transport
}

type Client struct {
	base       *url.URL
	token      string
	httpClient *http.Client
	categories *cache.Store[[]source.RawCategory]
	logger     *log.Logger
}

var _ source.Source = (*Client)(nil)

func New(opts Options, logger *log.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", base.Scheme)
	}
	if logger == nil {
		logger = log.Discard()
	}
	hc := opts.HTTPClient
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger = logger.WithComponent(log.ComponentHTTPAPI)
	if hc == nil {
		hc = &http.Client{Timeout: timeout, Transport: trace.NewTransport(nil, logger)}
	}
	c := &Client{
		base:       base,
		token:      opts.Token,
		httpClient: hc,
		logger:     logger,
	}
	if opts.CategoryCacheTTL > 0 {
		c.categories = cache.New[[]source.RawCategory](1, opts.CategoryCacheTTL)
	}
	return c, nil
}

// Invalidate forgets the cached category list.
func (c *Client) Invalidate() {
	if c.categories != nil {
		c.categories.Purge()
	}
}

// CleanExpired drops an expired category list.
func (c *Client) CleanExpired() int {
	if c.categories == nil {
		return 0
	}
	return c.categories.CleanExpired()
}

func (c *Client) FetchTransactions(ctx context.Context, filter core.Filter) (source.RawPage, error) {
	f := filter.Normalize()
	q := url.Values{}
	if f.CategoryID != "" {
		q.Set("category_id", f.CategoryID)
	}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("limit", strconv.Itoa(f.Limit))

	var page source.RawPage
	if err := c.get(ctx, "transactions", "/transactions", q, &page); err != nil {
		return source.RawPage{}, err
	}
	if page.Data == nil {
		page.Data = []source.RawTransaction{}
	}
	return page, nil
}

func (c *Client) FetchCategories(ctx context.Context) ([]source.RawCategory, error) {
	load := func(ctx context.Context) ([]source.RawCategory, error) {
		var body struct {
			Categories []source.RawCategory `json:"categories"`
		}
		if err := c.get(ctx, "categories", "/categories", nil, &body); err != nil {
			return nil, err
		}
		if body.Categories == nil {
			body.Categories = []source.RawCategory{}
		}
		c.logger.DebugContext(ctx, "categories loaded", log.FieldOperation, log.OpFetch, "count", len(body.Categories))
		return body.Categories, nil
	}
	if c.categories == nil {
		return load(ctx)
	}
	cats, err := c.categories.GetOrLoad(ctx, categoriesKey, load)
	if err != nil {
		return nil, err
	}
	return append([]source.RawCategory(nil), cats...), nil
}

func (c *Client) FetchBalance(ctx context.Context) (source.RawBalance, error) {
	var bal source.RawBalance
	if err := c.get(ctx, "balance", "/transactions/balance", nil, &bal); err != nil {
		return source.RawBalance{}, err
	}
	return bal, nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()

	ctx, requestID := trace.Ensure(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &source.FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(trace.HeaderRequestID, requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &source.FetchError{Op: op, Err: fmt.Errorf("%w: %v", source.ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &source.FetchError{Op: op, Status: resp.StatusCode, Err: errorBody(resp)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &source.FetchError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorBody extracts the backend's {"error": "..."} message when present.
func errorBody(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		return errors.New(body.Error)
	}
	if msg := strings.TrimSpace(string(b)); msg != "" {
		return errors.New(msg)
	}
	return errors.New(http.StatusText(resp.StatusCode))
}
