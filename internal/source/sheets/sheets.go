// Package sheets reads transactions from a Google Sheets spreadsheet and
// serves them with the REST backend's filter and paging rules.
//
// The transactions sheet needs a header row naming at least Date, Amount and
// Category; Description, Type and ID are optional. An optional categories
// sheet has ID, Name and Type columns. Without it, categories are derived from
// the transactions sheet in first-seen order.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"aruskas/internal/cache"
	"aruskas/internal/core"
	"aruskas/internal/log"
	"aruskas/internal/source"
)

// valuesReader returns the cell matrix of an A1 range.
type valuesReader interface {
	Values(ctx context.Context, rng string) ([][]any, error)
}

type Options struct {
	SpreadsheetID     string
	TransactionsSheet string
	CategoriesSheet   string // optional
	CredentialsJSON   []byte
	// CacheTTL bounds how long a read of the whole sheet is reused.
	CacheTTL time.Duration
}

type Client struct {
	reader            valuesReader
	transactionsSheet string
	categoriesSheet   string
	rows              *cache.Store[[][]any]
	logger            *log.Logger
}

var _ source.Source = (*Client)(nil)

// New creates a client authenticated with service account credentials.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if len(opts.CredentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(opts.CredentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newClient(&apiReader{svc: svc, spreadsheetID: opts.SpreadsheetID}, opts, logger), nil
}

func newClient(r valuesReader, opts Options, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	if opts.TransactionsSheet == "" {
		opts.TransactionsSheet = "Transactions"
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Client{
		reader:            r,
		transactionsSheet: opts.TransactionsSheet,
		categoriesSheet:   opts.CategoriesSheet,
		rows:              cache.New[[][]any](4, ttl),
		logger:            logger.WithComponent(log.ComponentSheets),
	}
}

// Invalidate drops cached sheet contents so the next fetch reads fresh rows.
func (c *Client) Invalidate() {
	c.rows.Purge()
}

func (c *Client) CleanExpired() int {
	return c.rows.CleanExpired()
}

func (c *Client) FetchTransactions(ctx context.Context, filter core.Filter) (source.RawPage, error) {
	items, cats, err := c.load(ctx, "transactions")
	if err != nil {
		return source.RawPage{}, err
	}
	return source.Paginate(attach(items, cats), filter), nil
}

func (c *Client) FetchCategories(ctx context.Context) ([]source.RawCategory, error) {
	_, cats, err := c.load(ctx, "categories")
	return cats, err
}

func (c *Client) FetchBalance(ctx context.Context) (source.RawBalance, error) {
	items, cats, err := c.load(ctx, "balance")
	if err != nil {
		return source.RawBalance{}, err
	}
	return source.SumBalance(items, cats), nil
}

func (c *Client) load(ctx context.Context, op string) ([]source.RawTransaction, []source.RawCategory, error) {
	txValues, err := c.read(ctx, c.transactionsSheet+"!A:F")
	if err != nil {
		return nil, nil, &source.FetchError{Op: op, Err: err}
	}
	var catValues [][]any
	if c.categoriesSheet != "" {
		if catValues, err = c.read(ctx, c.categoriesSheet+"!A:C"); err != nil {
			return nil, nil, &source.FetchError{Op: op, Err: err}
		}
	}

	cats, err := parseCategories(catValues)
	if err != nil {
		return nil, nil, &source.FetchError{Op: op, Err: err}
	}
	items, derived, err := parseTransactions(txValues, cats)
	if err != nil {
		c.logger.WarnContext(ctx, "unexpected sheet layout", log.FieldSource, c.transactionsSheet, log.FieldError, err.Error())
		return nil, nil, &source.FetchError{Op: op, Err: err}
	}
	return items, derived, nil
}

func (c *Client) read(ctx context.Context, rng string) ([][]any, error) {
	return c.rows.GetOrLoad(ctx, rng, func(ctx context.Context) ([][]any, error) {
		start := time.Now()
		values, err := c.reader.Values(ctx, rng)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rng, err)
		}
		c.logger.DebugContext(ctx, "sheet range read", "range", rng, "rows", len(values),
			log.FieldDuration, time.Since(start).Milliseconds())
		return values, nil
	})
}

// attach embeds each transaction's category object, as the backend's
// preload does, when the category is known.
func attach(items []source.RawTransaction, cats []source.RawCategory) []source.RawTransaction {
	byID := make(map[string]source.RawCategory, len(cats))
	for _, c := range cats {
		byID[c.ID.String()] = c
	}
	out := make([]source.RawTransaction, len(items))
	for i, it := range items {
		if c, ok := byID[it.CategoryID.String()]; ok {
			cc := c
			it.Category = &cc
		}
		out[i] = it
	}
	return out
}

type apiReader struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (r *apiReader) Values(ctx context.Context, rng string) ([][]any, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
