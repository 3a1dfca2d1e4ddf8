// Package reconcile turns a raw backend page into validated domain
// transactions and page metadata.
//
// A record is excluded, never repaired, when its category link is missing,
// its amount is not a positive finite number, or its date does not parse.
// Exclusions are reported back to the caller as Skip values.
package reconcile

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"aruskas/internal/core"
	"aruskas/internal/log"
	"aruskas/internal/source"
)

const (
	SkipMissingCategory = "missing_category"
	SkipInvalidAmount   = "invalid_amount"
	SkipInvalidDate     = "invalid_date"
)

// Options controls how calendar days are derived from timestamps.
type Options struct {
	// Location is the zone a timestamp is converted to before its day is
	// taken. Nil means UTC. Date-only values are never shifted.
	Location *time.Location
	Logger   *log.Logger
}

// Skip describes one excluded record.
type Skip struct {
	Index  int
	ID     string
	Reason string
}

// Result is the outcome of reconciling a single page.
type Result struct {
	Clean   []core.Transaction
	Page    core.PageMetadata
	Skipped []Skip
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Reconcile validates every record of page and reads its metadata. The clean
// list keeps the page order and never aliases the raw input.
func Reconcile(ctx context.Context, page source.RawPage, opts Options) Result {
	res := Result{
		Clean: make([]core.Transaction, 0, len(page.Data)),
		Page:  ParseMeta(page.Meta),
	}

	for i, raw := range page.Data {
		tx, reason := convert(raw, opts.Location)
		if reason != "" {
			res.Skipped = append(res.Skipped, Skip{Index: i, ID: raw.ID.String(), Reason: reason})
			continue
		}
		res.Clean = append(res.Clean, tx)
	}

	if opts.Logger != nil {
		for _, s := range res.Skipped {
			opts.Logger.DebugContext(ctx, "transaction skipped",
				log.FieldIndex, s.Index, log.FieldTxID, s.ID, log.FieldReason, s.Reason)
		}
		opts.Logger.DebugContext(ctx, "page reconciled",
			append(log.NewFields().WithPage(res.Page).ToSlice(),
				log.FieldKept, len(res.Clean), log.FieldSkipped, len(res.Skipped))...)
	}
	return res
}

// Sanitize re-checks already clean transactions and drops any that fail
// validation. Applying it twice yields the same list.
func Sanitize(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Validate() != nil {
			continue
		}
		if tx.Category != nil {
			c := *tx.Category
			tx.Category = &c
		}
		out = append(out, tx)
	}
	return out
}

func convert(raw source.RawTransaction, loc *time.Location) (core.Transaction, string) {
	if !raw.HasCategoryLink() {
		return core.Transaction{}, SkipMissingCategory
	}
	amount, err := core.ParseMoney(raw.Amount.String())
	if err != nil {
		return core.Transaction{}, SkipInvalidAmount
	}
	date, err := ParseDate(raw.Date.String(), loc)
	if err != nil {
		return core.Transaction{}, SkipInvalidDate
	}

	tx := core.Transaction{
		ID:          raw.ID.String(),
		CategoryID:  raw.EffectiveCategoryID(),
		Amount:      amount,
		Date:        date,
		Description: strings.TrimSpace(raw.Description),
	}
	if c := raw.Category; c != nil && strings.TrimSpace(c.Name) != "" {
		id := c.ID.String()
		if c.ID.IsZero() {
			id = tx.CategoryID
		}
		tx.Category = &core.Category{ID: id, Name: strings.TrimSpace(c.Name), Type: c.Type}
	}
	return tx, ""
}

// ParseDate reads the calendar day of an ISO date or timestamp. Timestamps
// carrying an offset are converted to loc first; plain dates are taken as is.
func ParseDate(s string, loc *time.Location) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, core.ErrInvalidDate
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return core.DateOf(t), nil
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		return core.DateOf(t.In(loc)), nil
	}
	return core.Date{}, core.ErrInvalidDate
}

// ParseMeta reads the page envelope. A missing or unusable page defaults to
// 1, total pages to 1 (also when the backend reports 0 for an empty result),
// and total items to 0.
func ParseMeta(m source.RawMeta) core.PageMetadata {
	meta := core.PageMetadata{
		CurrentPage: intOr(m.Page, 1),
		TotalPages:  intOr(m.LastPage, 1),
		TotalItems:  int64(intOr(m.Total, 0)),
		Limit:       intOr(m.Limit, core.DefaultPageLimit),
	}
	if meta.CurrentPage < 1 {
		meta.CurrentPage = 1
	}
	if meta.TotalPages < 1 {
		meta.TotalPages = 1
	}
	if meta.TotalItems < 0 {
		meta.TotalItems = 0
	}
	if meta.Limit < 1 {
		meta.Limit = core.DefaultPageLimit
	}
	return meta
}

// ErrInvalidBalance is returned when a balance figure is not a number.
var ErrInvalidBalance = errors.New("invalid balance")

// ParseBalance reads the backend's balance figures. Unlike transaction
// amounts these are signed and may be zero.
func ParseBalance(b source.RawBalance) (core.Summary, error) {
	income, err := signedMoney(b.TotalIncome)
	if err != nil {
		return core.Summary{}, err
	}
	expense, err := signedMoney(b.TotalExpense)
	if err != nil {
		return core.Summary{}, err
	}
	balance := income.Sub(expense)
	if b.Balance != "" {
		if balance, err = signedMoney(b.Balance); err != nil {
			return core.Summary{}, err
		}
	}
	return core.Summary{TotalIncome: income, TotalExpense: expense, Balance: balance}, nil
}

func signedMoney(s source.Scalar) (core.Money, error) {
	if s == "" {
		return core.Money{}, nil
	}
	d, err := decimal.NewFromString(s.String())
	if err != nil {
		return core.Money{}, ErrInvalidBalance
	}
	return core.Money{Cents: d.Shift(2).Round(0).IntPart()}, nil
}

func intOr(s source.Scalar, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s.String()); err == nil {
		return n
	}
	// JSON numbers such as 3.0 or 1e1 arrive as float literals.
	if f, err := strconv.ParseFloat(s.String(), 64); err == nil && f == f && f < 1<<31 && f > -(1<<31) {
		return int(f)
	}
	return def
}
