package core

import (
	"errors"
	"time"
)

const (
	Income  Polarity = "income"
	Expense Polarity = "expense"

	// UncategorizedLabel is the label used when a transaction's category cannot be resolved.
	UncategorizedLabel = "Uncategorized"

	// DefaultPageLimit matches the backend's default page size.
	DefaultPageLimit = 10
)

type (
	Polarity string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID   string
		Name string
		Type string // "income" or "expense" as received; see classify for coercion
	}

	// Transaction is a validated, page-scoped copy of a backend transaction.
	Transaction struct {
		ID          string
		CategoryID  string
		Category    *Category // resolved link, nil when the link is broken
		Amount      Money
		Date        Date
		Description string
	}

	// Classification is the effective label and polarity of a transaction.
	Classification struct {
		Label    string
		Polarity Polarity
	}

	// Filter is the page/filter state requested from a data source.
	Filter struct {
		CategoryID string
		StartDate  string // YYYY-MM-DD, inclusive
		EndDate    string // YYYY-MM-DD, inclusive
		Page       int
		Limit      int
	}

	PageMetadata struct {
		CurrentPage int
		TotalPages  int
		TotalItems  int64
		Limit       int
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrMissingCategory = errors.New("missing category")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Key returns the ISO form (YYYY-MM-DD) used for bucket keys and filters.
func (d Date) Key() string {
	return d.Format("2006-01-02")
}

func (p Polarity) Valid() bool {
	return p == Income || p == Expense
}

func (t Transaction) Validate() error {
	if t.CategoryID == "" && t.Category == nil {
		return ErrMissingCategory
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.Date.Validate()
}

// Normalize applies the backend's defaults: page 1 and a limit of 10.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	return f
}

// HasPrev reports whether a previous page exists.
func (p PageMetadata) HasPrev() bool {
	return p.CurrentPage > 1
}

// HasNext reports whether a following page exists.
func (p PageMetadata) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}

// ShowPager reports whether pagination controls are worth showing at all.
func (p PageMetadata) ShowPager() bool {
	return p.TotalPages > 1
}
