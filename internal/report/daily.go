package report

import (
	"fmt"
	"sort"

	"aruskas/internal/core"
	"aruskas/internal/format"
)

// DefaultWindow is the number of most recent days shown by the day chart.
const DefaultWindow = 7

// DayOrder decides how day buckets are ordered before windowing.
type DayOrder string

const (
	// OrderChronological sorts buckets by calendar day, oldest first.
	OrderChronological DayOrder = "chronological"
	// OrderInsertion keeps buckets in the order their day was first seen in
	// the input. With a date-descending page this does not yield the most
	// recent days; it exists for parity with older dashboards.
	OrderInsertion DayOrder = "insertion"
)

// ParseDayOrder accepts "chronological" or "insertion"; empty means chronological.
func ParseDayOrder(s string) (DayOrder, error) {
	switch DayOrder(s) {
	case "", OrderChronological:
		return OrderChronological, nil
	case OrderInsertion:
		return OrderInsertion, nil
	default:
		return "", fmt.Errorf("invalid day order %q: must be %q or %q", s, OrderChronological, OrderInsertion)
	}
}

type DayOptions struct {
	// WindowSize keeps only the last N buckets. Zero or negative yields no buckets.
	WindowSize int
	Order      DayOrder
}

// DefaultDayOptions returns a 7 day chronological window.
func DefaultDayOptions() DayOptions {
	return DayOptions{WindowSize: DefaultWindow, Order: OrderChronological}
}

// ByDay accumulates income and expense per calendar day, orders the buckets
// and returns the last opts.WindowSize of them.
func (r *Reporter) ByDay(txs []core.Transaction, opts DayOptions) []core.DayBucket {
	out := make([]core.DayBucket, 0)
	if opts.WindowSize <= 0 || len(txs) == 0 {
		return out
	}

	pos := make(map[string]int)
	for _, tx := range txs {
		key := tx.Date.Key()
		i, ok := pos[key]
		if !ok {
			i = len(out)
			pos[key] = i
			out = append(out, core.DayBucket{Key: tx.Date, Label: format.DayLabel(tx.Date)})
		}
		if r.cls.Polarity(tx) == core.Income {
			out[i].Income = out[i].Income.Add(tx.Amount)
		} else {
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		}
	}

	if opts.Order != OrderInsertion {
		sort.SliceStable(out, func(a, b int) bool {
			return out[a].Key.Before(out[b].Key.Time)
		})
	}

	if len(out) > opts.WindowSize {
		out = append([]core.DayBucket(nil), out[len(out)-opts.WindowSize:]...)
	}
	return out
}
