// Package report turns a sanitised transaction collection into the derived
// views behind the summary cards and charts: a balance summary, per-category
// totals and a per-day income/expense series.
//
// Every function is pure. Inputs are never modified and outputs never alias
// them, so callers may re-run a report on every state change and discard
// stale results freely.
package report

import (
	"aruskas/internal/classify"
	"aruskas/internal/core"
)

// Reporter runs the aggregations with a specific classifier.
type Reporter struct {
	cls *classify.Classifier
}

// New returns a Reporter that classifies through cls. A nil classifier uses
// classify.Default.
func New(cls *classify.Classifier) *Reporter {
	if cls == nil {
		cls = classify.Default
	}
	return &Reporter{cls: cls}
}

var defaultReporter = New(nil)

// ByCategory groups expense transactions by category label using classify.Default.
func ByCategory(txs []core.Transaction) []core.CategoryAmount {
	return defaultReporter.ByCategory(txs)
}

// ByDay groups transactions by calendar day using classify.Default.
func ByDay(txs []core.Transaction, opts DayOptions) []core.DayBucket {
	return defaultReporter.ByDay(txs, opts)
}

// Summarize reduces transactions to income, expense and balance using classify.Default.
func Summarize(txs []core.Transaction) core.Summary {
	return defaultReporter.Summarize(txs)
}
