package report

import "aruskas/internal/core"

// MonthOverview summarises the transactions dated in the given year and month.
func (r *Reporter) MonthOverview(txs []core.Transaction, year, month int) core.MonthOverview {
	inMonth := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date.Year() == year && int(tx.Date.Month()) == month {
			inMonth = append(inMonth, tx)
		}
	}
	return core.MonthOverview{
		Year:       year,
		Month:      month,
		Summary:    r.Summarize(inMonth),
		ByCategory: r.ByCategory(inMonth),
	}
}

// CompareMonths compares the expenses of a month with those of the month before.
func (r *Reporter) CompareMonths(txs []core.Transaction, year, month int) core.MonthComparison {
	prevYear, prevMonth := year, month-1
	if prevMonth < 1 {
		prevMonth = 12
		prevYear--
	}

	cur := r.MonthOverview(txs, year, month)
	prev := r.MonthOverview(txs, prevYear, prevMonth)

	cmp := core.MonthComparison{
		Current:  cur,
		Previous: prev,
		Change:   cur.Summary.TotalExpense.Sub(prev.Summary.TotalExpense),
	}
	if prev.Summary.TotalExpense.Cents > 0 {
		pct := float64(cmp.Change.Cents) / float64(prev.Summary.TotalExpense.Cents) * 100
		cmp.Percent = &pct
	}
	return cmp
}
