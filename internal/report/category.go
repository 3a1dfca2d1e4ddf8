package report

import "aruskas/internal/core"

// ByCategory sums expense amounts by category label. Buckets appear in the
// order their label is first seen. Empty input yields an empty slice.
func (r *Reporter) ByCategory(txs []core.Transaction) []core.CategoryAmount {
	return r.ByCategoryFor(txs, core.Expense)
}

// ByCategoryFor is ByCategory restricted to the given polarity.
func (r *Reporter) ByCategoryFor(txs []core.Transaction, polarity core.Polarity) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0)
	pos := make(map[string]int)
	for _, tx := range txs {
		c := r.cls.Classify(tx)
		if c.Polarity != polarity {
			continue
		}
		i, ok := pos[c.Label]
		if !ok {
			i = len(out)
			pos[c.Label] = i
			out = append(out, core.CategoryAmount{Name: c.Label})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}
	return out
}

// Total sums the amounts of a category breakdown.
func Total(buckets []core.CategoryAmount) core.Money {
	var total core.Money
	for _, b := range buckets {
		total = total.Add(b.Amount)
	}
	return total
}
