package report

import "aruskas/internal/core"

// Summarize reduces the collection to total income, total expense and their
// difference, in input order.
func (r *Reporter) Summarize(txs []core.Transaction) core.Summary {
	var s core.Summary
	for _, tx := range txs {
		if r.cls.Polarity(tx) == core.Income {
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		} else {
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}
