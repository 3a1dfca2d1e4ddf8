package source

import (
	"math"
	"sort"
	"strconv"

	"aruskas/internal/core"
)

// Paginate applies a filter to rows held in memory the same way the REST
// backend does: category and inclusive date-range filters, newest first,
// then LIMIT/OFFSET. Rows are copied; the input is not modified.
func Paginate(rows []RawTransaction, filter core.Filter) RawPage {
	f := filter.Normalize()

	matched := make([]RawTransaction, 0, len(rows))
	for _, r := range rows {
		if f.CategoryID != "" && r.EffectiveCategoryID() != f.CategoryID {
			continue
		}
		if f.StartDate != "" || f.EndDate != "" {
			day, ok := isoDay(r.Date.String())
			if !ok {
				continue
			}
			if f.StartDate != "" && day < f.StartDate {
				continue
			}
			if f.EndDate != "" && day > f.EndDate {
				continue
			}
		}
		matched = append(matched, r)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.String() > matched[j].Date.String()
	})

	total := len(matched)
	offset := (f.Page - 1) * f.Limit
	var data []RawTransaction
	if offset < total {
		end := offset + f.Limit
		if end > total {
			end = total
		}
		data = append(data, matched[offset:end]...)
	}
	if data == nil {
		data = []RawTransaction{}
	}

	lastPage := int(math.Ceil(float64(total) / float64(f.Limit)))
	return RawPage{
		Data: data,
		Meta: RawMeta{
			Page:     Scalar(strconv.Itoa(f.Page)),
			LastPage: Scalar(strconv.Itoa(lastPage)),
			Total:    Scalar(strconv.Itoa(total)),
			Limit:    Scalar(strconv.Itoa(f.Limit)),
		},
	}
}

// SumBalance computes the backend balance over every row: amounts are summed
// by the category type ("income" or "expense"); rows whose category is unknown
// or whose amount does not parse are left out, as an inner join would.
func SumBalance(rows []RawTransaction, categories []RawCategory) RawBalance {
	types := make(map[string]string, len(categories))
	for _, c := range categories {
		types[c.ID.String()] = c.Type
	}

	var income, expense core.Money
	for _, r := range rows {
		typ := ""
		if r.Category != nil && r.Category.Type != "" {
			typ = r.Category.Type
		} else {
			typ = types[r.EffectiveCategoryID()]
		}
		m, err := core.ParseMoney(r.Amount.String())
		if err != nil {
			continue
		}
		switch typ {
		case string(core.Income):
			income = income.Add(m)
		case string(core.Expense):
			expense = expense.Add(m)
		}
	}

	return RawBalance{
		TotalIncome:  Scalar(income.Decimal().String()),
		TotalExpense: Scalar(expense.Decimal().String()),
		Balance:      Scalar(income.Sub(expense).Decimal().String()),
	}
}

// isoDay returns the leading YYYY-MM-DD of an ISO date or timestamp.
func isoDay(s string) (string, bool) {
	if len(s) < 10 {
		return "", false
	}
	day := s[:10]
	for i, r := range day {
		switch i {
		case 4, 7:
			if r != '-' {
				return "", false
			}
		default:
			if r < '0' || r > '9' {
				return "", false
			}
		}
	}
	return day, true
}
