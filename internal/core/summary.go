package core

// CategoryAmount represents an amount aggregated by category label.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// DayBucket holds parallel income and expense totals for one calendar day.
type DayBucket struct {
	Key     Date
	Label   string // short display label, e.g. "1 Jan"
	Income  Money
	Expense Money
}

// Summary is the running total over a transaction collection.
// Balance may be negative.
type Summary struct {
	TotalIncome  Money
	TotalExpense Money
	Balance      Money
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Summary    Summary
	ByCategory []CategoryAmount // expenses only
}

// MonthComparison compares the expenses of two months.
type MonthComparison struct {
	Current  MonthOverview
	Previous MonthOverview
	Change   Money    // current expense minus previous expense
	Percent  *float64 // nil when the previous month had no expenses
}
