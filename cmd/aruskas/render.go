package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"aruskas/internal/core"
	"aruskas/internal/dashboard"
	"aruskas/internal/format"
	"aruskas/internal/report"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	return table
}

func render(w io.Writer, v dashboard.View, cur *format.Currency, now time.Time) {
	renderSummary(w, v, cur)
	renderCategories(w, "Expenses by category", v.ByCategory, cur)
	if len(v.IncomeByCategory) > 0 {
		renderCategories(w, "Income by category", v.IncomeByCategory, cur)
	}
	renderDays(w, v.ByDay, cur)
	renderTransactions(w, v, cur)
	renderMonth(w, v.Month, cur)

	fmt.Fprintf(w, "\nRefreshed %s", humanize.RelTime(v.RefreshedAt, now, "ago", "from now"))
	if n := len(v.Skipped); n > 0 {
		fmt.Fprintf(w, ", %s invalid record(s) left out", humanize.Comma(int64(n)))
	}
	fmt.Fprintln(w)
}

func renderSummary(w io.Writer, v dashboard.View, cur *format.Currency) {
	fmt.Fprintln(w, "Balance")
	table := newTable(w, "", "Amount")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Append([]string{"Income", cur.FormatMoney(v.Summary.TotalIncome)})
	table.Append([]string{"Expense", cur.FormatMoney(v.Summary.TotalExpense)})
	table.Append([]string{"Balance", cur.FormatMoney(v.Summary.Balance)})
	if v.BalanceDiverges && v.Summary != v.LocalSummary {
		table.Append([]string{"Balance (this page)", cur.FormatMoney(v.LocalSummary.Balance)})
	}
	table.Render()
}

func renderCategories(w io.Writer, title string, buckets []core.CategoryAmount, cur *format.Currency) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	if len(buckets) == 0 {
		fmt.Fprintln(w, "  no data")
		return
	}
	table := newTable(w, "Category", "Amount")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, b := range buckets {
		table.Append([]string{b.Name, cur.FormatMoney(b.Amount)})
	}
	table.SetFooter([]string{"Total", cur.FormatMoney(report.Total(buckets))})
	table.Render()
}

func renderDays(w io.Writer, days []core.DayBucket, cur *format.Currency) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Daily activity")
	if len(days) == 0 {
		fmt.Fprintln(w, "  no data")
		return
	}
	table := newTable(w, "Day", "Income", "Expense")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	for _, d := range days {
		table.Append([]string{d.Label, cur.FormatMoney(d.Income), cur.FormatMoney(d.Expense)})
	}
	table.Render()
}

func renderTransactions(w io.Writer, v dashboard.View, cur *format.Currency) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Transactions")
	if len(v.Transactions) == 0 {
		fmt.Fprintln(w, "  no transactions")
		return
	}
	table := newTable(w, "Date", "Category", "Description", "Amount")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, tx := range v.Transactions {
		c := v.Classifier.Classify(tx)
		table.Append([]string{format.LongDate(tx.Date), c.Label, tx.Description, cur.Signed(tx.Amount, c.Polarity)})
	}
	table.Render()

	p := v.Page
	fmt.Fprintf(w, "Page %d of %d, %s transaction(s)", p.CurrentPage, p.TotalPages, humanize.Comma(p.TotalItems))
	if p.ShowPager() {
		var hints []string
		if p.HasPrev() {
			hints = append(hints, "-page "+strconv.Itoa(p.CurrentPage-1))
		}
		if p.HasNext() {
			hints = append(hints, "-page "+strconv.Itoa(p.CurrentPage+1))
		}
		if len(hints) > 0 {
			fmt.Fprintf(w, " (%v)", hints)
		}
	}
	fmt.Fprintln(w)
}

func renderMonth(w io.Writer, m core.MonthComparison, cur *format.Currency) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: spent %s", format.MonthLabel(m.Current.Year, m.Current.Month), cur.FormatMoney(m.Current.Summary.TotalExpense))
	switch {
	case m.Percent == nil:
	case m.Change.Cents > 0:
		fmt.Fprintf(w, ", %s more than last month (+%.0f%%)", cur.FormatMoney(m.Change), *m.Percent)
	case m.Change.Cents < 0:
		fmt.Fprintf(w, ", %s less than last month (%.0f%%)", cur.FormatMoney(core.Money{Cents: -m.Change.Cents}), *m.Percent)
	default:
		fmt.Fprint(w, ", unchanged from last month")
	}
	fmt.Fprintln(w)
}
