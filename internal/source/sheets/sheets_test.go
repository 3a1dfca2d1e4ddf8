package sheets

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"aruskas/internal/core"
	"aruskas/internal/reconcile"
	"aruskas/internal/report"
	"aruskas/internal/source"
)

type fakeReader struct {
	mu     sync.Mutex
	ranges map[string][][]any
	err    error
	calls  int
}

func (f *fakeReader) Values(_ context.Context, rng string) ([][]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.ranges[rng], nil
}

func scenarioReader() *fakeReader {
	return &fakeReader{ranges: map[string][][]any{
		"Transactions!A:F": {
			{"Date", "Description", "Amount", "Category", "Type"},
			{"2024-01-01", "Gaji Januari", 50000.0, "Gaji", "income"},
			{"2024-01-01", "Makan siang", 20000.0, "Makan", "expense"},
			{},
			{"2024-01-02", "Tanpa kategori", 1000.0, "", ""},
			{"2024-01-03", "Bonus", 1500000.0, "gaji", "income"},
		},
	}}
}

func TestParseTransactionsDerivesCategories(t *testing.T) {
	r := scenarioReader()
	items, cats, err := parseTransactions(r.ranges["Transactions!A:F"], nil)
	if err != nil {
		t.Fatalf("parseTransactions: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("blank rows should be dropped, got %d items", len(items))
	}
	if len(cats) != 2 || cats[0].Name != "Gaji" || cats[0].Type != "income" || cats[1].Name != "Makan" {
		t.Fatalf("unexpected derived categories: %+v", cats)
	}
	if items[3].CategoryID != cats[0].ID {
		t.Fatalf("category names should match case-insensitively: %+v", items[3])
	}
	if items[3].Amount != "1500000" {
		t.Fatalf("large amounts must not use exponent form, got %q", items[3].Amount)
	}
	if items[2].CategoryID != "" || items[0].ID != "2" {
		t.Fatalf("unexpected ids: %+v", items)
	}
}

func TestParseTransactionsWithCategorySheet(t *testing.T) {
	cats, err := parseCategories([][]any{
		{"ID", "Name", "Type"},
		{7.0, "Gaji", "Income"},
		{"", "# comment", ""},
		{9.0, "Makan", "expense"},
	})
	if err != nil {
		t.Fatalf("parseCategories: %v", err)
	}
	if len(cats) != 2 || cats[0].ID != "7" || cats[0].Type != "income" {
		t.Fatalf("unexpected categories: %+v", cats)
	}

	items, known, err := parseTransactions([][]any{
		{"Date", "Amount", "Category"},
		{"2024-01-01", 10.0, 9.0},
		{"2024-01-01", 10.0, "Listrik"},
	}, cats)
	if err != nil {
		t.Fatalf("parseTransactions: %v", err)
	}
	if items[0].CategoryID != "9" {
		t.Fatalf("numeric category reference should resolve by id, got %q", items[0].CategoryID)
	}
	if len(known) != 3 || known[2].Name != "Listrik" || known[2].ID == "7" || known[2].ID == "9" {
		t.Fatalf("new category needs a fresh id: %+v", known)
	}
}

func TestParseTransactionsSkipsCommentRows(t *testing.T) {
	tests := []struct {
		name string
		row  []any
	}{
		{"comment in first column", []any{"# imported from bank export", "", "", ""}},
		{"comment after empty cells", []any{"", "", "#todo", "Listrik"}},
		{"comment in category column", []any{"", "", "", "# Listrik"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, known, err := parseTransactions([][]any{
				{"Date", "Description", "Amount", "Category"},
				tt.row,
				{"2024-01-01", "Makan siang", 25000.0, "Makan"},
			}, nil)
			if err != nil {
				t.Fatalf("parseTransactions: %v", err)
			}
			if len(items) != 1 || items[0].Description != "Makan siang" {
				t.Fatalf("comment row should not become a transaction: %+v", items)
			}
			if len(known) != 1 || known[0].Name != "Makan" {
				t.Fatalf("comment row should not create a category: %+v", known)
			}
		})
	}
}

func TestParseTransactionsHeaderErrors(t *testing.T) {
	_, _, err := parseTransactions([][]any{{"When", "Amount"}}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing Date,Category") {
		t.Fatalf("expected a header error, got %v", err)
	}
	if _, err := parseCategories([][]any{{"ID", "Label"}}); err == nil {
		t.Fatalf("expected a categories header error")
	}
}

func TestClientScenario(t *testing.T) {
	r := scenarioReader()
	c := newClient(r, Options{}, nil)
	ctx := context.Background()

	page, err := c.FetchTransactions(ctx, core.Filter{StartDate: "2024-01-01", EndDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("FetchTransactions: %v", err)
	}
	res := reconcile.Reconcile(ctx, page, reconcile.Options{})
	sum := report.Summarize(res.Clean)
	if sum.TotalIncome.Cents != 5_000_000 || sum.TotalExpense.Cents != 2_000_000 {
		t.Fatalf("unexpected summary: %+v (skipped %+v)", sum, res.Skipped)
	}

	bal, err := c.FetchBalance(ctx)
	if err != nil {
		t.Fatalf("FetchBalance: %v", err)
	}
	if bal.TotalIncome != "1550000" || bal.TotalExpense != "20000" {
		t.Fatalf("unexpected balance: %+v", bal)
	}

	if r.calls != 1 {
		t.Fatalf("sheet reads should be cached, got %d calls", r.calls)
	}
	c.Invalidate()
	if _, err := c.FetchCategories(ctx); err != nil {
		t.Fatalf("FetchCategories: %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("Invalidate should force a fresh read, got %d calls", r.calls)
	}
}

func TestClientFetchError(t *testing.T) {
	boom := errors.New("quota exceeded")
	c := newClient(&fakeReader{err: boom}, Options{}, nil)

	_, err := c.FetchTransactions(context.Background(), core.Filter{})
	var fe *source.FetchError
	if !errors.As(err, &fe) || fe.Op != "transactions" || !errors.Is(err, boom) {
		t.Fatalf("expected FetchError wrapping the API error, got %v", err)
	}
}

func TestNewRequiresSettings(t *testing.T) {
	if _, err := New(context.Background(), Options{}, nil); err == nil {
		t.Fatalf("expected missing spreadsheet id error")
	}
	if _, err := New(context.Background(), Options{SpreadsheetID: "x"}, nil); err == nil {
		t.Fatalf("expected missing credentials error")
	}
}
