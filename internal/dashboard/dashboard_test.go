package dashboard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"aruskas/internal/core"
	"aruskas/internal/log"
	"aruskas/internal/report"
	"aruskas/internal/source"
)

type fakeSource struct {
	mu          sync.Mutex
	pages       map[int]source.RawPage
	categories  []source.RawCategory
	balance     source.RawBalance
	txErr       error
	balanceErr  error
	block       map[int]chan struct{}
	started     chan int
	invalidated int
}

func (f *fakeSource) FetchTransactions(ctx context.Context, filter core.Filter) (source.RawPage, error) {
	f.mu.Lock()
	release := f.block[filter.Page]
	started := f.started
	page := f.pages[filter.Page]
	err := f.txErr
	f.mu.Unlock()

	if started != nil {
		started <- filter.Page
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return source.RawPage{}, ctx.Err()
		}
	}
	return page, err
}

func (f *fakeSource) FetchCategories(context.Context) ([]source.RawCategory, error) {
	return f.categories, nil
}

func (f *fakeSource) FetchBalance(context.Context) (source.RawBalance, error) {
	return f.balance, f.balanceErr
}

func (f *fakeSource) Invalidate() {
	f.mu.Lock()
	f.invalidated++
	f.mu.Unlock()
}

func scenario() *fakeSource {
	return &fakeSource{
		pages: map[int]source.RawPage{
			1: {
				Data: []source.RawTransaction{
					{ID: "1", CategoryID: "1", Amount: "5000000", Date: "2024-03-02"},
					{ID: "2", CategoryID: "2", Amount: "25000", Date: "2024-03-01"},
					{ID: "3", Amount: "10", Date: "2024-03-01"},
				},
				Meta: source.RawMeta{Page: "1", LastPage: "2", Total: "12", Limit: "10"},
			},
			2: {
				Data: []source.RawTransaction{{ID: "9", CategoryID: "2", Amount: "1000", Date: "2024-02-10"}},
				Meta: source.RawMeta{Page: "2", LastPage: "2", Total: "12", Limit: "10"},
			},
		},
		categories: []source.RawCategory{
			{ID: "1", Name: "Gaji", Type: "income"},
			{ID: "2", Name: "Makan", Type: "expense"},
		},
		balance: source.RawBalance{TotalIncome: "5000000", TotalExpense: "40000", Balance: "4960000"},
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
}

func TestRefresh_BuildsView(t *testing.T) {
	d := New(scenario(), Options{Day: report.DefaultDayOptions(), Now: fixedNow})

	v, err := d.Refresh(context.Background(), core.Filter{})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(v.Transactions) != 2 || len(v.Skipped) != 1 || v.Skipped[0].ID != "3" {
		t.Fatalf("unexpected reconcile result: %d kept, skipped %+v", len(v.Transactions), v.Skipped)
	}
	if v.Page.CurrentPage != 1 || v.Page.TotalPages != 2 || v.Page.TotalItems != 12 {
		t.Fatalf("unexpected page: %+v", v.Page)
	}
	if v.LocalSummary.Balance.Cents != 497500000 {
		t.Errorf("local balance = %d, want 497500000", v.LocalSummary.Balance.Cents)
	}
	if v.ServerSummary == nil || v.Summary != *v.ServerSummary || !v.BalanceDiverges {
		t.Errorf("server balance should be authoritative and flagged as divergent: %+v", v)
	}
	if len(v.ByCategory) != 1 || v.ByCategory[0].Name != "Makan" || v.ByCategory[0].Amount.Cents != 2500000 {
		t.Errorf("unexpected categories: %+v", v.ByCategory)
	}
	if len(v.IncomeByCategory) != 1 || v.IncomeByCategory[0].Name != "Gaji" {
		t.Errorf("unexpected income categories: %+v", v.IncomeByCategory)
	}
	if len(v.ByDay) != 2 || v.ByDay[0].Key.Key() != "2024-03-01" {
		t.Errorf("unexpected day buckets: %+v", v.ByDay)
	}
	if v.Month.Current.Summary.TotalExpense.Cents != 2500000 {
		t.Errorf("unexpected month overview: %+v", v.Month.Current)
	}
	if !v.Ready() || d.Current().Seq != v.Seq {
		t.Errorf("view was not applied")
	}
}

func TestRefresh_LocalBalance(t *testing.T) {
	d := New(scenario(), Options{Balance: BalanceLocal, Now: fixedNow})
	v, err := d.Refresh(context.Background(), core.Filter{})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if v.Summary != v.LocalSummary {
		t.Errorf("local summary should be authoritative")
	}
}

func TestRefresh_BalanceFailureFallsBack(t *testing.T) {
	src := scenario()
	src.balanceErr = &source.FetchError{Op: "balance", Status: 500, Err: errors.New("boom")}
	d := New(src, Options{Now: fixedNow})

	v, err := d.Refresh(context.Background(), core.Filter{})
	if err != nil {
		t.Fatalf("balance failures should not fail the refresh: %v", err)
	}
	if v.ServerSummary != nil || v.BalanceDiverges || v.Summary != v.LocalSummary {
		t.Errorf("expected the local summary: %+v", v)
	}
}

func TestRefresh_FetchFailureKeepsPreviousView(t *testing.T) {
	src := scenario()
	d := New(src, Options{Now: fixedNow})
	first, err := d.Refresh(context.Background(), core.Filter{})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	src.txErr = &source.FetchError{Op: "transactions", Status: 503, Err: source.ErrUnavailable}
	v, err := d.Refresh(context.Background(), core.Filter{Page: 2})
	var fe *source.FetchError
	if !errors.As(err, &fe) || !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected a FetchError, got %v", err)
	}
	if v.Seq != first.Seq || d.Current().Seq != first.Seq || len(v.Transactions) != len(first.Transactions) {
		t.Fatalf("previous view should be kept")
	}
}

func TestRefresh_StaleResultDiscarded(t *testing.T) {
	src := scenario()
	release := make(chan struct{})
	src.block = map[int]chan struct{}{1: release}
	src.started = make(chan int, 4)
	d := New(src, Options{Now: fixedNow})

	type outcome struct {
		view View
		err  error
	}
	slow := make(chan outcome, 1)
	go func() {
		v, err := d.Refresh(context.Background(), core.Filter{Page: 1})
		slow <- outcome{v, err}
	}()
	if p := <-src.started; p != 1 {
		t.Fatalf("expected the page 1 fetch first, got %d", p)
	}

	fast, err := d.Refresh(context.Background(), core.Filter{Page: 2})
	<-src.started
	if err != nil {
		t.Fatalf("newer refresh: %v", err)
	}

	close(release)
	got := <-slow
	if !errors.Is(got.err, ErrStale) {
		t.Fatalf("older refresh should be stale, got %v", got.err)
	}
	if got.view.Seq != fast.Seq || d.Current().Page.CurrentPage != 2 {
		t.Fatalf("newer view should remain applied: %+v", d.Current().Page)
	}
}

func TestReloadAndInvalidate(t *testing.T) {
	src := scenario()
	d := New(src, Options{Now: fixedNow})
	if _, err := d.Refresh(context.Background(), core.Filter{Page: 2, Limit: 10}); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	d.Invalidate()
	v, err := d.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if v.Filter.Page != 2 || src.invalidated != 1 {
		t.Fatalf("Reload should reuse the last filter: %+v, invalidated %d", v.Filter, src.invalidated)
	}
}

func TestRefresh_LogsSkips(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Component: log.ComponentApp, Output: &buf})
	d := New(scenario(), Options{Logger: logger, Now: fixedNow})
	if _, err := d.Refresh(context.Background(), core.Filter{}); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "reason=missing_category") || !strings.Contains(out, "Dashboard refreshed") {
		t.Fatalf("unexpected log output:\n%s", out)
	}
}

func TestCategories(t *testing.T) {
	got := Categories([]source.RawCategory{{ID: "1", Name: "Gaji", Type: "income"}, {ID: "0", Name: "ghost"}, {Name: "none"}})
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("unexpected categories: %+v", got)
	}
}
