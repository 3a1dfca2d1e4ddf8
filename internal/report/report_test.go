package report

import (
	"math/rand"
	"strconv"
	"testing"

	"aruskas/internal/classify"
	"aruskas/internal/core"
)

var (
	gaji  = &core.Category{ID: "1", Name: "Gaji", Type: "income"}
	makan = &core.Category{ID: "2", Name: "Makan", Type: "expense"}
)

func tx(id string, units int64, d core.Date, cat *core.Category) core.Transaction {
	t := core.Transaction{ID: id, Amount: core.Money{Cents: units * 100}, Date: d, Category: cat}
	if cat != nil {
		t.CategoryID = cat.ID
	}
	return t
}

func scenario() []core.Transaction {
	return []core.Transaction{
		tx("1", 50000, core.NewDate(2024, 1, 1), gaji),
		tx("2", 20000, core.NewDate(2024, 1, 1), makan),
		tx("3", 15000, core.NewDate(2024, 1, 2), makan),
	}
}

func TestScenario(t *testing.T) {
	txs := scenario()

	s := Summarize(txs)
	if s.TotalIncome.Units() != 50000 || s.TotalExpense.Units() != 35000 || s.Balance.Units() != 15000 {
		t.Fatalf("unexpected summary: %+v", s)
	}

	cats := ByCategory(txs)
	if len(cats) != 1 || cats[0].Name != "Makan" || cats[0].Amount.Units() != 35000 {
		t.Fatalf("unexpected categories: %+v", cats)
	}

	days := ByDay(txs, DayOptions{WindowSize: 2})
	if len(days) != 2 {
		t.Fatalf("expected 2 day buckets, got %d", len(days))
	}
	if days[0].Label != "1 Jan" || days[0].Income.Units() != 50000 || days[0].Expense.Units() != 20000 {
		t.Errorf("unexpected first day: %+v", days[0])
	}
	if days[1].Label != "2 Jan" || days[1].Income.Units() != 0 || days[1].Expense.Units() != 15000 {
		t.Errorf("unexpected second day: %+v", days[1])
	}
}

func TestEmptyInput(t *testing.T) {
	if got := ByCategory(nil); got == nil || len(got) != 0 {
		t.Errorf("ByCategory(nil) = %#v, want empty slice", got)
	}
	if got := ByDay(nil, DefaultDayOptions()); got == nil || len(got) != 0 {
		t.Errorf("ByDay(nil) = %#v, want empty slice", got)
	}
	if got := Summarize(nil); got != (core.Summary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero", got)
	}
}

func TestByDayWindow(t *testing.T) {
	var txs []core.Transaction
	for day := 1; day <= 10; day++ {
		txs = append(txs, tx(strconv.Itoa(day), int64(day*1000), core.NewDate(2024, 3, day), makan))
	}

	tests := []struct {
		name      string
		window    int
		wantLen   int
		wantFirst string
	}{
		{"default window keeps last seven", DefaultWindow, 7, "4 Mar"},
		{"window larger than days", 30, 10, "1 Mar"},
		{"window of one", 1, 1, "10 Mar"},
		{"zero window", 0, 0, ""},
		{"negative window", -3, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ByDay(txs, DayOptions{WindowSize: tt.window})
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].Label != tt.wantFirst {
				t.Errorf("first label = %q, want %q", got[0].Label, tt.wantFirst)
			}
		})
	}
}

func TestByDayOrdering(t *testing.T) {
	// Pages arrive newest first.
	txs := []core.Transaction{
		tx("3", 300, core.NewDate(2024, 1, 3), makan),
		tx("2", 200, core.NewDate(2024, 1, 2), makan),
		tx("1", 100, core.NewDate(2024, 1, 1), makan),
		tx("4", 50, core.NewDate(2024, 1, 3), gaji),
	}

	chrono := ByDay(txs, DayOptions{WindowSize: 2, Order: OrderChronological})
	if len(chrono) != 2 || chrono[0].Label != "2 Jan" || chrono[1].Label != "3 Jan" {
		t.Fatalf("chronological window should keep the two most recent days: %+v", chrono)
	}
	if chrono[1].Income.Units() != 50 || chrono[1].Expense.Units() != 300 {
		t.Errorf("duplicate day keys should merge: %+v", chrono[1])
	}

	insertion := ByDay(txs, DayOptions{WindowSize: 2, Order: OrderInsertion})
	if len(insertion) != 2 || insertion[0].Label != "2 Jan" || insertion[1].Label != "1 Jan" {
		t.Fatalf("insertion window should keep the last two first-seen days: %+v", insertion)
	}
}

func TestByDayDoesNotAliasInput(t *testing.T) {
	txs := scenario()
	before := append([]core.Transaction(nil), txs...)
	out := ByDay(txs, DayOptions{WindowSize: 1})
	out[0].Label = "changed"
	for i := range txs {
		if txs[i].ID != before[i].ID || txs[i].Amount != before[i].Amount {
			t.Fatalf("input modified at %d", i)
		}
	}
	if again := ByDay(txs, DayOptions{WindowSize: 1}); again[0].Label == "changed" {
		t.Fatalf("results must be fresh on every call")
	}
}

func TestParseDayOrder(t *testing.T) {
	for in, want := range map[string]DayOrder{"": OrderChronological, "chronological": OrderChronological, "insertion": OrderInsertion} {
		got, err := ParseDayOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseDayOrder(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDayOrder("random"); err == nil {
		t.Errorf("expected error for unknown order")
	}
}

func TestByCategoryFirstSeenOrder(t *testing.T) {
	transport := &core.Category{ID: "5", Name: "Transport", Type: "expense"}
	txs := []core.Transaction{
		tx("1", 10, core.NewDate(2024, 1, 1), transport),
		tx("2", 20, core.NewDate(2024, 1, 1), makan),
		tx("3", 30, core.NewDate(2024, 1, 2), transport),
		{ID: "4", CategoryID: "404", Amount: core.Money{Cents: 700}, Date: core.NewDate(2024, 1, 2)},
		tx("5", 99, core.NewDate(2024, 1, 2), gaji),
	}
	got := ByCategory(txs)
	want := []core.CategoryAmount{
		{Name: "Transport", Amount: core.Money{Cents: 4000}},
		{Name: "Makan", Amount: core.Money{Cents: 2000}},
		{Name: core.UncategorizedLabel, Amount: core.Money{Cents: 700}},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	income := New(nil).ByCategoryFor(txs, core.Income)
	if len(income) != 1 || income[0].Name != "Gaji" {
		t.Errorf("unexpected income breakdown: %+v", income)
	}
}

func TestReporterUsesClassifierIndex(t *testing.T) {
	r := New(classify.New([]core.Category{*gaji, *makan}))
	txs := []core.Transaction{
		{ID: "1", CategoryID: "1", Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 1, 1)},
		{ID: "2", CategoryID: "2", Amount: core.Money{Cents: 40}, Date: core.NewDate(2024, 1, 1)},
	}
	s := r.Summarize(txs)
	if s.TotalIncome.Cents != 100 || s.TotalExpense.Cents != 40 || s.Balance.Cents != 60 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if cats := r.ByCategory(txs); len(cats) != 1 || cats[0].Name != "Makan" {
		t.Fatalf("unexpected categories: %+v", cats)
	}
}

func TestProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cats := []*core.Category{
		gaji, makan,
		{ID: "3", Name: "Transport", Type: "expense"},
		{ID: "4", Name: "Bonus", Type: "income"},
		{ID: "5", Name: "Aneh", Type: "unknown"},
		nil,
	}

	for round := 0; round < 50; round++ {
		n := rng.Intn(40)
		txs := make([]core.Transaction, 0, n)
		for i := 0; i < n; i++ {
			x := core.Transaction{
				ID:     strconv.Itoa(i),
				Amount: core.Money{Cents: 1 + rng.Int63n(10_000_000)},
				Date:   core.NewDate(2024, 1+rng.Intn(2), 1+rng.Intn(28)),
			}
			if c := cats[rng.Intn(len(cats))]; c != nil {
				x.Category = c
				x.CategoryID = c.ID
			} else {
				x.CategoryID = "missing"
			}
			txs = append(txs, x)
		}

		s := Summarize(txs)
		if s.Balance != s.TotalIncome.Sub(s.TotalExpense) {
			t.Fatalf("round %d: balance identity broken: %+v", round, s)
		}

		var expenses []core.Transaction
		for _, x := range txs {
			if classify.Default.Polarity(x) == core.Expense {
				expenses = append(expenses, x)
			}
		}
		if got, want := Total(ByCategory(txs)), Summarize(expenses).TotalExpense; got != want {
			t.Fatalf("round %d: category total %d != expense total %d", round, got.Cents, want.Cents)
		}

		window := 1 + rng.Intn(10)
		var dayTotal core.Money
		for _, b := range ByDay(txs, DayOptions{WindowSize: window}) {
			dayTotal = dayTotal.Add(b.Income).Add(b.Expense)
		}
		all := s.TotalIncome.Add(s.TotalExpense)
		if dayTotal.Cents > all.Cents {
			t.Fatalf("round %d: day total %d exceeds overall %d", round, dayTotal.Cents, all.Cents)
		}

		var full core.Money
		for _, b := range ByDay(txs, DayOptions{WindowSize: 1000}) {
			full = full.Add(b.Income).Add(b.Expense)
		}
		if full != all {
			t.Fatalf("round %d: full window %d != overall %d", round, full.Cents, all.Cents)
		}
	}
}

func TestMonthOverviewAndComparison(t *testing.T) {
	txs := []core.Transaction{
		tx("1", 100, core.NewDate(2024, 1, 5), makan),
		tx("2", 300, core.NewDate(2024, 2, 5), makan),
		tx("3", 1000, core.NewDate(2024, 2, 1), gaji),
		tx("4", 50, core.NewDate(2023, 12, 31), makan),
	}
	r := New(nil)

	feb := r.MonthOverview(txs, 2024, 2)
	if feb.Summary.TotalExpense.Units() != 300 || feb.Summary.TotalIncome.Units() != 1000 {
		t.Fatalf("unexpected february: %+v", feb)
	}
	if len(feb.ByCategory) != 1 || feb.ByCategory[0].Name != "Makan" {
		t.Fatalf("unexpected february categories: %+v", feb.ByCategory)
	}

	cmp := r.CompareMonths(txs, 2024, 2)
	if cmp.Change.Units() != 200 || cmp.Percent == nil || *cmp.Percent != 200 {
		t.Fatalf("unexpected comparison: %+v", cmp)
	}

	jan := r.CompareMonths(txs, 2024, 1)
	if jan.Previous.Year != 2023 || jan.Previous.Month != 12 || jan.Change.Units() != 50 {
		t.Fatalf("january should compare with december: %+v", jan)
	}

	empty := r.CompareMonths(txs, 2025, 6)
	if empty.Percent != nil {
		t.Fatalf("percent should be nil without previous expenses")
	}
}
