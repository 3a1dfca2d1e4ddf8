package format

import (
	"math"
	"testing"

	"aruskas/internal/core"
)

func TestCurrencyFormat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "Rp 0"},
		{999, "Rp 999"},
		{50000, "Rp 50.000"},
		{1250000, "Rp 1.250.000"},
		{15000.4, "Rp 15.000"},
		{15000.5, "Rp 15.001"},
		{-15000, "-Rp 15.000"},
		{math.NaN(), "Rp 0"},
		{math.Inf(1), "Rp 0"},
		{math.Inf(-1), "Rp 0"},
		{1e19, "Rp 9.223.372.036.854.775.807"},
		{1e300, "Rp 9.223.372.036.854.775.807"},
		{-1e300, "-Rp 9.223.372.036.854.775.808"},
		{-9223372036854775808, "-Rp 9.223.372.036.854.775.808"},
	}
	for _, tt := range tests {
		if got := IDR.Format(tt.in); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCurrencyFormatMoney(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{5000000, "Rp 50.000"},
		{149, "Rp 1"},
		{150, "Rp 2"},
		{-150, "-Rp 2"},
		{-1500000, "-Rp 15.000"},
		{math.MinInt64, "-Rp 92.233.720.368.547.758"},
	}
	for _, tt := range tests {
		if got := IDR.FormatMoney(core.Money{Cents: tt.cents}); got != tt.want {
			t.Errorf("FormatMoney(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestCurrencyCustomSymbolAndLocale(t *testing.T) {
	c := NewCurrency("en", "$")
	if got := c.Format(1234567); got != "$ 1,234,567" {
		t.Fatalf("unexpected english format: %q", got)
	}
	bad := NewCurrency("not a locale!", "Rp")
	if got := bad.Format(50000); got != "Rp 50.000" {
		t.Fatalf("bad locale should fall back to Indonesian, got %q", got)
	}
}

func TestSigned(t *testing.T) {
	m := core.Money{Cents: 2000000}
	if got := IDR.Signed(m, core.Income); got != "+ Rp 20.000" {
		t.Errorf("income: %q", got)
	}
	if got := IDR.Signed(m, core.Expense); got != "- Rp 20.000" {
		t.Errorf("expense: %q", got)
	}
}

func TestDateLabels(t *testing.T) {
	d := core.NewDate(2024, 1, 1)
	if got := DayLabel(d); got != "1 Jan" {
		t.Errorf("DayLabel = %q", got)
	}
	if got := DayLabel(core.NewDate(2024, 8, 17)); got != "17 Agu" {
		t.Errorf("DayLabel = %q", got)
	}
	if got := LongDate(d); got != "1 Januari 2024" {
		t.Errorf("LongDate = %q", got)
	}
	if got := MonthLabel(2024, 5); got != "Mei 2024" {
		t.Errorf("MonthLabel = %q", got)
	}
	if DayLabel(core.Date{}) != "" {
		t.Errorf("zero date should render empty")
	}
}
