// Package format renders amounts and dates for display.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"aruskas/internal/core"
)

const (
	DefaultSymbol = "Rp"
	DefaultLocale = "id"
)

// Currency renders amounts as whole currency units with locale grouping and a
// symbol prefix, e.g. "Rp 1.250.000". It never fails.
type Currency struct {
	symbol  string
	printer *message.Printer
}

// NewCurrency builds a formatter for the given BCP 47 locale and symbol.
// An unparseable locale falls back to DefaultLocale.
func NewCurrency(locale, symbol string) *Currency {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Indonesian
	}
	return &Currency{
		symbol:  symbol,
		printer: message.NewPrinter(tag),
	}
}

// IDR is the formatter used by the original dashboard: Indonesian grouping, "Rp" prefix.
var IDR = NewCurrency(DefaultLocale, DefaultSymbol)

// Format renders amount with no fractional digits. NaN and infinities are
// treated as zero; finite values beyond the int64 range saturate.
func (c *Currency) Format(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	amount = math.Round(amount)
	var units int64
	switch {
	case amount >= maxUnits:
		units = math.MaxInt64
	case amount < -maxUnits:
		units = math.MinInt64
	default:
		units = int64(amount)
	}
	return c.render(units)
}

// maxUnits is 2^63, the first float64 that does not fit in an int64.
const maxUnits = float64(1 << 63)

// FormatMoney renders m rounded to whole units, half away from zero.
func (c *Currency) FormatMoney(m core.Money) string {
	units := m.Cents / 100
	if rem := m.Cents % 100; rem >= 50 {
		units++
	} else if rem <= -50 {
		units--
	}
	return c.render(units)
}

func (c *Currency) render(units int64) string {
	sign := ""
	mag := uint64(units)
	if units < 0 {
		sign = "-"
		mag = uint64(-(units + 1)) + 1
	}
	prefix := c.symbol
	if prefix != "" {
		prefix += " "
	}
	return sign + prefix + c.printer.Sprintf("%d", mag)
}

// Signed renders m with a "+" or "-" prefix according to polarity, as the
// transaction table does.
func (c *Currency) Signed(m core.Money, p core.Polarity) string {
	if p == core.Income {
		return "+ " + c.FormatMoney(m)
	}
	return "- " + c.FormatMoney(m)
}
