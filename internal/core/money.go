// Package core holds the domain types shared by the reporting engine.
//
// Amounts are kept as integer cents so that summation is exact and does not
// depend on iteration order. Parsing from decimal text happens once, at the
// sanitation boundary, through ParseMoney and MoneyFromDecimal.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var maxUnits = decimal.New(math.MaxInt64/100, 0)

// ParseMoney converts a decimal string to Money with half-up rounding to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Values that
// are not numbers, are negative, or round to zero cents are rejected with
// ErrInvalidAmount.
//
// Examples:
//
//	ParseMoney("50000")    -> 5000000 cents
//	ParseMoney("12,345")   -> 1235 cents
//	ParseMoney("0.004")    -> ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal rounds d to cents and requires a strictly positive result.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.GreaterThan(maxUnits) {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0).IntPart()
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Units returns the value in whole currency units for display purposes.
// Use cents for calculations.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Decimal returns the exact decimal value in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}
