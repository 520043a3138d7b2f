// Package types provides common type aliases and money arithmetic helpers.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// VAT rates used by the commission splitter. The divisors un-gross a
// commission that already includes its VAT.
var (
	RateVAT21  = decimal.NewFromFloat(0.21)
	RateVAT105 = decimal.NewFromFloat(0.105)

	GrossFactor21  = decimal.NewFromFloat(1.21)
	GrossFactor105 = decimal.NewFromFloat(1.105)
)

// intermediateScale is the number of decimal places kept between chained
// divisions inside the commission formulas. Final values are rounded to
// 2 places only at the formatting boundary.
const intermediateScale = 6

// NewMoney creates a Money value from a float.
// Prefer NewMoneyFromString for values typed by users.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundStep rounds an intermediate calculation result. Applied after each
// division in the commission split so chained operations stay stable.
func RoundStep(m Money) Money {
	return m.Round(intermediateScale)
}

// Round2 rounds to 2 decimal places. Only for the presentation boundary,
// never between calculation steps.
func Round2(m Money) Money {
	return m.Round(2)
}

// Format2 renders a money value with exactly 2 decimals.
func Format2(m Money) string {
	return m.StringFixed(2)
}
