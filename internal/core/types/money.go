// Package types provides common type aliases and numeric utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors in catalog prices.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// Prefer MustMoney with a string literal for exact values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
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

// MoneyScale is the number of decimal places kept on all calculation amounts.
const MoneyScale int32 = 2

// RoundTo rounds v to the given number of decimal places, half away from zero.
// The round trip goes through decimal so that values like 3*9.995 land on
// 29.99 instead of drifting on a binary representation artifact.
func RoundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Round2 rounds v to 2 decimal places. Aggregated amounts, totals and margin
// fractions on a calculation go through Round2; unit prices and quantities
// keep their full precision so rounding applies once, on the computed total.
func Round2(v float64) float64 {
	return RoundTo(v, MoneyScale)
}

// SafeDivide divides dividend by divisor. When the divisor rounds to zero the
// fallback is returned instead of NaN or Inf; the default fallback is 0.
func SafeDivide(dividend, divisor float64, fallback ...float64) float64 {
	def := 0.0
	if len(fallback) > 0 {
		def = fallback[0]
	}
	if IsFloatZero(divisor) {
		return def
	}
	return dividend / divisor
}

// IsFloatZero reports whether v rounds to zero at MoneyScale precision.
func IsFloatZero(v float64) bool {
	return Round2(v) == 0
}

// IsFloatEquals reports whether a and b are equal after rounding both to
// MoneyScale precision.
func IsFloatEquals(a, b float64) bool {
	return Round2(a) == Round2(b)
}
