// Package money holds the rounding and minor-unit rules shared by pricing,
// persistence and the payment provider adapter.
package money

import "github.com/shopspring/decimal"

const scale = 2

// Round rounds to two decimal places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(scale)
}

func ToCents(d decimal.Decimal) int64 {
	return Round(d).Shift(scale).IntPart()
}

// Format renders an amount with exactly two decimals, e.g. "844.90".
func Format(d decimal.Decimal) string {
	return Round(d).StringFixed(scale)
}
