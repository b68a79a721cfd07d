// Package money holds the integer-rupee arithmetic shared by pricing rules.
package money

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Currency prefixes every rendered amount.
const Currency = "Rs."

// MaxAmount is the largest single amount (unit price or fee) accepted, in
// rupees.
const MaxAmount = 1_000_000_000

var hundred = decimal.NewFromInt(100)

// PercentOf returns base * percent / 100 rounded to a whole rupee, half away
// from zero. Negative results are clamped to zero.
func PercentOf(base int64, percent decimal.Decimal) int64 {
	amount := decimal.NewFromInt(base).Mul(percent).Div(hundred).Round(0)
	if amount.IsNegative() {
		return 0
	}
	return amount.IntPart()
}

// Format renders an amount the way bills and messages print it, e.g. "Rs.120".
func Format(amount int64) string {
	return Currency + strconv.FormatInt(amount, 10)
}
