package sales

import (
	"strings"

	"github.com/shopspring/decimal"
)

// paidTolerance absorbs rounding noise: balances at or below it count as paid.
var paidTolerance = decimal.New(1, -2)

const currencySymbol = "S/"

// Limits on what a form field may hold. Anything outside them is not an amount a
// sale can carry and would make the decimal arithmetic arbitrarily expensive.
const (
	maxAmountText     = 32
	maxAmountExponent = 12
	minAmountExponent = -12
)

// FormatAmount renders d with two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatMoney renders d as "S/ 0.00".
func FormatMoney(d decimal.Decimal) string {
	return currencySymbol + " " + d.StringFixed(2)
}

// ParseAmount reads a numeric form field. Blank text is zero; ok is false when the
// text is not a number or its magnitude or precision is out of range.
func ParseAmount(text string) (d decimal.Decimal, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, true
	}
	if len(text) > maxAmountText {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < minAmountExponent {
		return decimal.Zero, false
	}
	return d, true
}

// parseOrZero is ParseAmount with non-numeric input read as zero.
func parseOrZero(text string) decimal.Decimal {
	d, _ := ParseAmount(text)
	return d
}
