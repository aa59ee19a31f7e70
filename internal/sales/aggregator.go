package sales

import "github.com/shopspring/decimal"

// LineSubtotal is quantity x unitPrice rounded to cents.
func LineSubtotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// RecomputeTotal sums the subtotals of every non-blank line.
func RecomputeTotal(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.IsBlank() {
			continue
		}
		total = total.Add(l.Subtotal)
	}
	return total.Round(2)
}

// Balance is what the customer still owes.
type Balance struct {
	Amount decimal.Decimal
	Paid   bool
}

// RecomputeBalance returns max(0, total-advance); anything at or below one cent
// is reported as exactly zero and paid.
func RecomputeBalance(total, advance decimal.Decimal) Balance {
	b := total.Sub(advance)
	if b.LessThanOrEqual(paidTolerance) {
		return Balance{Amount: decimal.Zero, Paid: true}
	}
	return Balance{Amount: b.Round(2)}
}

// Label is the balance as displayed in the form.
func (b Balance) Label() string {
	if b.Paid {
		return "0.00 (PAGADO)"
	}
	return FormatAmount(b.Amount)
}
