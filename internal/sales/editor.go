package sales

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNegativeAdvance is returned when the advance payment is below zero.
var ErrNegativeAdvance = errors.New("advance payment cannot be negative")

// IsBlank reports whether the line is an empty placeholder row: no description and
// a zero price. Blank lines never count toward the total nor get submitted.
func (l LineItem) IsBlank() bool {
	return strings.TrimSpace(l.Description) == "" && l.PriceValid && l.UnitPrice.IsZero()
}

func (l *LineItem) recompute() {
	if !l.PriceValid {
		l.Subtotal = decimal.Zero
		return
	}
	l.Subtotal = LineSubtotal(l.Quantity, l.UnitPrice)
}

// Draft is the in-progress sale. It is the single source of truth for the form:
// total and balance are recomputed from the lines on every mutation.
type Draft struct {
	lines      []LineItem
	nextLineID int

	CustomerName      string
	EventType         string
	EventDate         string
	Shift             string
	PaymentMethod     string
	Delivery          bool
	DeliveryAddress   string
	DeliveryReference string
	MapsLink          string
	Recipient         string
	ContactPhone      string
	Observations      string

	advance decimal.Decimal
	total   decimal.Decimal
	balance Balance
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	d := &Draft{nextLineID: 1}
	d.recompute()
	return d
}

func (d *Draft) recompute() {
	d.total = RecomputeTotal(d.lines)
	d.balance = RecomputeBalance(d.total, d.advance)
}

func (d *Draft) index(id int) int {
	for i := range d.lines {
		if d.lines[i].ID == id {
			return i
		}
	}
	return -1
}

// AddLine appends a blank line with quantity 1. Ids are never reused within a draft.
func (d *Draft) AddLine() LineItem {
	l := LineItem{
		ID:         d.nextLineID,
		Quantity:   decimal.NewFromInt(1),
		UnitPrice:  decimal.Zero,
		PriceValid: true,
	}
	d.nextLineID++
	l.recompute()
	d.lines = append(d.lines, l)
	d.recompute()
	return l
}

// RemoveLine deletes the line; unknown ids are ignored. It reports whether a line was removed.
func (d *Draft) RemoveLine(id int) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	d.lines = append(d.lines[:i], d.lines[i+1:]...)
	d.recompute()
	return true
}

// UpdateLine sets quantity and unit price and recomputes the subtotal and totals.
func (d *Draft) UpdateLine(id int, quantity, unitPrice decimal.Decimal) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	l := &d.lines[i]
	l.Quantity = quantity
	l.UnitPrice = unitPrice
	l.PriceValid = true
	l.recompute()
	d.recompute()
	return true
}

// ApplyInput updates quantity and/or price from raw form text; nil keeps the current value.
// A non-numeric quantity counts as zero. A non-numeric price is kept as invalid and
// rejected at submission.
func (d *Draft) ApplyInput(id int, quantity, unitPrice *string) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	l := &d.lines[i]
	if quantity != nil {
		l.Quantity = parseOrZero(*quantity)
	}
	if unitPrice != nil {
		p, ok := ParseAmount(*unitPrice)
		l.UnitPrice = p
		l.PriceValid = ok
	}
	l.recompute()
	d.recompute()
	return true
}

// SetDescription changes the line's free text.
func (d *Draft) SetDescription(id int, description string) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	d.lines[i].Description = description
	d.recompute()
	return true
}

// SetAdvance sets the advance payment and recomputes the balance.
func (d *Draft) SetAdvance(advance decimal.Decimal) error {
	if advance.IsNegative() {
		return ErrNegativeAdvance
	}
	d.advance = advance
	d.recompute()
	return nil
}

// Line returns a copy of the line with the given id.
func (d *Draft) Line(id int) (LineItem, bool) {
	i := d.index(id)
	if i < 0 {
		return LineItem{}, false
	}
	return d.lines[i], true
}

// Lines returns a copy of the lines in insertion order.
func (d *Draft) Lines() []LineItem {
	return append([]LineItem(nil), d.lines...)
}

func (d *Draft) Advance() decimal.Decimal { return d.advance }
func (d *Draft) Total() decimal.Decimal   { return d.total }
func (d *Draft) Balance() Balance         { return d.balance }
