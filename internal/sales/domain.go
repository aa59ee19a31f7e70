package sales

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Text is a string that also accepts JSON numbers; the backend sends ids both ways.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("sales: cannot read %s as text", b)
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// LineItem is one product row of the sale being built.
type LineItem struct {
	ID          int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	// PriceValid is false while the price field holds something that is not a number.
	PriceValid bool
	Subtotal   decimal.Decimal
}

// Customer is a cached customer record used for name lookup.
type Customer struct {
	ID       Text   `json:"id"`
	Name     string `json:"nombre"`
	Document string `json:"doc,omitempty"`
	Phone    string `json:"cel,omitempty"`
}

// Label is the hint shown next to the name in the customer picker.
func (c Customer) Label() string {
	doc, phone := c.Document, c.Phone
	if doc == "" {
		doc = "S/D"
	}
	if phone == "" {
		phone = "-"
	}
	return fmt.Sprintf("DNI: %s | Cel: %s", doc, phone)
}

// Masters are the lists the entry form needs.
type Masters struct {
	EventTypes     []string
	PaymentMethods []string
	Customers      []Customer
}

// KPIs summarizes today's sales.
type KPIs struct {
	Total   decimal.Decimal `json:"total"`
	Tickets int             `json:"tickets"`
	Pending decimal.Decimal `json:"pendiente"`
}

// SaleSummary is one dashboard row.
type SaleSummary struct {
	Ticket   Text            `json:"ticket"`
	Date     string          `json:"fecha"`
	Customer string          `json:"cliente"`
	Total    decimal.Decimal `json:"total"`
	Status   string          `json:"estado"`
}

// DailyReport is the dashboard content.
type DailyReport struct {
	KPIs  KPIs          `json:"kpis"`
	Sales []SaleSummary `json:"ventas"`
}

// LineItemDetail is a stored line of a registered ticket.
type LineItemDetail struct {
	Name      string          `json:"nombre"`
	Quantity  decimal.Decimal `json:"cantidad"`
	UnitPrice decimal.Decimal `json:"precio_unitario"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	SKU       Text            `json:"sku"`
}
