package sales

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Validation failures. No network call is made when one of these is returned.
var (
	ErrMissingCustomer = errors.New("customer name is required")
	ErrZeroTotal       = errors.New("sale total must be greater than zero")
	ErrInvalidLineItem = errors.New("every product needs a description, a positive quantity and a valid price")
	ErrNoLineItems     = errors.New("the sale has no products")
)

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingCustomer) ||
		errors.Is(err, ErrZeroTotal) ||
		errors.Is(err, ErrInvalidLineItem) ||
		errors.Is(err, ErrNoLineItems)
}

const (
	newCustomerPrefix = "NUEVO-"
	manualSKUPrefix   = "MANUAL-"
)

// Validate checks the draft before submission.
func Validate(d *Draft) error {
	if strings.TrimSpace(d.CustomerName) == "" {
		return ErrMissingCustomer
	}
	if !d.Total().IsPositive() {
		return ErrZeroTotal
	}
	valid := 0
	for _, l := range d.lines {
		if l.IsBlank() {
			continue
		}
		if strings.TrimSpace(l.Description) == "" || !l.PriceValid || l.UnitPrice.IsNegative() || !l.Quantity.IsPositive() {
			return fmt.Errorf("%w (line %d)", ErrInvalidLineItem, l.ID)
		}
		valid++
	}
	if valid == 0 {
		return ErrNoLineItems
	}
	return nil
}

// CustomerCache is the read-only customer list loaded when the form opens.
type CustomerCache struct {
	customers []Customer
}

// NewCustomerCache wraps customers. The slice is copied.
func NewCustomerCache(customers []Customer) *CustomerCache {
	return &CustomerCache{customers: append([]Customer(nil), customers...)}
}

// Lookup finds a customer by exact name.
func (c *CustomerCache) Lookup(name string) (Customer, bool) {
	if c == nil {
		return Customer{}, false
	}
	for _, cu := range c.customers {
		if cu.Name == name {
			return cu, true
		}
	}
	return Customer{}, false
}

// All returns a copy of the cached customers.
func (c *CustomerCache) All() []Customer {
	if c == nil {
		return nil
	}
	return append([]Customer(nil), c.customers...)
}

// ResolveID returns the cached id for name, or a fresh placeholder tagged as new.
// The backend creates the customer record from the name it receives with a placeholder.
func (c *CustomerCache) ResolveID(name string) string {
	if cu, ok := c.Lookup(name); ok {
		return string(cu.ID)
	}
	return newCustomerPrefix + uuid.NewString()
}

// IsPlaceholderID reports whether id was synthesized by ResolveID.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, newCustomerPrefix)
}

func newManualSKU() string {
	return manualSKUPrefix + uuid.NewString()
}

// Payload is the registrarVenta request body.
type Payload struct {
	Header   PayloadHeader   `json:"cabecera"`
	Totals   PayloadTotals   `json:"totales"`
	Event    PayloadEvent    `json:"evento"`
	Delivery PayloadDelivery `json:"entrega"`
	Detail   []PayloadLine   `json:"detalle"`
}

type PayloadHeader struct {
	CustomerID   string `json:"id_cliente"`
	CustomerName string `json:"nombre_cliente"`
	SellerID     string `json:"id_vendedor"`
	Observations string `json:"observaciones"`
}

type PayloadTotals struct {
	Total   float64 `json:"total_venta"`
	Advance float64 `json:"a_cuenta"`
	Balance float64 `json:"saldo_pendiente"`
}

type PayloadEvent struct {
	Type  string `json:"tipo"`
	Date  string `json:"fecha"`
	Shift string `json:"turno"`
}

type PayloadDelivery struct {
	IsDelivery   bool   `json:"es_delivery"`
	Address      string `json:"direccion"`
	Reference    string `json:"referencia"`
	MapsLink     string `json:"link_maps"`
	Recipient    string `json:"persona_recibe"`
	ContactPhone string `json:"celular_contacto"`
}

type PayloadLine struct {
	Name      string  `json:"nombre"`
	Quantity  float64 `json:"cantidad"`
	UnitPrice float64 `json:"precio_unitario"`
	Subtotal  float64 `json:"subtotal"`
	SKU       string  `json:"sku"`
}

// BuildPayload snapshots a validated draft into the wire shape. Blank lines are skipped
// and every line gets its own manual SKU.
func BuildPayload(d *Draft, cache *CustomerCache, sellerID string) Payload {
	name := strings.TrimSpace(d.CustomerName)
	recipient := d.Recipient
	if strings.TrimSpace(recipient) == "" {
		recipient = name
	}

	detail := make([]PayloadLine, 0, len(d.lines))
	for _, l := range d.lines {
		if l.IsBlank() {
			continue
		}
		detail = append(detail, PayloadLine{
			Name:      strings.TrimSpace(l.Description),
			Quantity:  l.Quantity.InexactFloat64(),
			UnitPrice: l.UnitPrice.InexactFloat64(),
			Subtotal:  l.Subtotal.InexactFloat64(),
			SKU:       newManualSKU(),
		})
	}

	balance := d.Balance()
	return Payload{
		Header: PayloadHeader{
			CustomerID:   cache.ResolveID(name),
			CustomerName: name,
			SellerID:     sellerID,
			Observations: d.Observations,
		},
		Totals: PayloadTotals{
			Total:   d.Total().InexactFloat64(),
			Advance: d.Advance().InexactFloat64(),
			Balance: balance.Amount.InexactFloat64(),
		},
		Event: PayloadEvent{
			Type:  d.EventType,
			Date:  d.EventDate,
			Shift: d.Shift,
		},
		Delivery: PayloadDelivery{
			IsDelivery:   d.Delivery,
			Address:      d.DeliveryAddress,
			Reference:    d.DeliveryReference,
			MapsLink:     d.MapsLink,
			Recipient:    recipient,
			ContactPhone: d.ContactPhone,
		},
		Detail: detail,
	}
}
