package sales

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cakeDraft arma la venta de ejemplo: torta + velas, con una fila vacía al final.
func cakeDraft(t *testing.T) *Draft {
	t.Helper()
	d := NewDraft()
	cake := d.AddLine()
	candles := d.AddLine()
	d.AddLine()
	d.SetDescription(cake.ID, "Cake")
	d.SetDescription(candles.ID, "Candles")
	d.UpdateLine(cake.ID, dec("1"), dec("100"))
	d.UpdateLine(candles.ID, dec("2"), dec("5"))
	d.CustomerName = "María López"
	return d
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(cakeDraft(t)))
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(d *Draft)
		want   error
	}{
		{"missing customer", func(d *Draft) { d.CustomerName = "  " }, ErrMissingCustomer},
		{"zero total", func(d *Draft) {
			for _, l := range d.Lines() {
				d.RemoveLine(l.ID)
			}
			d.AddLine()
		}, ErrZeroTotal},
		{"description missing", func(d *Draft) {
			l := d.AddLine()
			d.UpdateLine(l.ID, dec("1"), dec("3"))
		}, ErrInvalidLineItem},
		{"negative price", func(d *Draft) {
			l := d.AddLine()
			d.SetDescription(l.ID, "Descuento")
			d.UpdateLine(l.ID, dec("1"), dec("-5"))
		}, ErrInvalidLineItem},
		{"non-numeric price", func(d *Draft) {
			l := d.AddLine()
			d.SetDescription(l.ID, "Globos")
			d.ApplyInput(l.ID, nil, strp("abc"))
		}, ErrInvalidLineItem},
		{"description without price", func(d *Draft) {
			l := d.AddLine()
			d.SetDescription(l.ID, "Tarjeta")
			d.UpdateLine(l.ID, dec("0"), dec("0"))
		}, ErrInvalidLineItem},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := cakeDraft(t)
			c.mutate(d)
			err := Validate(d)
			assert.ErrorIs(t, err, c.want)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestValidate_NegativeTotal(t *testing.T) {
	d := NewDraft()
	d.CustomerName = "Ana"
	l := d.AddLine()
	d.SetDescription(l.ID, "Devolución")
	d.UpdateLine(l.ID, dec("1"), dec("-10"))

	assert.ErrorIs(t, Validate(d), ErrZeroTotal)
}

func TestResolveID(t *testing.T) {
	cache := NewCustomerCache([]Customer{
		{ID: "CLI-001", Name: "María López"},
		{ID: "CLI-002", Name: "Juan Pérez"},
	})

	assert.Equal(t, "CLI-001", cache.ResolveID("María López"))

	a := cache.ResolveID("maría lópez")
	b := cache.ResolveID("maría lópez")
	assert.True(t, IsPlaceholderID(a), "lookup is exact: case differences create a new customer")
	assert.NotEqual(t, a, b, "every unmatched call gets a distinct placeholder")

	var nilCache *CustomerCache
	assert.True(t, IsPlaceholderID(nilCache.ResolveID("Nadie")))
}

func TestBuildPayload(t *testing.T) {
	d := cakeDraft(t)
	require.NoError(t, d.SetAdvance(dec("50")))
	d.EventType = "Cumpleaños"
	d.EventDate = "2026-10-15"
	d.Shift = "Tarde"
	d.Delivery = true
	d.DeliveryAddress = "Av. Arequipa 123"
	d.Observations = "Sin nueces"
	cache := NewCustomerCache([]Customer{{ID: "CLI-001", Name: "María López"}})

	p := BuildPayload(d, cache, "USR-9")

	assert.Equal(t, "CLI-001", p.Header.CustomerID)
	assert.Equal(t, "María López", p.Header.CustomerName)
	assert.Equal(t, "USR-9", p.Header.SellerID)
	assert.Equal(t, "Sin nueces", p.Header.Observations)
	assert.Equal(t, 110.0, p.Totals.Total)
	assert.Equal(t, 50.0, p.Totals.Advance)
	assert.Equal(t, 60.0, p.Totals.Balance)
	assert.Equal(t, PayloadEvent{Type: "Cumpleaños", Date: "2026-10-15", Shift: "Tarde"}, p.Event)
	assert.True(t, p.Delivery.IsDelivery)
	assert.Equal(t, "María López", p.Delivery.Recipient, "recipient defaults to the customer")

	require.Len(t, p.Detail, 2, "the blank placeholder row is not submitted")
	assert.Equal(t, PayloadLine{Name: "Cake", Quantity: 1, UnitPrice: 100, Subtotal: 100, SKU: p.Detail[0].SKU}, p.Detail[0])
	assert.Equal(t, 10.0, p.Detail[1].Subtotal)
	for _, l := range p.Detail {
		assert.True(t, strings.HasPrefix(l.SKU, "MANUAL-"))
	}
	assert.NotEqual(t, p.Detail[0].SKU, p.Detail[1].SKU)
}

func TestBuildPayload_WireShape(t *testing.T) {
	p := BuildPayload(cakeDraft(t), NewCustomerCache(nil), "USER-WEB")
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var wire struct {
		Cabecera map[string]any   `json:"cabecera"`
		Totales  map[string]any   `json:"totales"`
		Evento   map[string]any   `json:"evento"`
		Entrega  map[string]any   `json:"entrega"`
		Detalle  []map[string]any `json:"detalle"`
	}
	require.NoError(t, json.Unmarshal(raw, &wire))

	for _, k := range []string{"id_cliente", "nombre_cliente", "id_vendedor", "observaciones"} {
		assert.Contains(t, wire.Cabecera, k)
	}
	for _, k := range []string{"total_venta", "a_cuenta", "saldo_pendiente"} {
		assert.Contains(t, wire.Totales, k)
	}
	for _, k := range []string{"tipo", "fecha", "turno"} {
		assert.Contains(t, wire.Evento, k)
	}
	for _, k := range []string{"es_delivery", "direccion", "referencia", "link_maps", "persona_recibe", "celular_contacto"} {
		assert.Contains(t, wire.Entrega, k)
	}
	require.Len(t, wire.Detalle, 2)
	for _, k := range []string{"nombre", "cantidad", "precio_unitario", "subtotal", "sku"} {
		assert.Contains(t, wire.Detalle[0], k)
	}
	assert.True(t, IsPlaceholderID(wire.Cabecera["id_cliente"].(string)))
}
