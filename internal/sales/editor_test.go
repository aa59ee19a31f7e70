package sales

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestDraft_AddLineDefaults(t *testing.T) {
	d := NewDraft()
	l := d.AddLine()

	assert.Equal(t, 1, l.ID)
	assert.Equal(t, "1", l.Quantity.String())
	assert.True(t, l.UnitPrice.IsZero())
	assert.True(t, l.IsBlank())
	assert.True(t, d.Total().IsZero())
}

func TestDraft_IDsAreNotReused(t *testing.T) {
	d := NewDraft()
	a := d.AddLine()
	b := d.AddLine()
	require.True(t, d.RemoveLine(b.ID))
	c := d.AddLine()

	assert.NotEqual(t, a.ID, c.ID)
	assert.NotEqual(t, b.ID, c.ID)
	assert.Len(t, d.Lines(), 2)
}

func TestDraft_RemoveUnknownIsNoop(t *testing.T) {
	d := NewDraft()
	d.AddLine()
	assert.False(t, d.RemoveLine(42))
	assert.Len(t, d.Lines(), 1)
}

func TestDraft_CakeAndCandles(t *testing.T) {
	d := NewDraft()
	cake := d.AddLine()
	candles := d.AddLine()
	d.SetDescription(cake.ID, "Cake")
	d.SetDescription(candles.ID, "Candles")
	require.True(t, d.UpdateLine(cake.ID, dec("1"), dec("100.00")))
	require.True(t, d.UpdateLine(candles.ID, dec("2"), dec("5.00")))

	l, _ := d.Line(cake.ID)
	assert.Equal(t, "100.00", FormatAmount(l.Subtotal))
	l, _ = d.Line(candles.ID)
	assert.Equal(t, "10.00", FormatAmount(l.Subtotal))
	assert.Equal(t, "110.00", FormatAmount(d.Total()))

	require.NoError(t, d.SetAdvance(dec("110.00")))
	assert.True(t, d.Balance().Paid)
	assert.True(t, d.Balance().Amount.IsZero())

	require.NoError(t, d.SetAdvance(dec("50.00")))
	assert.False(t, d.Balance().Paid)
	assert.Equal(t, "60.00", FormatAmount(d.Balance().Amount))

	// removing a line recomputes both total and balance
	d.RemoveLine(candles.ID)
	assert.Equal(t, "100.00", FormatAmount(d.Total()))
	assert.Equal(t, "50.00", FormatAmount(d.Balance().Amount))
}

func TestDraft_ApplyInput(t *testing.T) {
	d := NewDraft()
	l := d.AddLine()
	d.SetDescription(l.ID, "Torta")

	require.True(t, d.ApplyInput(l.ID, strp("3"), strp("12.50")))
	got, _ := d.Line(l.ID)
	assert.Equal(t, "37.50", FormatAmount(got.Subtotal))

	// only quantity: the price is kept
	d.ApplyInput(l.ID, strp("2"), nil)
	got, _ = d.Line(l.ID)
	assert.Equal(t, "25.00", FormatAmount(got.Subtotal))

	// non-numeric price is invalid and contributes nothing
	d.ApplyInput(l.ID, nil, strp("doce"))
	got, _ = d.Line(l.ID)
	assert.False(t, got.PriceValid)
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, d.Total().IsZero())
	assert.False(t, got.IsBlank(), "an invalid price is not a blank placeholder")

	// non-numeric quantity counts as zero
	d.ApplyInput(l.ID, strp("x"), strp("10"))
	got, _ = d.Line(l.ID)
	assert.True(t, got.Quantity.IsZero())
	assert.True(t, got.Subtotal.IsZero())

	assert.False(t, d.ApplyInput(99, strp("1"), nil))
}

func TestDraft_ApplyInputHugeExponent(t *testing.T) {
	d := NewDraft()
	l := d.AddLine()
	d.SetDescription(l.ID, "Torta")

	start := time.Now()
	require.True(t, d.ApplyInput(l.ID, strp("1e20000000"), strp("1e20000000")))
	got, _ := d.Line(l.ID)

	assert.False(t, got.PriceValid)
	assert.True(t, got.Quantity.IsZero())
	assert.Equal(t, "0.00", FormatAmount(d.Total()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestDraft_NegativeAdvanceRejected(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.SetAdvance(dec("10")))
	assert.ErrorIs(t, d.SetAdvance(dec("-1")), ErrNegativeAdvance)
	assert.Equal(t, "10", d.Advance().String())
}

func TestDraft_LinesIsACopy(t *testing.T) {
	d := NewDraft()
	d.AddLine()
	lines := d.Lines()
	lines[0].Description = "mutated"

	l, _ := d.Line(lines[0].ID)
	assert.Empty(t, l.Description)
}
