package entity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPriceWithIVA(t *testing.T) {
	tests := []struct {
		price, rate, want string
	}{
		{"100.00", "21.00", "121.00"},
		{"100.00", "10.50", "110.50"},
		{"100.00", "0.00", "100.00"},
		{"19.99", "21.00", "24.19"},
		{"0.00", "21.00", "0.00"},
	}
	for _, tt := range tests {
		p := &entity.Product{Price: dec(tt.price), IVARate: dec(tt.rate)}
		assert.True(t, dec(tt.want).Equal(p.PriceWithIVA()), "%s @ %s: got %s", tt.price, tt.rate, p.PriceWithIVA())
	}
}

func TestValidIVARate(t *testing.T) {
	assert.True(t, entity.ValidIVARate(dec("21")))
	assert.True(t, entity.ValidIVARate(dec("10.5")))
	assert.True(t, entity.ValidIVARate(decimal.Zero))
	assert.False(t, entity.ValidIVARate(dec("27")))
}

func TestNewInvoiceItem_Importes(t *testing.T) {
	now := time.Now()
	p := &entity.Product{ID: "p1", Name: "Mouse", Description: "inalámbrico", Price: dec("100.00"), IVARate: entity.IVARate21}

	it := entity.NewInvoiceItem("i1", "inv1", p, decimal.NewFromInt(3), now)

	assert.Equal(t, "Mouse - inalámbrico", it.Description)
	assert.True(t, dec("300.00").Equal(it.Subtotal))
	assert.True(t, dec("63.00").Equal(it.IVAAmount))
	assert.True(t, dec("363.00").Equal(it.Total))

	// la línea conserva el precio aunque cambie el producto
	p.Price = dec("150.00")
	it.Recalculate()
	assert.True(t, dec("363.00").Equal(it.Total))
}

func TestInvoice_RecalculateTotals(t *testing.T) {
	now := time.Now()
	p21 := &entity.Product{ID: "a", Name: "A", Price: dec("100.00"), IVARate: entity.IVARate21}
	p10 := &entity.Product{ID: "b", Name: "B", Price: dec("50.00"), IVARate: entity.IVARate10_5}
	items := []*entity.InvoiceItem{
		entity.NewInvoiceItem("1", "inv", p21, decimal.NewFromInt(3), now),
		entity.NewInvoiceItem("2", "inv", p10, decimal.NewFromInt(2), now),
	}
	inv := &entity.Invoice{}

	inv.RecalculateTotals(items)
	assert.True(t, dec("400.00").Equal(inv.Subtotal))
	assert.True(t, dec("73.50").Equal(inv.IVAAmount))
	assert.True(t, dec("473.50").Equal(inv.Total))

	inv.RecalculateTotals(nil)
	assert.True(t, inv.Total.IsZero())
}

func TestInvoice_AssignNumber(t *testing.T) {
	inv := &entity.Invoice{PointOfSale: "0001"}

	require.True(t, inv.AssignNumber(1))
	assert.Equal(t, "0001-00000001", inv.Number)
	assert.EqualValues(t, 1, inv.Sequence)

	assert.False(t, inv.AssignNumber(7), "un número asignado no se reemplaza")
	assert.Equal(t, "0001-00000001", inv.Number)
	assert.Equal(t, "00003-00000042", entity.FormatInvoiceNumber("00003", 42))
}

func TestInvoice_AssignCAE(t *testing.T) {
	inv := &entity.Invoice{}
	exp := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)

	require.True(t, inv.AssignCAE("12345678901234", exp))
	assert.False(t, inv.AssignCAE("99999999999999", exp.AddDate(0, 0, 5)))
	assert.Equal(t, "12345678901234", inv.CAE)
	assert.Equal(t, exp, *inv.CAEExpiration)
}

func TestInvoice_MarkIssued(t *testing.T) {
	now := time.Now()
	inv := &entity.Invoice{Status: entity.InvoiceStatusDraft}
	require.NoError(t, inv.MarkIssued(now))
	assert.Equal(t, entity.InvoiceStatusIssued, inv.Status)

	err := inv.MarkIssued(now)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, entity.InvoiceStatusIssued, inv.Status)
}

func TestEnumValidators(t *testing.T) {
	assert.True(t, entity.ValidClientType(entity.ClientTypeExento))
	assert.False(t, entity.ValidClientType("OTRO"))
	assert.True(t, entity.ValidInvoiceType("C"))
	assert.False(t, entity.ValidInvoiceType("E"))
	assert.True(t, entity.ValidInvoiceStatus(entity.InvoiceStatusPaid))
	assert.False(t, entity.ValidInvoiceStatus("VOID"))
}

func TestStringers(t *testing.T) {
	c := &entity.Client{Name: "ACME SA", TaxID: "30-69345023-9"}
	assert.Equal(t, "ACME SA (30-69345023-9)", c.String())
	p := &entity.Product{Code: "P-01", Name: "Teclado"}
	assert.Equal(t, "P-01 - Teclado", p.String())
}

func TestDateOnly(t *testing.T) {
	got := entity.DateOnly(time.Date(2026, 5, 4, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), got)
}
