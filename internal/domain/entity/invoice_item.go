package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceItem representa una línea de factura.
// Description, UnitPrice e IVARate se copian del producto al crear la línea y no se
// vuelven a leer del producto: la factura conserva los valores históricos.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	ProductID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	IVARate     decimal.Decimal
	Subtotal    decimal.Decimal
	IVAAmount   decimal.Decimal
	Total       decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewInvoiceItem crea una línea con la foto del producto y sus importes ya calculados.
func NewInvoiceItem(id, invoiceID string, product *Product, quantity decimal.Decimal, now time.Time) *InvoiceItem {
	description := product.Name
	if product.Description != "" {
		description = product.Name + " - " + product.Description
	}
	it := &InvoiceItem{
		ID:          id,
		InvoiceID:   invoiceID,
		ProductID:   product.ID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		IVARate:     product.IVARate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	it.Recalculate()
	return it
}

// Recalculate actualiza subtotal = cantidad × precio, IVA = subtotal × alícuota/100 y total.
func (it *InvoiceItem) Recalculate() {
	it.Subtotal = it.Quantity.Mul(it.UnitPrice).Round(2)
	it.IVAAmount = it.Subtotal.Mul(it.IVARate).Div(hundred).Round(2)
	it.Total = it.Subtotal.Add(it.IVAAmount)
}
