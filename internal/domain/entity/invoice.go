package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain"
)

// Estados de la factura. La única transición definida es DRAFT → ISSUED.
const (
	InvoiceStatusDraft     = "DRAFT"
	InvoiceStatusIssued    = "ISSUED"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusCancelled = "CANCELLED"
)

// Tipos de comprobante.
const (
	InvoiceTypeA = "A"
	InvoiceTypeB = "B"
	InvoiceTypeC = "C"
)

// Invoice representa la cabecera de una factura.
// Subtotal, IVAAmount y Total son un agregado de sus ítems; nunca se aceptan como entrada.
type Invoice struct {
	ID            string
	Number        string // {PointOfSale}-{Sequence:08d}; vacío hasta la emisión
	Sequence      int64  // 0 = sin numerar
	PointOfSale   string
	Type          string
	Status        string
	ClientID      string
	IssueDate     time.Time
	DueDate       *time.Time
	Subtotal      decimal.Decimal
	IVAAmount     decimal.Decimal
	Total         decimal.Decimal
	CAE           string
	CAEExpiration *time.Time
	CreatedBy     string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ValidInvoiceType indica si t es A, B o C.
func ValidInvoiceType(t string) bool {
	return t == InvoiceTypeA || t == InvoiceTypeB || t == InvoiceTypeC
}

// ValidInvoiceStatus indica si s es un estado conocido.
func ValidInvoiceStatus(s string) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// FormatInvoiceNumber compone el número de factura: punto de venta + secuencia de 8 dígitos.
func FormatInvoiceNumber(pointOfSale string, seq int64) string {
	return fmt.Sprintf("%s-%08d", pointOfSale, seq)
}

// IsDraft indica si la factura sigue editable.
func (inv *Invoice) IsDraft() bool {
	return inv.Status == InvoiceStatusDraft
}

// EnsureDraft devuelve un error de validación si la factura no está en DRAFT.
// El error envuelve ErrInvalidState y ErrInvalidInput.
func (inv *Invoice) EnsureDraft() error {
	if !inv.IsDraft() {
		return fmt.Errorf("%w: %w: la factura está en estado %s", domain.ErrInvalidState, domain.ErrInvalidInput, inv.Status)
	}
	return nil
}

// AssignNumber fija la secuencia y el número si todavía no tiene uno.
// Devuelve false (sin cambios) si el número ya estaba asignado.
func (inv *Invoice) AssignNumber(seq int64) bool {
	if inv.Number != "" {
		return false
	}
	inv.Sequence = seq
	inv.Number = FormatInvoiceNumber(inv.PointOfSale, seq)
	return true
}

// AssignCAE fija el código de autorización y su vencimiento si no existe uno.
func (inv *Invoice) AssignCAE(code string, expiration time.Time) bool {
	if inv.CAE != "" {
		return false
	}
	inv.CAE = code
	exp := expiration
	inv.CAEExpiration = &exp
	return true
}

// MarkIssued completa la transición DRAFT → ISSUED.
func (inv *Invoice) MarkIssued(now time.Time) error {
	if err := inv.EnsureDraft(); err != nil {
		return err
	}
	inv.Status = InvoiceStatusIssued
	inv.UpdatedAt = now
	return nil
}

// RecalculateTotals recalcula el agregado completo a partir del conjunto vigente de ítems.
func (inv *Invoice) RecalculateTotals(items []*InvoiceItem) {
	subtotal, iva := decimal.Zero, decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal)
		iva = iva.Add(it.IVAAmount)
	}
	inv.Subtotal = subtotal
	inv.IVAAmount = iva
	inv.Total = subtotal.Add(iva)
}

// DateOnly normaliza t a medianoche UTC (columnas DATE).
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
