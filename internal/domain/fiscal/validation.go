// Package fiscal contiene validaciones de dominio previas a la emisión de comprobantes
// (AFIP, Argentina). Utiliza catálogos y reglas de pkg/afip.
package fiscal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/afip"
)

// ErrInvalidInvoice agrupa errores de validación de factura.
var ErrInvalidInvoice = errors.New("factura inválida para emisión")

// ValidateReceptor exige que el receptor de una factura A se identifique con un CUIT válido.
// Se aplica al crear el borrador; el error envuelve domain.ErrInvalidInput.
func ValidateReceptor(invoiceType string, client *entity.Client) error {
	if client == nil {
		return fmt.Errorf("%w: %w: la factura no tiene cliente", domain.ErrInvalidInput, ErrInvalidInvoice)
	}
	if invoiceType != entity.InvoiceTypeA {
		return nil
	}
	if err := afip.ValidateCUIT(client.TaxID); err != nil {
		return fmt.Errorf("%w: %w: factura A requiere CUIT del receptor: %w", domain.ErrInvalidInput, ErrInvalidInvoice, err)
	}
	return nil
}

// ValidateForIssue revisa la factura, sus ítems y el cliente al momento de emitirla.
// Reúne las mismas reglas que ValidateReceptor más la coherencia de los totales.
// La emisión lo usa como observación (log), no como condición de rechazo.
// El error devuelto envuelve domain.ErrInvalidInput.
func ValidateForIssue(invoice *entity.Invoice, items []*entity.InvoiceItem, client *entity.Client) error {
	if invoice == nil {
		return fmt.Errorf("%w: %w: factura nula", domain.ErrInvalidInput, ErrInvalidInvoice)
	}
	var errs []error

	if _, ok := afip.InvoiceTypeCode(invoice.Type); !ok {
		errs = append(errs, fmt.Errorf("tipo de comprobante desconocido %q", invoice.Type))
	}
	if !afip.ValidPointOfSale(invoice.PointOfSale) {
		errs = append(errs, fmt.Errorf("punto de venta inválido %q", invoice.PointOfSale))
	}

	if client == nil {
		errs = append(errs, errors.New("la factura no tiene cliente"))
	} else if invoice.Type == entity.InvoiceTypeA {
		if err := afip.ValidateCUIT(client.TaxID); err != nil {
			errs = append(errs, fmt.Errorf("factura A requiere CUIT del receptor: %w", err))
		}
	}

	sumSubtotal, sumIVA := decimal.Zero, decimal.Zero
	for _, it := range items {
		sumSubtotal = sumSubtotal.Add(it.Subtotal)
		sumIVA = sumIVA.Add(it.IVAAmount)
	}
	if !invoice.Subtotal.Equal(sumSubtotal) {
		errs = append(errs, fmt.Errorf("subtotal (%s) no coincide con la suma de ítems (%s)", invoice.Subtotal, sumSubtotal))
	}
	if !invoice.IVAAmount.Equal(sumIVA) {
		errs = append(errs, fmt.Errorf("IVA (%s) no coincide con la suma de ítems (%s)", invoice.IVAAmount, sumIVA))
	}
	if expected := sumSubtotal.Add(sumIVA); !invoice.Total.Equal(expected) {
		errs = append(errs, fmt.Errorf("total (%s) no coincide con subtotal + IVA (%s)", invoice.Total, expected))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{domain.ErrInvalidInput, ErrInvalidInvoice}, errs...)...)
	}
	return nil
}
