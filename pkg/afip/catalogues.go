// Package afip contiene catálogos y validaciones de facturación argentina:
// alícuotas de IVA, tipos de comprobante, tipos de documento y condición frente al IVA.
package afip

import "github.com/shopspring/decimal"

// =============================================================================
// Condición frente al IVA del receptor
// =============================================================================

const (
	CondicionMonotributo          = "MONOTRIBUTO"
	CondicionResponsableInscripto = "RESPONSABLE_INSCRIPTO"
	CondicionConsumidorFinal      = "CONSUMIDOR_FINAL"
	CondicionExento               = "EXENTO"
)

// =============================================================================
// Tipos de comprobante (tabla de comprobantes WSFE)
// =============================================================================

var invoiceTypeCodes = map[string]int{
	"A": 1,
	"B": 6,
	"C": 11,
}

// InvoiceTypeCode devuelve el código AFIP de la factura A/B/C; false si no existe.
func InvoiceTypeCode(invoiceType string) (int, bool) {
	code, ok := invoiceTypeCodes[invoiceType]
	return code, ok
}

// DefaultInvoiceType sugiere la letra del comprobante según la condición del receptor:
// A para responsables inscriptos identificados con CUIT válido, B para el resto.
func DefaultInvoiceType(condicion, taxID string) string {
	if condicion == CondicionResponsableInscripto && ValidateCUIT(taxID) == nil {
		return "A"
	}
	return "B"
}

// =============================================================================
// Alícuotas de IVA (tabla de alícuotas WSFE)
// =============================================================================

const (
	AlicuotaIVA0    = 3
	AlicuotaIVA10_5 = 4
	AlicuotaIVA21   = 5
)

// IVARateCode devuelve el código de alícuota para un porcentaje (21, 10.5 o 0); false si no existe.
func IVARateCode(rate decimal.Decimal) (int, bool) {
	switch {
	case rate.Equal(decimal.NewFromInt(21)):
		return AlicuotaIVA21, true
	case rate.Equal(decimal.RequireFromString("10.5")):
		return AlicuotaIVA10_5, true
	case rate.IsZero():
		return AlicuotaIVA0, true
	}
	return 0, false
}

// =============================================================================
// Tipos de documento del receptor
// =============================================================================

const (
	DocTypeCUIT           = 80
	DocTypeDNI            = 96
	DocTypeSinIdentificar = 99
)

// DocTypeFor deduce el tipo de documento por la cantidad de dígitos del identificador.
func DocTypeFor(taxID string) int {
	switch len(ExtractDigits(taxID)) {
	case 11:
		return DocTypeCUIT
	case 7, 8:
		return DocTypeDNI
	}
	return DocTypeSinIdentificar
}

// ValidPointOfSale indica si pos es un punto de venta de 1 a 5 dígitos.
func ValidPointOfSale(pos string) bool {
	if pos == "" || len(pos) > 5 {
		return false
	}
	for _, r := range pos {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
