// Package afip contiene los adaptadores de autorización de comprobantes.
package afip

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// CAELength cantidad de dígitos del CAE.
const CAELength = 14

// DefaultValidityDays vencimiento del CAE contado desde la fecha de emisión.
const DefaultValidityDays = 10

var _ billing.CAEAuthorizer = (*MockAuthorizer)(nil)

// MockAuthorizer simula la autorización del WS de AFIP: no hay conexión externa,
// genera un CAE de 14 dígitos aleatorios con vencimiento a N días de la emisión.
type MockAuthorizer struct {
	validityDays int
}

// NewMockAuthorizer construye el autorizador. validityDays <= 0 usa DefaultValidityDays.
func NewMockAuthorizer(validityDays int) *MockAuthorizer {
	if validityDays <= 0 {
		validityDays = DefaultValidityDays
	}
	return &MockAuthorizer{validityDays: validityDays}
}

// Authorize devuelve un CAE nuevo para la factura.
func (a *MockAuthorizer) Authorize(ctx context.Context, invoice *entity.Invoice) (string, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return "", time.Time{}, err
	}
	code, err := randomDigits(CAELength)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("afip: generar CAE: %w", err)
	}
	base := invoice.IssueDate
	if base.IsZero() {
		base = time.Now()
	}
	return code, entity.DateOnly(base).AddDate(0, 0, a.validityDays), nil
}

func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
