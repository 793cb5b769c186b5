package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alícuotas de IVA admitidas para productos (en porcentaje).
var (
	IVARate21   = decimal.RequireFromString("21.00")
	IVARate10_5 = decimal.RequireFromString("10.50")
	IVARate0    = decimal.Zero
)

var hundred = decimal.NewFromInt(100)

// Product representa un producto facturable. Code es único.
type Product struct {
	ID          string
	Code        string
	Name        string
	Description string
	Price       decimal.Decimal // precio neto, 2 decimales
	IVARate     decimal.Decimal // 21.00, 10.50 o 0.00
	Stock       int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidIVARate indica si rate es una de las alícuotas admitidas.
func ValidIVARate(rate decimal.Decimal) bool {
	return rate.Equal(IVARate21) || rate.Equal(IVARate10_5) || rate.Equal(IVARate0)
}

// PriceWithIVA devuelve el precio con IVA incluido: price × (1 + rate/100), a 2 decimales.
func (p *Product) PriceWithIVA() decimal.Decimal {
	return PriceWithIVA(p.Price, p.IVARate)
}

// PriceWithIVA calcula price × (1 + rate/100) redondeado a 2 decimales.
func PriceWithIVA(price, rate decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(1).Add(rate.Div(hundred))).Round(2)
}

func (p *Product) String() string {
	return p.Code + " - " + p.Name
}
