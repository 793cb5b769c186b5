package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	IVARate     *decimal.Decimal `json:"iva_rate,omitempty"` // 21, 10.5 o 0; por defecto 21
	Stock       int              `json:"stock"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

// UpdateProductRequest actualización parcial de un producto.
// Las facturas existentes conservan el precio y la alícuota de cuando se cargaron.
type UpdateProductRequest struct {
	Code        *string          `json:"code"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IVARate     *decimal.Decimal `json:"iva_rate"`
	Stock       *int             `json:"stock"`
	IsActive    *bool            `json:"is_active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	IVARate      decimal.Decimal `json:"iva_rate"`
	PriceWithIVA decimal.Decimal `json:"price_with_iva"`
	Stock        int             `json:"stock"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ImportIssue línea del CSV que no se importó.
type ImportIssue struct {
	Line   int    `json:"line"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason"`
}

// ProductImportResponse resultado de una importación masiva de productos.
type ProductImportResponse struct {
	Charset string        `json:"charset"` // codificación detectada del archivo
	Created int           `json:"created"`
	Skipped []ImportIssue `json:"skipped"`
}
