package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest entrada para crear una factura en DRAFT.
// Los totales no se aceptan: se calculan a partir de los ítems.
type CreateInvoiceRequest struct {
	ClientID    string               `json:"client_id"`
	InvoiceType string               `json:"invoice_type,omitempty"`  // A, B o C; por defecto según el cliente
	PointOfSale string               `json:"point_of_sale,omitempty"` // por defecto el configurado
	IssueDate   string               `json:"issue_date,omitempty"`    // YYYY-MM-DD; por defecto hoy
	DueDate     string               `json:"due_date,omitempty"`      // YYYY-MM-DD
	Notes       string               `json:"notes,omitempty"`
	Items       []InvoiceItemRequest `json:"items,omitempty"`
}

// InvoiceItemRequest línea a agregar. UnitPrice y Description son opcionales:
// sin ellos se toman del producto.
type InvoiceItemRequest struct {
	ProductID   string           `json:"product_id"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Description string           `json:"description,omitempty"`
}

// UpdateInvoiceItemRequest cambio de cantidad y/o descripción de una línea.
type UpdateInvoiceItemRequest struct {
	Quantity    *decimal.Decimal `json:"quantity"`
	Description *string          `json:"description"`
}

// ReplaceInvoiceItemsRequest reemplazo completo del conjunto de líneas.
type ReplaceInvoiceItemsRequest struct {
	Items []InvoiceItemRequest `json:"items"`
}

// InvoiceItemResponse salida de una línea.
type InvoiceItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	IVARate     decimal.Decimal `json:"iva_rate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	IVAAmount   decimal.Decimal `json:"iva_amount"`
	Total       decimal.Decimal `json:"total"`
}

// InvoiceResponse salida de una factura (con ítems cuando se consulta por ID).
type InvoiceResponse struct {
	ID            string                `json:"id"`
	InvoiceNumber string                `json:"invoice_number,omitempty"`
	PointOfSale   string                `json:"point_of_sale"`
	InvoiceType   string                `json:"invoice_type"`
	Status        string                `json:"status"`
	ClientID      string                `json:"client_id"`
	ClientName    string                `json:"client_name,omitempty"`
	IssueDate     string                `json:"issue_date"`
	DueDate       string                `json:"due_date,omitempty"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	IVAAmount     decimal.Decimal       `json:"iva_amount"`
	Total         decimal.Decimal       `json:"total"`
	CAE           string                `json:"cae,omitempty"`
	CAEExpiration string                `json:"cae_expiration,omitempty"`
	CreatedBy     string                `json:"created_by"`
	Notes         string                `json:"notes,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Items         []InvoiceItemResponse `json:"items,omitempty"`
}

// InvoiceListResponse lista paginada de facturas (sin ítems).
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// InvoiceListRequest filtros del listado.
type InvoiceListRequest struct {
	PageRequest
	Status   string `query:"status"`
	ClientID string `query:"client_id"`
}
