package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// InvoiceFilter filtros de listado de facturas (vacío = sin filtro).
type InvoiceFilter struct {
	Status   string
	ClientID string
	Limit    int
	Offset   int
}

// InvoiceRepository define el puerto de persistencia para Invoice y sus ítems.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetByIDForUpdate bloquea la fila hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
	// Update persiste número, estado, totales, CAE y campos editables.
	Update(ctx context.Context, invoice *entity.Invoice) error
	// Delete elimina la factura y en cascada sus ítems.
	Delete(ctx context.Context, id string) error

	// LockNumberingScope serializa la numeración de (tipo, punto de venta) hasta el fin de la transacción.
	LockNumberingScope(ctx context.Context, invoiceType, pointOfSale string) error
	// MaxSequence devuelve la mayor secuencia asignada en el ámbito, 0 si no hay facturas numeradas.
	MaxSequence(ctx context.Context, invoiceType, pointOfSale string) (int64, error)

	CreateItem(ctx context.Context, item *entity.InvoiceItem) error
	GetItem(ctx context.Context, id string) (*entity.InvoiceItem, error)
	UpdateItem(ctx context.Context, item *entity.InvoiceItem) error
	DeleteItem(ctx context.Context, id string) error
	DeleteItemsByInvoiceID(ctx context.Context, invoiceID string) error
	ListItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error)
}
