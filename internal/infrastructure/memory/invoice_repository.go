package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

type invoiceRow struct {
	entity.Invoice
	ord int64
}

type itemRow struct {
	entity.InvoiceItem
	ord int64
}

// InvoiceRepo implementación en memoria de InvoiceRepository.
// Fuera de RunBilling cada operación es atómica por sí sola.
type InvoiceRepo struct {
	h handle
}

// Create persiste la cabecera. Cliente inexistente → ErrReferenced (FK).
func (r *InvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	defer r.h.lock()()
	st := r.h.state()
	if _, ok := st.invoices[inv.ID]; ok {
		return fmt.Errorf("insert invoice: %w", domain.ErrDuplicate)
	}
	if err := st.checkInvoice(inv); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	st.invoices[inv.ID] = &invoiceRow{Invoice: copyInvoice(inv), ord: st.nextOrd()}
	return nil
}

// GetByID obtiene una factura por ID; nil si no existe.
func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	defer r.h.lock()()
	if row, ok := r.h.state().invoices[id]; ok {
		inv := copyInvoice(&row.Invoice)
		return &inv, nil
	}
	return nil, nil
}

// GetByIDForUpdate equivale a GetByID: dentro de RunBilling el acceso ya es exclusivo.
func (r *InvoiceRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

// List lista facturas, más recientes primero.
func (r *InvoiceRepo) List(_ context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	defer r.h.lock()()
	rows := make([]*invoiceRow, 0, len(r.h.state().invoices))
	for _, row := range r.h.state().invoices {
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		if f.ClientID != "" && row.ClientID != f.ClientID {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ord > rows[j].ord
	})
	rows = paginate(rows, f.Limit, f.Offset)
	list := make([]*entity.Invoice, 0, len(rows))
	for _, row := range rows {
		inv := copyInvoice(&row.Invoice)
		list = append(list, &inv)
	}
	return list, nil
}

// Update persiste la cabecera completa.
func (r *InvoiceRepo) Update(_ context.Context, inv *entity.Invoice) error {
	defer r.h.lock()()
	st := r.h.state()
	row, ok := st.invoices[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if err := st.checkInvoice(inv); err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	created := row.CreatedAt
	row.Invoice = copyInvoice(inv)
	row.CreatedAt = created
	return nil
}

// Delete elimina la factura y en cascada sus ítems.
func (r *InvoiceRepo) Delete(_ context.Context, id string) error {
	defer r.h.lock()()
	st := r.h.state()
	if _, ok := st.invoices[id]; !ok {
		return domain.ErrNotFound
	}
	for itemID, it := range st.items {
		if it.InvoiceID == id {
			delete(st.items, itemID)
		}
	}
	delete(st.invoices, id)
	return nil
}

// LockNumberingScope no necesita hacer nada: RunBilling ya serializa a todos los escritores.
func (r *InvoiceRepo) LockNumberingScope(context.Context, string, string) error {
	return nil
}

// MaxSequence devuelve la mayor secuencia asignada en (tipo, punto de venta).
func (r *InvoiceRepo) MaxSequence(_ context.Context, invoiceType, pointOfSale string) (int64, error) {
	defer r.h.lock()()
	var maxSeq int64
	for _, row := range r.h.state().invoices {
		if row.Type == invoiceType && row.PointOfSale == pointOfSale && row.Sequence > maxSeq {
			maxSeq = row.Sequence
		}
	}
	return maxSeq, nil
}

// CreateItem persiste una línea. Factura o producto inexistente → ErrReferenced.
func (r *InvoiceRepo) CreateItem(_ context.Context, it *entity.InvoiceItem) error {
	defer r.h.lock()()
	st := r.h.state()
	if _, ok := st.items[it.ID]; ok {
		return fmt.Errorf("insert invoice item: %w", domain.ErrDuplicate)
	}
	if _, ok := st.invoices[it.InvoiceID]; !ok {
		return fmt.Errorf("insert invoice item: %w", domain.ErrReferenced)
	}
	if _, ok := st.products[it.ProductID]; !ok {
		return fmt.Errorf("insert invoice item: %w", domain.ErrReferenced)
	}
	if !it.Quantity.IsPositive() {
		return fmt.Errorf("insert invoice item: %w", domain.ErrInvalidInput)
	}
	st.items[it.ID] = &itemRow{InvoiceItem: *it, ord: st.nextOrd()}
	return nil
}

// GetItem obtiene una línea por ID; nil si no existe.
func (r *InvoiceRepo) GetItem(_ context.Context, id string) (*entity.InvoiceItem, error) {
	defer r.h.lock()()
	if row, ok := r.h.state().items[id]; ok {
		it := row.InvoiceItem
		return &it, nil
	}
	return nil, nil
}

// UpdateItem actualiza la línea (cantidad, descripción, importes).
func (r *InvoiceRepo) UpdateItem(_ context.Context, it *entity.InvoiceItem) error {
	defer r.h.lock()()
	row, ok := r.h.state().items[it.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if !it.Quantity.IsPositive() {
		return fmt.Errorf("update invoice item: %w", domain.ErrInvalidInput)
	}
	row.Description = it.Description
	row.Quantity = it.Quantity
	row.UnitPrice = it.UnitPrice
	row.IVARate = it.IVARate
	row.Subtotal = it.Subtotal
	row.IVAAmount = it.IVAAmount
	row.Total = it.Total
	row.UpdatedAt = it.UpdatedAt
	return nil
}

// DeleteItem elimina una línea.
func (r *InvoiceRepo) DeleteItem(_ context.Context, id string) error {
	defer r.h.lock()()
	st := r.h.state()
	if _, ok := st.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(st.items, id)
	return nil
}

// DeleteItemsByInvoiceID elimina todas las líneas de la factura.
func (r *InvoiceRepo) DeleteItemsByInvoiceID(_ context.Context, invoiceID string) error {
	defer r.h.lock()()
	st := r.h.state()
	for id, it := range st.items {
		if it.InvoiceID == invoiceID {
			delete(st.items, id)
		}
	}
	return nil
}

// ListItems devuelve las líneas de la factura en orden de carga.
func (r *InvoiceRepo) ListItems(_ context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	defer r.h.lock()()
	var rows []*itemRow
	for _, row := range r.h.state().items {
		if row.InvoiceID == invoiceID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ord < rows[j].ord
	})
	items := make([]*entity.InvoiceItem, 0, len(rows))
	for _, row := range rows {
		it := row.InvoiceItem
		items = append(items, &it)
	}
	return items, nil
}

// checkInvoice replica la FK a clients y los índices únicos de numeración.
func (st *state) checkInvoice(inv *entity.Invoice) error {
	if _, ok := st.clients[inv.ClientID]; !ok {
		return domain.ErrReferenced
	}
	for _, row := range st.invoices {
		if row.ID == inv.ID || row.Type != inv.Type {
			continue
		}
		if inv.Sequence > 0 && row.PointOfSale == inv.PointOfSale && row.Sequence == inv.Sequence {
			return domain.ErrDuplicate
		}
		if inv.Number != "" && row.Number == inv.Number {
			return domain.ErrDuplicate
		}
	}
	return nil
}

func copyInvoice(inv *entity.Invoice) entity.Invoice {
	cp := *inv
	cp.DueDate = copyTime(inv.DueDate)
	cp.CAEExpiration = copyTime(inv.CAEExpiration)
	return cp
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
