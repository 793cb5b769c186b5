package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, invoice_number, sequence, point_of_sale, invoice_type, status, client_id,
	issue_date, due_date, subtotal, iva_amount, total, cae, cae_expiration, created_by, notes,
	created_at, updated_at`

const itemColumns = `id, invoice_id, product_id, description, quantity, unit_price, iva_rate,
	subtotal, iva_amount, total, created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
// LockNumberingScope y GetByIDForUpdate solo tienen efecto dentro de una transacción.
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query, invoiceArgs(inv)...)
	if err != nil {
		return translateWriteError("insert invoice", err)
	}
	return nil
}

// GetByID obtiene una factura por ID; nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene la factura con bloqueo de fila (SELECT ... FOR UPDATE).
func (r *InvoiceRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
}

func (r *InvoiceRepo) getOne(ctx context.Context, query, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// List lista facturas, más recientes primero.
func (r *InvoiceRepo) List(ctx context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR client_id::text = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, f.Status, f.ClientID, limitArg(f.Limit), f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// Update persiste número, estado, totales, CAE y campos editables.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET invoice_number = $2,
		    sequence       = $3,
		    point_of_sale  = $4,
		    invoice_type   = $5,
		    status         = $6,
		    client_id      = $7,
		    issue_date     = $8,
		    due_date       = $9,
		    subtotal       = $10,
		    iva_amount     = $11,
		    total          = $12,
		    cae            = $13,
		    cae_expiration = $14,
		    created_by     = $15,
		    notes          = $16,
		    updated_at     = $17
		WHERE id = $1`
	args := invoiceArgs(inv)
	args = append(args[:16], inv.UpdatedAt) // sin created_at
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return translateWriteError("update invoice", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la factura; sus ítems se borran en cascada (FK ON DELETE CASCADE).
func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return translateWriteError("delete invoice", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func numberingLockKey(invoiceType, pointOfSale string) string {
	return "invoice_numbering:" + invoiceType + ":" + pointOfSale
}

// LockNumberingScope toma un advisory lock transaccional sobre (tipo, punto de venta).
// Se libera solo con el commit o rollback.
func (r *InvoiceRepo) LockNumberingScope(ctx context.Context, invoiceType, pointOfSale string) error {
	_, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, numberingLockKey(invoiceType, pointOfSale))
	if err != nil {
		return fmt.Errorf("lock numbering scope: %w", err)
	}
	return nil
}

// MaxSequence devuelve la mayor secuencia asignada en el ámbito (0 si no hay).
func (r *InvoiceRepo) MaxSequence(ctx context.Context, invoiceType, pointOfSale string) (int64, error) {
	var maxSeq int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(sequence), 0) FROM invoices
		WHERE invoice_type = $1 AND point_of_sale = $2 AND sequence IS NOT NULL`,
		invoiceType, pointOfSale,
	).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("max sequence: %w", err)
	}
	return maxSeq, nil
}

// CreateItem persiste una línea de factura.
func (r *InvoiceRepo) CreateItem(ctx context.Context, it *entity.InvoiceItem) error {
	query := `INSERT INTO invoice_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.InvoiceID, it.ProductID, it.Description, it.Quantity, it.UnitPrice, it.IVARate,
		it.Subtotal, it.IVAAmount, it.Total, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return translateWriteError("insert invoice item", err)
	}
	return nil
}

// GetItem obtiene una línea por ID; nil si no existe.
func (r *InvoiceRepo) GetItem(ctx context.Context, id string) (*entity.InvoiceItem, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM invoice_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice item: %w", err)
	}
	return it, nil
}

// UpdateItem actualiza cantidad, descripción e importes de la línea.
func (r *InvoiceRepo) UpdateItem(ctx context.Context, it *entity.InvoiceItem) error {
	query := `
		UPDATE invoice_items
		SET description = $2, quantity = $3, unit_price = $4, iva_rate = $5,
		    subtotal = $6, iva_amount = $7, total = $8, updated_at = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		it.ID, it.Description, it.Quantity, it.UnitPrice, it.IVARate,
		it.Subtotal, it.IVAAmount, it.Total, it.UpdatedAt,
	)
	if err != nil {
		return translateWriteError("update invoice item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteItem elimina una línea.
func (r *InvoiceRepo) DeleteItem(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM invoice_items WHERE id = $1`, id)
	if err != nil {
		return translateWriteError("delete invoice item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteItemsByInvoiceID elimina todas las líneas de la factura.
func (r *InvoiceRepo) DeleteItemsByInvoiceID(ctx context.Context, invoiceID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return translateWriteError("delete invoice items", err)
	}
	return nil
}

// ListItems devuelve las líneas de la factura en orden de carga.
func (r *InvoiceRepo) ListItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+itemColumns+` FROM invoice_items WHERE invoice_id = $1 ORDER BY created_at, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	var items []*entity.InvoiceItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func invoiceArgs(inv *entity.Invoice) []any {
	var seq *int64
	if inv.Sequence > 0 {
		s := inv.Sequence
		seq = &s
	}
	return []any{
		inv.ID, nullIfEmpty(inv.Number), seq, inv.PointOfSale, inv.Type, inv.Status, inv.ClientID,
		inv.IssueDate, inv.DueDate, inv.Subtotal, inv.IVAAmount, inv.Total,
		nullIfEmpty(inv.CAE), inv.CAEExpiration, inv.CreatedBy, inv.Notes,
		inv.CreatedAt, inv.UpdatedAt,
	}
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var number, cae *string
	var seq *int64
	var dueDate, caeExp *time.Time
	err := row.Scan(
		&inv.ID, &number, &seq, &inv.PointOfSale, &inv.Type, &inv.Status, &inv.ClientID,
		&inv.IssueDate, &dueDate, &inv.Subtotal, &inv.IVAAmount, &inv.Total,
		&cae, &caeExp, &inv.CreatedBy, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Number = derefStr(number)
	inv.CAE = derefStr(cae)
	if seq != nil {
		inv.Sequence = *seq
	}
	inv.DueDate = dueDate
	inv.CAEExpiration = caeExp
	return &inv, nil
}

func scanItem(row pgx.Row) (*entity.InvoiceItem, error) {
	var it entity.InvoiceItem
	err := row.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.Description, &it.Quantity,
		&it.UnitPrice, &it.IVARate, &it.Subtotal, &it.IVAAmount, &it.Total, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
