package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/fiscal"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/afip"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// InvoiceConfig parámetros del emisor para facturas nuevas.
type InvoiceConfig struct {
	Issuer             Issuer
	DefaultPointOfSale string
}

// InvoiceUseCase ciclo de vida de la factura: alta en DRAFT, edición de ítems y emisión.
// Toda escritura corre en una transacción de BillingTxRunner y termina con un único recálculo de totales.
type InvoiceUseCase struct {
	txRunner    BillingTxRunner
	clientRepo  repository.ClientRepository
	invoiceRepo repository.InvoiceRepository
	authorizer  CAEAuthorizer
	cfg         InvoiceConfig
	log         *logger.Logger
	now         func() time.Time
}

// NewInvoiceUseCase construye el caso de uso. Los repos se usan solo para lecturas fuera de transacción.
func NewInvoiceUseCase(
	txRunner BillingTxRunner,
	clientRepo repository.ClientRepository,
	invoiceRepo repository.InvoiceRepository,
	authorizer CAEAuthorizer,
	cfg InvoiceConfig,
	log *logger.Logger,
) *InvoiceUseCase {
	if cfg.DefaultPointOfSale == "" {
		cfg.DefaultPointOfSale = "0001"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceUseCase{
		txRunner:    txRunner,
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
		authorizer:  authorizer,
		cfg:         cfg,
		log:         log.Named("invoices"),
		now:         time.Now,
	}
}

// Create crea una factura en DRAFT, opcionalmente con sus ítems.
func (uc *InvoiceUseCase) Create(ctx context.Context, userID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if strings.TrimSpace(in.ClientID) == "" {
		return nil, fmt.Errorf("%w: client_id es obligatorio", domain.ErrInvalidInput)
	}
	pos, err := normalizePointOfSale(in.PointOfSale, uc.cfg.DefaultPointOfSale)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	issueDate := entity.DateOnly(now)
	if in.IssueDate != "" {
		if issueDate, err = parseDate("issue_date", in.IssueDate); err != nil {
			return nil, err
		}
	}
	var dueDate *time.Time
	if in.DueDate != "" {
		due, err := parseDate("due_date", in.DueDate)
		if err != nil {
			return nil, err
		}
		if due.Before(issueDate) {
			return nil, fmt.Errorf("%w: due_date anterior a issue_date", domain.ErrInvalidInput)
		}
		dueDate = &due
	}

	inv := &entity.Invoice{
		ID:          uuid.New().String(),
		PointOfSale: pos,
		Status:      entity.InvoiceStatusDraft,
		ClientID:    in.ClientID,
		IssueDate:   issueDate,
		DueDate:     dueDate,
		Subtotal:    decimal.Zero,
		IVAAmount:   decimal.Zero,
		Total:       decimal.Zero,
		CreatedBy:   userID,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = uc.txRunner.RunBilling(ctx, func(
		clientRepo repository.ClientRepository,
		productRepo repository.ProductRepository,
		invoiceRepo repository.InvoiceRepository,
	) error {
		client, err := clientRepo.GetByID(ctx, in.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return fmt.Errorf("%w: el cliente %s no existe", domain.ErrInvalidInput, in.ClientID)
		}
		inv.Type = strings.ToUpper(strings.TrimSpace(in.InvoiceType))
		if inv.Type == "" {
			inv.Type = afip.DefaultInvoiceType(client.ClientType, client.TaxID)
		}
		if !entity.ValidInvoiceType(inv.Type) {
			return fmt.Errorf("%w: invoice_type %q (A, B o C)", domain.ErrInvalidInput, in.InvoiceType)
		}
		if err := fiscal.ValidateReceptor(inv.Type, client); err != nil {
			return err
		}
		if err := invoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		if len(in.Items) == 0 {
			return nil
		}
		if err := uc.insertItems(ctx, productRepo, invoiceRepo, inv.ID, in.Items, now); err != nil {
			return err
		}
		return uc.refreshTotals(ctx, invoiceRepo, inv, now)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("client_id", inv.ClientID).Int("items", len(in.Items)).Msg("factura creada en borrador")
	return uc.GetByID(ctx, inv.ID)
}

// GetByID devuelve la factura con sus ítems y el nombre del cliente.
func (uc *InvoiceUseCase) GetByID(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.invoiceRepo.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	if client, err := uc.clientRepo.GetByID(ctx, inv.ClientID); err == nil && client != nil {
		resp.ClientName = client.Name
	}
	resp.Items = make([]dto.InvoiceItemResponse, 0, len(items))
	for _, it := range items {
		resp.Items = append(resp.Items, ToInvoiceItemResponse(it))
	}
	return resp, nil
}

// List lista facturas (sin ítems), más recientes primero.
func (uc *InvoiceUseCase) List(ctx context.Context, in dto.InvoiceListRequest) (*dto.InvoiceListResponse, error) {
	in.DefaultPage()
	status := strings.ToUpper(strings.TrimSpace(in.Status))
	if status != "" && !entity.ValidInvoiceStatus(status) {
		return nil, fmt.Errorf("%w: status %q desconocido", domain.ErrInvalidInput, in.Status)
	}
	list, err := uc.invoiceRepo.List(ctx, repository.InvoiceFilter{
		Status:   status,
		ClientID: in.ClientID,
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.InvoiceListResponse{
		Items: make([]dto.InvoiceResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}
	for _, inv := range list {
		out.Items = append(out.Items, *ToInvoiceResponse(inv))
	}
	return out, nil
}

// Delete elimina una factura en DRAFT junto con sus ítems.
func (uc *InvoiceUseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.RunBilling(ctx, func(
		_ repository.ClientRepository,
		_ repository.ProductRepository,
		invoiceRepo repository.InvoiceRepository,
	) error {
		inv, err := lockDraft(ctx, invoiceRepo, id)
		if err != nil {
			return err
		}
		return invoiceRepo.Delete(ctx, inv.ID)
	})
}

// AddItem agrega una línea a una factura en DRAFT.
func (uc *InvoiceUseCase) AddItem(ctx context.Context, invoiceID string, in dto.InvoiceItemRequest) (*dto.InvoiceResponse, error) {
	err := uc.txRunner.RunBilling(ctx, func(
		_ repository.ClientRepository,
		productRepo repository.ProductRepository,
		invoiceRepo repository.InvoiceRepository,
	) error {
		inv, err := lockDraft(ctx, invoiceRepo, invoiceID)
		if err != nil {
			return err
		}
		now := uc.now()
		item, err := buildItem(ctx, productRepo, inv.ID, in, now)
		if err != nil {
			return err
		}
		if err := invoiceRepo.CreateItem(ctx, item); err != nil {
			return err
		}
		return uc.refreshTotals(ctx, invoiceRepo, inv, now)
	})
	if err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, invoiceID)
}

// UpdateItem cambia cantidad y/o descripción de una línea. Precio y alícuota quedan como se cargaron.
func (uc *InvoiceUseCase) UpdateItem(ctx context.Context, invoiceID, itemID string, in dto.UpdateInvoiceItemRequest) (*dto.InvoiceResponse, error) {
	err := uc.txRunner.RunBilling(ctx, func(
		_ repository.ClientRepository,
		_ repository.ProductRepository,
		invoiceRepo repository.InvoiceRepository,
	) error {
		inv, err := lockDraft(ctx, invoiceRepo, invoiceID)
		if err != nil {
			return err
		}
		item, err := findItem(ctx, invoiceRepo, inv.ID, itemID)
		if err != nil {
			return err
		}
		if in.Quantity != nil {
			qty, err := validQuantity(*in.Quantity)
			if err != nil {
				return err
			}
			item.Quantity = qty
		}
		if in.Description != nil {
			desc := strings.TrimSpace(*in.Description)
			if desc == "" {
				return fmt.Errorf("%w: la descripción no puede quedar vacía", domain.ErrInvalidInput)
			}
			item.Description = desc
		}
		now := uc.now()
		item.Recalculate()
		item.UpdatedAt = now
		if err := invoiceRepo.UpdateItem(ctx, item); err != nil {
			return err
		}
		return uc.refreshTotals(ctx, invoiceRepo, inv, now)
	})
	if err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, invoiceID)
}

// RemoveItem quita una línea de una factura en DRAFT.
func (uc *InvoiceUseCase) RemoveItem(ctx context.Context, invoiceID, itemID string) (*dto.InvoiceResponse, error) {
	err := uc.txRunner.RunBilling(ctx, func(
		_ repository.ClientRepository,
		_ repository.ProductRepository,
		invoiceRepo repository.InvoiceRepository,
	) error {
		inv, err := lockDraft(ctx, invoiceRepo, invoiceID)
		if err != nil {
			return err
		}
		if _, err := findItem(ctx, invoiceRepo, inv.ID, itemID); err != nil {
			return err
		}
		if err := invoiceRepo.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		return uc.refreshTotals(ctx, invoiceRepo, inv, uc.now())
	})
	if err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, invoiceID)
}

// ReplaceItems reemplaza el conjunto completo de líneas y recalcula los totales una sola vez.
// Una lista vacía deja la factura sin ítems y en cero.
func (uc *InvoiceUseCase) ReplaceItems(ctx context.Context, invoiceID string, in dto.ReplaceInvoiceItemsRequest) (*dto.InvoiceResponse, error) {
	err := uc.txRunner.RunBilling(ctx, func(
		_ repository.ClientRepository,
		productRepo repository.ProductRepository,
		invoiceRepo repository.InvoiceRepository,
	) error {
		inv, err := lockDraft(ctx, invoiceRepo, invoiceID)
		if err != nil {
			return err
		}
		if err := invoiceRepo.DeleteItemsByInvoiceID(ctx, inv.ID); err != nil {
			return err
		}
		now := uc.now()
		if err := uc.insertItems(ctx, productRepo, invoiceRepo, inv.ID, in.Items, now); err != nil {
			return err
		}
		return uc.refreshTotals(ctx, invoiceRepo, inv, now)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", invoiceID).Int("items", len(in.Items)).Msg("ítems de factura reemplazados")
	return uc.GetByID(ctx, invoiceID)
}

// Issue emite la factura: DRAFT → ISSUED con número correlativo en su ámbito (tipo, punto de venta) y CAE.
// Si la factura no está en DRAFT devuelve un error de validación (ErrInvalidState y ErrInvalidInput)
// y no modifica nada. Es la única regla que rechaza la emisión; las fiscales solo se registran.
func (uc *InvoiceUseCase) Issue(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	var issued *entity.Invoice
	err := uc.txRunner.RunBilling(ctx, func(
		clientRepo repository.ClientRepository,
		_ repository.ProductRepository,
		invoiceRepo repository.InvoiceRepository,
	) error {
		inv, err := lockDraft(ctx, invoiceRepo, id)
		if err != nil {
			return err
		}
		items, err := invoiceRepo.ListItems(ctx, inv.ID)
		if err != nil {
			return err
		}
		client, err := clientRepo.GetByID(ctx, inv.ClientID)
		if err != nil {
			return err
		}
		// los totales se rehacen desde los ítems; las reglas fiscales quedan como observación
		inv.RecalculateTotals(items)
		if err := fiscal.ValidateForIssue(inv, items, client); err != nil {
			uc.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("observaciones fiscales en la emisión")
		}

		if inv.Number == "" {
			if err := invoiceRepo.LockNumberingScope(ctx, inv.Type, inv.PointOfSale); err != nil {
				return err
			}
			maxSeq, err := invoiceRepo.MaxSequence(ctx, inv.Type, inv.PointOfSale)
			if err != nil {
				return err
			}
			inv.AssignNumber(maxSeq + 1)
		}
		if inv.CAE == "" {
			cae, exp, err := uc.authorizer.Authorize(ctx, inv)
			if err != nil {
				return fmt.Errorf("autorizar CAE: %w", err)
			}
			inv.AssignCAE(cae, exp)
		}
		if err := inv.MarkIssued(uc.now()); err != nil {
			return err
		}
		if err := invoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		issued = inv
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("invoice_id", id).Msg("emisión rechazada")
		return nil, err
	}
	uc.log.Info().
		Str("invoice_id", issued.ID).
		Str("invoice_number", issued.Number).
		Str("invoice_type", issued.Type).
		Str("cae", issued.CAE).
		Str("total", issued.Total.StringFixed(2)).
		Msg("factura emitida")
	return uc.GetByID(ctx, id)
}

// refreshTotals recalcula la cabecera desde el conjunto vigente de ítems y la persiste.
func (uc *InvoiceUseCase) refreshTotals(ctx context.Context, invoiceRepo repository.InvoiceRepository, inv *entity.Invoice, now time.Time) error {
	items, err := invoiceRepo.ListItems(ctx, inv.ID)
	if err != nil {
		return err
	}
	inv.RecalculateTotals(items)
	inv.UpdatedAt = now
	return invoiceRepo.Update(ctx, inv)
}

// insertItems crea las líneas en orden; CreatedAt avanza 1µs por línea para conservar el orden de carga.
func (uc *InvoiceUseCase) insertItems(ctx context.Context, productRepo repository.ProductRepository, invoiceRepo repository.InvoiceRepository, invoiceID string, reqs []dto.InvoiceItemRequest, now time.Time) error {
	for i, req := range reqs {
		item, err := buildItem(ctx, productRepo, invoiceID, req, now.Add(time.Duration(i)*time.Microsecond))
		if err != nil {
			return fmt.Errorf("ítem %d: %w", i+1, err)
		}
		if err := invoiceRepo.CreateItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func buildItem(ctx context.Context, productRepo repository.ProductRepository, invoiceID string, in dto.InvoiceItemRequest, now time.Time) (*entity.InvoiceItem, error) {
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, fmt.Errorf("%w: product_id es obligatorio", domain.ErrInvalidInput)
	}
	qty, err := validQuantity(in.Quantity)
	if err != nil {
		return nil, err
	}
	product, err := productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: el producto %s no existe", domain.ErrInvalidInput, in.ProductID)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: el producto %s está inactivo", domain.ErrInvalidInput, product.Code)
	}
	item := entity.NewInvoiceItem(uuid.New().String(), invoiceID, product, qty, now)
	if in.UnitPrice != nil && !in.UnitPrice.IsZero() {
		if in.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: unit_price negativo", domain.ErrInvalidInput)
		}
		if !hasAtMostTwoDecimals(*in.UnitPrice) {
			return nil, fmt.Errorf("%w: unit_price %s tiene más de 2 decimales", domain.ErrInvalidInput, in.UnitPrice)
		}
		item.UnitPrice = in.UnitPrice.Round(2)
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		item.Description = desc
	}
	item.Recalculate()
	return item, nil
}

func validQuantity(q decimal.Decimal) (decimal.Decimal, error) {
	if !q.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: la cantidad debe ser mayor a cero", domain.ErrInvalidInput)
	}
	if !hasAtMostTwoDecimals(q) {
		return decimal.Zero, fmt.Errorf("%w: la cantidad %s tiene más de 2 decimales", domain.ErrInvalidInput, q)
	}
	return q.Round(2), nil
}

// hasAtMostTwoDecimals acepta "1.5" y "1.500" pero no "1.005".
func hasAtMostTwoDecimals(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

// lockDraft bloquea la factura para la transacción y exige estado DRAFT.
func lockDraft(ctx context.Context, invoiceRepo repository.InvoiceRepository, id string) (*entity.Invoice, error) {
	inv, err := invoiceRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if err := inv.EnsureDraft(); err != nil {
		return nil, err
	}
	return inv, nil
}

func findItem(ctx context.Context, invoiceRepo repository.InvoiceRepository, invoiceID, itemID string) (*entity.InvoiceItem, error) {
	item, err := invoiceRepo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.InvoiceID != invoiceID {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// normalizePointOfSale lleva el punto de venta a un único formato: sin ceros a la izquierda
// y completado a 4 dígitos ("1" y "00001" → "0001"; "12345" queda igual).
func normalizePointOfSale(raw, fallback string) (string, error) {
	pos := strings.TrimSpace(raw)
	if pos == "" {
		pos = fallback
	}
	trimmed := strings.TrimLeft(pos, "0")
	if !afip.ValidPointOfSale(trimmed) {
		return "", fmt.Errorf("%w: punto de venta %q inválido", domain.ErrInvalidInput, pos)
	}
	if len(trimmed) < 4 {
		trimmed = strings.Repeat("0", 4-len(trimmed)) + trimmed
	}
	return trimmed, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dto.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s debe tener formato YYYY-MM-DD", domain.ErrInvalidInput, field)
	}
	return t, nil
}

// ToInvoiceResponse convierte la cabecera a DTO (sin ítems).
func ToInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.Number,
		PointOfSale:   inv.PointOfSale,
		InvoiceType:   inv.Type,
		Status:        inv.Status,
		ClientID:      inv.ClientID,
		IssueDate:     inv.IssueDate.Format(dto.DateLayout),
		Subtotal:      inv.Subtotal,
		IVAAmount:     inv.IVAAmount,
		Total:         inv.Total,
		CAE:           inv.CAE,
		CreatedBy:     inv.CreatedBy,
		Notes:         inv.Notes,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	if inv.DueDate != nil {
		resp.DueDate = inv.DueDate.Format(dto.DateLayout)
	}
	if inv.CAEExpiration != nil {
		resp.CAEExpiration = inv.CAEExpiration.Format(dto.DateLayout)
	}
	return resp
}

// ToInvoiceItemResponse convierte una línea a DTO.
func ToInvoiceItemResponse(it *entity.InvoiceItem) dto.InvoiceItemResponse {
	return dto.InvoiceItemResponse{
		ID:          it.ID,
		ProductID:   it.ProductID,
		Description: it.Description,
		Quantity:    it.Quantity,
		UnitPrice:   it.UnitPrice,
		IVARate:     it.IVARate,
		Subtotal:    it.Subtotal,
		IVAAmount:   it.IVAAmount,
		Total:       it.Total,
	}
}
