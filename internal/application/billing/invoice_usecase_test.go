package billing_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/afip"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

var caeRe = regexp.MustCompile(`^\d{14}$`)

type fixture struct {
	store    *memory.Store
	uc       *billing.InvoiceUseCase
	ri       *entity.Client // responsable inscripto con CUIT
	cf       *entity.Client // consumidor final con DNI
	p21      *entity.Product
	p105     *entity.Product
	inactive *entity.Product
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptrDec(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now()

	f := &fixture{store: store}
	f.ri = &entity.Client{ID: uuid.NewString(), Name: "ACME SA", TaxID: "33693450239",
		ClientType: entity.ClientTypeResponsableInscripto, IsActive: true, CreatedAt: now, UpdatedAt: now}
	f.cf = &entity.Client{ID: uuid.NewString(), Name: "Juan Pérez", TaxID: "30111222",
		ClientType: entity.ClientTypeConsumidorFinal, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Clients().Create(ctx, f.ri))
	require.NoError(t, store.Clients().Create(ctx, f.cf))

	f.p21 = &entity.Product{ID: uuid.NewString(), Code: "P21", Name: "Tornillo", Price: dec("100"),
		IVARate: entity.IVARate21, IsActive: true, CreatedAt: now, UpdatedAt: now}
	f.p105 = &entity.Product{ID: uuid.NewString(), Code: "P105", Name: "Pan", Price: dec("100"),
		IVARate: entity.IVARate10_5, IsActive: true, CreatedAt: now, UpdatedAt: now}
	f.inactive = &entity.Product{ID: uuid.NewString(), Code: "OLD", Name: "Discontinuado", Price: dec("1"),
		IVARate: entity.IVARate21, IsActive: false, CreatedAt: now, UpdatedAt: now}
	for _, p := range []*entity.Product{f.p21, f.p105, f.inactive} {
		require.NoError(t, store.Products().Create(ctx, p))
	}

	f.uc = billing.NewInvoiceUseCase(store, store.Clients(), store.Invoices(), afip.NewMockAuthorizer(10),
		billing.InvoiceConfig{Issuer: billing.Issuer{CUIT: "20123456786", Name: "Emisor SRL"}, DefaultPointOfSale: "0001"},
		logger.Nop())
	return f
}

func (f *fixture) draft(t *testing.T, clientID string, items ...dto.InvoiceItemRequest) *dto.InvoiceResponse {
	t.Helper()
	resp, err := f.uc.Create(context.Background(), "user-1", dto.CreateInvoiceRequest{ClientID: clientID, Items: items})
	require.NoError(t, err)
	return resp
}

func item(productID, qty string) dto.InvoiceItemRequest {
	return dto.InvoiceItemRequest{ProductID: productID, Quantity: dec(qty)}
}

func TestInvoiceUseCase_CreateConItems(t *testing.T) {
	f := newFixture(t)

	inv := f.draft(t, f.ri.ID, item(f.p21.ID, "3"), item(f.p105.ID, "1"))

	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, entity.InvoiceTypeA, inv.InvoiceType)
	assert.Equal(t, "0001", inv.PointOfSale)
	assert.Empty(t, inv.InvoiceNumber)
	assert.Empty(t, inv.CAE)
	assert.Equal(t, "ACME SA", inv.ClientName)
	assert.Equal(t, "user-1", inv.CreatedBy)
	assert.Equal(t, "400.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "73.50", inv.IVAAmount.StringFixed(2))
	assert.Equal(t, "473.50", inv.Total.StringFixed(2))

	require.Len(t, inv.Items, 2)
	assert.Equal(t, f.p21.ID, inv.Items[0].ProductID)
	assert.Equal(t, "300.00", inv.Items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "63.00", inv.Items[0].IVAAmount.StringFixed(2))
	assert.Equal(t, "363.00", inv.Items[0].Total.StringFixed(2))
	assert.Equal(t, f.p105.ID, inv.Items[1].ProductID)
}

func TestInvoiceUseCase_CreateTipoPorDefecto(t *testing.T) {
	f := newFixture(t)
	inv := f.draft(t, f.cf.ID)
	assert.Equal(t, entity.InvoiceTypeB, inv.InvoiceType)
	assert.True(t, inv.Total.IsZero())
	assert.Empty(t, inv.Items)
}

func TestInvoiceUseCase_CreateValidaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]dto.CreateInvoiceRequest{
		"sin cliente":          {},
		"cliente inexistente":  {ClientID: uuid.NewString()},
		"tipo inválido":        {ClientID: f.ri.ID, InvoiceType: "Z"},
		"punto de venta largo": {ClientID: f.ri.ID, PointOfSale: "123456"},
		"fecha mal formada":    {ClientID: f.ri.ID, IssueDate: "25/03/2024"},
		"vencimiento anterior": {ClientID: f.ri.ID, IssueDate: "2024-03-25", DueDate: "2024-03-01"},
		"cantidad cero":        {ClientID: f.ri.ID, Items: []dto.InvoiceItemRequest{item(f.p21.ID, "0")}},
		"producto inexistente": {ClientID: f.ri.ID, Items: []dto.InvoiceItemRequest{item(uuid.NewString(), "1")}},
		"producto inactivo":    {ClientID: f.ri.ID, Items: []dto.InvoiceItemRequest{item(f.inactive.ID, "1")}},
		"factura A sin CUIT":   {ClientID: f.cf.ID, InvoiceType: "A"},
		"punto de venta cero":  {ClientID: f.ri.ID, PointOfSale: "0000"},
		"cantidad 3 decimales": {ClientID: f.ri.ID, Items: []dto.InvoiceItemRequest{item(f.p21.ID, "1.005")}},
		"precio 3 decimales":   {ClientID: f.ri.ID, Items: []dto.InvoiceItemRequest{{ProductID: f.p21.ID, Quantity: dec("1"), UnitPrice: ptrDec("10.125")}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.Create(ctx, "user-1", in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	list, err := f.uc.List(ctx, dto.InvoiceListRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items, "las altas fallidas no dejan facturas a medias")
}

func TestInvoiceUseCase_CreateFechasYPuntoDeVenta(t *testing.T) {
	f := newFixture(t)
	inv, err := f.uc.Create(context.Background(), "user-1", dto.CreateInvoiceRequest{
		ClientID: f.ri.ID, PointOfSale: "2", IssueDate: "2024-03-25", DueDate: "2024-04-24", Notes: "entrega parcial",
	})
	require.NoError(t, err)
	assert.Equal(t, "0002", inv.PointOfSale)
	assert.Equal(t, "2024-03-25", inv.IssueDate)
	assert.Equal(t, "2024-04-24", inv.DueDate)
	assert.Equal(t, "entrega parcial", inv.Notes)
}

func TestInvoiceUseCase_PuntoDeVentaConCerosComparteNumeracion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var numbers []string
	for _, pos := range []string{"1", "00001", "0001"} {
		inv, err := f.uc.Create(ctx, "user-1", dto.CreateInvoiceRequest{ClientID: f.ri.ID, PointOfSale: pos})
		require.NoError(t, err)
		assert.Equal(t, "0001", inv.PointOfSale, pos)
		issued, err := f.uc.Issue(ctx, inv.ID)
		require.NoError(t, err)
		numbers = append(numbers, issued.InvoiceNumber)
	}
	assert.Equal(t, []string{"0001-00000001", "0001-00000002", "0001-00000003"}, numbers)

	wide, err := f.uc.Create(ctx, "user-1", dto.CreateInvoiceRequest{ClientID: f.ri.ID, PointOfSale: "012345"})
	require.NoError(t, err)
	assert.Equal(t, "12345", wide.PointOfSale)
}

func TestInvoiceUseCase_CantidadConDecimalesExactos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.draft(t, f.ri.ID, item(f.p21.ID, "1.500"))
	assert.Equal(t, "150.00", inv.Subtotal.StringFixed(2))

	_, err := f.uc.UpdateItem(ctx, inv.ID, inv.Items[0].ID, dto.UpdateInvoiceItemRequest{Quantity: ptrDec("0.333")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := f.uc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.5", got.Items[0].Quantity.String())
}

func TestInvoiceUseCase_ItemConPrecioYDescripcion(t *testing.T) {
	f := newFixture(t)
	price := dec("50")
	inv := f.draft(t, f.ri.ID, dto.InvoiceItemRequest{
		ProductID: f.p21.ID, Quantity: dec("2"), UnitPrice: &price, Description: "Tornillo con descuento",
	})
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Tornillo con descuento", inv.Items[0].Description)
	assert.Equal(t, "100.00", inv.Items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "21.00", inv.Items[0].IVAAmount.StringFixed(2))

	zero := decimal.Zero
	inv2 := f.draft(t, f.ri.ID, dto.InvoiceItemRequest{ProductID: f.p21.ID, Quantity: dec("1"), UnitPrice: &zero})
	assert.Equal(t, "100.00", inv2.Items[0].UnitPrice.StringFixed(2), "precio cero toma el del producto")
	assert.Equal(t, "Tornillo", inv2.Items[0].Description)
}

func TestInvoiceUseCase_IssueNumeracion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.draft(t, f.ri.ID, item(f.p21.ID, "1"))
	second := f.draft(t, f.ri.ID, item(f.p21.ID, "2"))

	issued1, err := f.uc.Issue(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusIssued, issued1.Status)
	assert.Equal(t, "0001-00000001", issued1.InvoiceNumber)
	assert.Regexp(t, caeRe, issued1.CAE)

	issueDate, err := time.Parse(dto.DateLayout, issued1.IssueDate)
	require.NoError(t, err)
	assert.Equal(t, issueDate.AddDate(0, 0, 10).Format(dto.DateLayout), issued1.CAEExpiration)

	issued2, err := f.uc.Issue(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "0001-00000002", issued2.InvoiceNumber)
	assert.NotEqual(t, issued1.CAE, issued2.CAE)
}

func TestInvoiceUseCase_IssueAmbitosIndependientes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.draft(t, f.ri.ID, item(f.p21.ID, "1"))
	b := f.draft(t, f.cf.ID, item(f.p21.ID, "1"))
	other, err := f.uc.Create(ctx, "user-1", dto.CreateInvoiceRequest{ClientID: f.ri.ID, PointOfSale: "0002"})
	require.NoError(t, err)

	for _, id := range []string{a.ID, b.ID, other.ID} {
		resp, err := f.uc.Issue(ctx, id)
		require.NoError(t, err)
		assert.Contains(t, []string{"0001-00000001", "0002-00000001"}, resp.InvoiceNumber)
	}

	got, err := f.uc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceTypeB, got.InvoiceType)
	assert.Equal(t, "0001-00000001", got.InvoiceNumber)
}

func TestInvoiceUseCase_IssueNoDraftNoModifica(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.draft(t, f.ri.ID, item(f.p21.ID, "1"))
	issued, err := f.uc.Issue(ctx, inv.ID)
	require.NoError(t, err)

	_, err = f.uc.Issue(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	again, err := f.uc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, issued.InvoiceNumber, again.InvoiceNumber)
	assert.Equal(t, issued.CAE, again.CAE)
	assert.Equal(t, issued.UpdatedAt, again.UpdatedAt)
}

func TestInvoiceUseCase_IssueInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Issue(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceUseCase_ResponsableInscriptoConDNISeEmiteComoB(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	riDNI := &entity.Client{ID: uuid.NewString(), Name: "Taller Gómez", TaxID: "30111223",
		ClientType: entity.ClientTypeResponsableInscripto, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.store.Clients().Create(ctx, riDNI))

	inv := f.draft(t, riDNI.ID, item(f.p21.ID, "1"))
	assert.Equal(t, entity.InvoiceTypeB, inv.InvoiceType)

	issued, err := f.uc.Issue(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusIssued, issued.Status)
	assert.Equal(t, "0001-00000001", issued.InvoiceNumber)
}

func TestInvoiceUseCase_FacturaASinCUITSeRechazaAlCrear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, "user-1", dto.CreateInvoiceRequest{ClientID: f.cf.ID, InvoiceType: "A",
		Items: []dto.InvoiceItemRequest{item(f.p21.ID, "1")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := f.uc.List(ctx, dto.InvoiceListRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestInvoiceUseCase_IssueNoSeBloqueaSiElReceptorPierdeElCUIT(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.draft(t, f.ri.ID, item(f.p21.ID, "1"))
	require.Equal(t, entity.InvoiceTypeA, inv.InvoiceType)

	// el cliente pasa a identificarse con DNI después de cargado el borrador
	changed := *f.ri
	changed.TaxID = "30111224"
	require.NoError(t, f.store.Clients().Update(ctx, &changed))

	issued, err := f.uc.Issue(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusIssued, issued.Status)
	assert.Equal(t, "0001-00000001", issued.InvoiceNumber)
	assert.Regexp(t, caeRe, issued.CAE)
}

func TestInvoiceUseCase_IssueConcurrente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const n = 10
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.draft(t, f.ri.ID, item(f.p21.ID, "1")).ID
	}

	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			resp, err := f.uc.Issue(ctx, id)
			if assert.NoError(t, err) {
				numbers <- resp.InvoiceNumber
			}
		}(id)
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "número repetido %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen["0001-00000010"])
}

func TestInvoiceUseCase_EdicionDeItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.draft(t, f.ri.ID)

	resp, err := f.uc.AddItem(ctx, inv.ID, item(f.p21.ID, "3"))
	require.NoError(t, err)
	assert.Equal(t, "363.00", resp.Total.StringFixed(2))

	resp, err = f.uc.AddItem(ctx, inv.ID, item(f.p105.ID, "1"))
	require.NoError(t, err)
	assert.Equal(t, "473.50", resp.Total.StringFixed(2))
	require.Len(t, resp.Items, 2)

	qty := dec("1")
	desc := "Tornillo x1"
	resp, err = f.uc.UpdateItem(ctx, inv.ID, resp.Items[0].ID, dto.UpdateInvoiceItemRequest{Quantity: &qty, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Tornillo x1", resp.Items[0].Description)
	assert.Equal(t, "200.00", resp.Subtotal.StringFixed(2))
	assert.Equal(t, "31.50", resp.IVAAmount.StringFixed(2))
	assert.Equal(t, "231.50", resp.Total.StringFixed(2))

	zero := decimal.Zero
	_, err = f.uc.UpdateItem(ctx, inv.ID, resp.Items[0].ID, dto.UpdateInvoiceItemRequest{Quantity: &zero})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	resp, err = f.uc.RemoveItem(ctx, inv.ID, resp.Items[1].ID)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, "121.00", resp.Total.StringFixed(2))

	_, err = f.uc.RemoveItem(ctx, inv.ID, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceUseCase_ItemDeOtraFactura(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.draft(t, f.ri.ID, item(f.p21.ID, "1"))
	b := f.draft(t, f.ri.ID)

	qty := dec("5")
	_, err := f.uc.UpdateItem(ctx, b.ID, a.Items[0].ID, dto.UpdateInvoiceItemRequest{Quantity: &qty})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceUseCase_ItemsBloqueadosTrasEmision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.draft(t, f.ri.ID, item(f.p21.ID, "1"))
	_, err := f.uc.Issue(ctx, inv.ID)
	require.NoError(t, err)

	_, err = f.uc.AddItem(ctx, inv.ID, item(f.p21.ID, "1"))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	qty := dec("2")
	_, err = f.uc.UpdateItem(ctx, inv.ID, inv.Items[0].ID, dto.UpdateInvoiceItemRequest{Quantity: &qty})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.uc.RemoveItem(ctx, inv.ID, inv.Items[0].ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.uc.ReplaceItems(ctx, inv.ID, dto.ReplaceInvoiceItemsRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorIs(t, f.uc.Delete(ctx, inv.ID), domain.ErrInvalidState)
}

func TestInvoiceUseCase_ReplaceItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.draft(t, f.ri.ID, item(f.p21.ID, "1"))

	resp, err := f.uc.ReplaceItems(ctx, inv.ID, dto.ReplaceInvoiceItemsRequest{Items: []dto.InvoiceItemRequest{
		item(f.p105.ID, "2"), item(f.p21.ID, "3"), item(f.p105.ID, "1"),
	}})
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, f.p105.ID, resp.Items[0].ProductID)
	assert.Equal(t, f.p21.ID, resp.Items[1].ProductID)
	assert.Equal(t, "600.00", resp.Subtotal.StringFixed(2))
	assert.Equal(t, "94.50", resp.IVAAmount.StringFixed(2))
	assert.Equal(t, "694.50", resp.Total.StringFixed(2))

	_, err = f.uc.ReplaceItems(ctx, inv.ID, dto.ReplaceInvoiceItemsRequest{Items: []dto.InvoiceItemRequest{
		item(f.p21.ID, "1"), item(f.inactive.ID, "1"),
	}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	after, err := f.uc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, after.Items, 3, "un lote inválido no cambia nada")
	assert.Equal(t, "694.50", after.Total.StringFixed(2))

	empty, err := f.uc.ReplaceItems(ctx, inv.ID, dto.ReplaceInvoiceItemsRequest{})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.True(t, empty.Total.IsZero())
}

func TestInvoiceUseCase_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.draft(t, f.ri.ID, item(f.p21.ID, "1"))

	require.NoError(t, f.uc.Delete(ctx, inv.ID))
	_, err := f.uc.GetByID(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	item, err := f.store.Invoices().GetItem(ctx, inv.Items[0].ID)
	require.NoError(t, err)
	assert.Nil(t, item)

	assert.ErrorIs(t, f.uc.Delete(ctx, inv.ID), domain.ErrNotFound)
}

func TestInvoiceUseCase_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.draft(t, f.ri.ID, item(f.p21.ID, "1"))
	f.draft(t, f.cf.ID)
	_, err := f.uc.Issue(ctx, a.ID)
	require.NoError(t, err)

	all, err := f.uc.List(ctx, dto.InvoiceListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	issued, err := f.uc.List(ctx, dto.InvoiceListRequest{Status: "issued"})
	require.NoError(t, err)
	require.Len(t, issued.Items, 1)
	assert.Equal(t, a.ID, issued.Items[0].ID)

	byClient, err := f.uc.List(ctx, dto.InvoiceListRequest{ClientID: f.cf.ID})
	require.NoError(t, err)
	assert.Len(t, byClient.Items, 1)

	_, err = f.uc.List(ctx, dto.InvoiceListRequest{Status: "ANULADA"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
