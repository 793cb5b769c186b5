// Package pdf implementa la representación gráfica de una factura emitida.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + CUIT   │  Letra  │  N° Factura + Fecha    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RECEPTOR: Nombre + CUIT/DNI + Condición IVA                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | IVA% | Subtotal        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Neto gravado / IVA / TOTAL                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR + CAE + Vencimiento CAE                          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	appbilling "github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/afip"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

const dateLayout = "02/01/2006"

var printer = message.NewPrinter(language.MustParse("es-AR"))

// ── Generator ─────────────────────────────────────────────────────────────────

var _ appbilling.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(ctx context.Context, doc *appbilling.InvoiceDocument) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil || doc.Invoice == nil || doc.Client == nil {
		return nil, fmt.Errorf("pdf: documento incompleto")
	}
	inv := doc.Invoice

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+inv.Type+" "+inv.Number, true).
		WithAuthor(doc.Issuer.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc.Issuer, inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(receptorRow(doc.Client))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableItemRows(doc.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(caeFooterRows(inv, doc.QRURL)...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: emisor (izq), letra del comprobante (centro), número y fechas (der).
func headerRow(issuer appbilling.Issuer, inv *entity.Invoice) core.Row {
	codeLabel := ""
	if c, ok := afip.InvoiceTypeCode(inv.Type); ok {
		codeLabel = fmt.Sprintf("COD. %02d", c)
	}
	due := ""
	if inv.DueDate != nil {
		due = "Vto. pago: " + inv.DueDate.Format(dateLayout)
	}
	return row.New(22).Add(
		col.New(5).Add(
			text.New(nonEmpty(issuer.Name, "—"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("CUIT: "+nonEmpty(issuer.CUIT, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(2).Add(
			text.New(inv.Type, props.Text{
				Style: fontstyle.Bold, Size: 24, Align: align.Center, Top: 1,
			}),
			text.New(codeLabel, props.Text{
				Size: 7, Align: align.Center, Top: 13, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FACTURA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("N° "+nonEmpty(inv.Number, "(borrador)"), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New("Fecha: "+inv.IssueDate.Format(dateLayout), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
			text.New(due, props.Text{
				Size: 8, Align: align.Right, Top: 17, Color: colorGray,
			}),
		),
	)
}

// receptorRow: datos del cliente.
func receptorRow(c *entity.Client) core.Row {
	docLabel := "DNI"
	if len(c.TaxID) == 11 {
		docLabel = "CUIT"
	}
	return row.New(16).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(c.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 5,
			}),
			text.New(fmt.Sprintf("%s: %s   |   Condición IVA: %s   |   Domicilio: %s",
				docLabel, c.TaxID,
				strings.ReplaceAll(c.ClientType, "_", " "),
				nonEmpty(c.Address, "—"),
			), props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("IVA%", 1, align.Center),
		h("Subtotal", 3, align.Right),
	)
}

// tableItemRows: una fila por ítem.
func tableItemRows(items []*entity.InvoiceItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(formatQuantity(it.Quantity),
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(it.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatMoney(it.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(formatRate(it.IVARate),
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(formatMoney(it.Subtotal),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(inv *entity.Invoice) core.Row {
	label := func(s string, top float64, grand bool) core.Component {
		p := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top}
		if grand {
			p.Size, p.Color = 10, colorPrimary
		}
		return text.New(s, p)
	}
	value := func(s string, top float64, grand bool) core.Component {
		p := props.Text{Size: 9, Align: align.Right, Right: 1, Top: top}
		if grand {
			p.Style, p.Size, p.Color = fontstyle.Bold, 10, colorPrimary
		}
		return text.New(s, p)
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Neto gravado:", 1, false),
			label("IVA:", 7, false),
			label("TOTAL:", 13, true),
		),
		col.New(3).Add(
			value(formatMoney(inv.Subtotal), 1, false),
			value(formatMoney(inv.IVAAmount), 7, false),
			value(formatMoney(inv.Total), 13, true),
		),
	)
}

// caeFooterRows: QR + CAE + vencimiento.
func caeFooterRows(inv *entity.Invoice, qrURL string) []core.Row {
	caeExp := "—"
	if inv.CAEExpiration != nil {
		caeExp = inv.CAEExpiration.Format(dateLayout)
	}
	info := col.New(8).Add(
		text.New("Comprobante Autorizado", props.Text{
			Style: fontstyle.Bold, Size: 10, Top: 4, Left: 3, Color: colorPrimary,
		}),
		text.New("CAE N°: "+nonEmpty(inv.CAE, "—"), props.Text{
			Style: fontstyle.Bold, Size: 9, Top: 12, Left: 3,
		}),
		text.New("Fecha de Vto. de CAE: "+caeExp, props.Text{
			Size: 9, Top: 18, Left: 3,
		}),
	)
	if qrURL == "" {
		return []core.Row{row.New(26).Add(col.New(4), info)}
	}
	return []core.Row{row.New(40).Add(
		col.New(4).Add(code.NewQr(qrURL, props.Rect{Percent: 95, Center: true})),
		info,
	)}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formatea un importe con separadores es-AR. Ej: 1234.5 → "$ 1.234,50".
func formatMoney(d decimal.Decimal) string {
	return printer.Sprintf("$ %.2f", d.Round(2).InexactFloat64())
}

// formatQuantity muestra la cantidad sin decimales si es entera.
func formatQuantity(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return printer.Sprintf("%d", d.IntPart())
	}
	return printer.Sprintf("%.2f", d.InexactFloat64())
}

func formatRate(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(0) + "%"
	}
	return strings.Replace(d.StringFixed(1), ".", ",", 1) + "%"
}
