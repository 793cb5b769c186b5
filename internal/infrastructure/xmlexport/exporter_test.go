package xmlexport

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleDocument() *appbilling.InvoiceDocument {
	issue := time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)
	exp := issue.AddDate(0, 0, 10)
	return &appbilling.InvoiceDocument{
		Issuer: appbilling.Issuer{CUIT: "20123456786", Name: "Mi Empresa & Asociados"},
		Invoice: &entity.Invoice{
			ID: "inv-1", Number: "0001-00000001", Sequence: 1, PointOfSale: "0001",
			Type: entity.InvoiceTypeA, Status: entity.InvoiceStatusIssued, IssueDate: issue,
			Subtotal: d("400"), IVAAmount: d("73.5"), Total: d("473.5"),
			CAE: "12345678901234", CAEExpiration: &exp,
		},
		Client: &entity.Client{Name: "ACME <SA>", TaxID: "33693450239", ClientType: entity.ClientTypeResponsableInscripto},
		Items: []*entity.InvoiceItem{
			{ProductID: "p1", Description: "Tornillo", Quantity: d("3"), UnitPrice: d("100"), IVARate: d("21"),
				Subtotal: d("300"), IVAAmount: d("63"), Total: d("363")},
			{ProductID: "p2", Description: "Pan", Quantity: d("1"), UnitPrice: d("100"), IVARate: d("10.5"),
				Subtotal: d("100"), IVAAmount: d("10.5"), Total: d("110.5")},
		},
		QRURL: "https://www.afip.gob.ar/fe/qr/?p=abc",
	}
}

func TestExportInvoiceXML(t *testing.T) {
	out, digest, err := NewExporter().ExportInvoiceXML(sampleDocument())
	require.NoError(t, err)

	sum := sha256.Sum256(out)
	assert.Equal(t, hex.EncodeToString(sum[:]), digest)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "Comprobante", root.Tag)
	assert.Equal(t, "Mi Empresa & Asociados", root.FindElement("Emisor/RazonSocial").Text())
	assert.Equal(t, "ACME <SA>", root.FindElement("Receptor/Nombre").Text())
	assert.Equal(t, "80", root.FindElement("Receptor/TipoDoc").Text())
	assert.Equal(t, "1", root.FindElement("Cabecera/CodigoTipo").Text())
	assert.Equal(t, "473.50", root.FindElement("Totales/Total").Text())
	assert.Len(t, root.FindElements("Items/Item"), 2)
	assert.Equal(t, "4", root.FindElement("Items/Item[@linea='2']/AlicuotaIVA").SelectAttrValue("codigo", ""))
	assert.Equal(t, "12345678901234", root.FindElement("Autorizacion/CAE").Text())
}

func TestExportInvoiceXML_Determinista(t *testing.T) {
	a, da, err := NewExporter().ExportInvoiceXML(sampleDocument())
	require.NoError(t, err)
	b, db, err := NewExporter().ExportInvoiceXML(sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, da, db)

	changed := sampleDocument()
	changed.Items[0].Description = "Tornillo largo"
	_, dc, err := NewExporter().ExportInvoiceXML(changed)
	require.NoError(t, err)
	assert.NotEqual(t, da, dc)
}

func TestExportInvoiceXML_Borrador(t *testing.T) {
	doc := sampleDocument()
	doc.Invoice.Number, doc.Invoice.Sequence, doc.Invoice.CAE = "", 0, ""
	doc.Invoice.Status = entity.InvoiceStatusDraft
	out, _, err := NewExporter().ExportInvoiceXML(doc)
	require.NoError(t, err)

	tree := etree.NewDocument()
	require.NoError(t, tree.ReadFromBytes(out))
	assert.Nil(t, tree.Root().FindElement("Cabecera/Numero"))
	assert.Nil(t, tree.Root().FindElement("Autorizacion"))
}

func TestExportInvoiceXML_DocumentoIncompleto(t *testing.T) {
	_, _, err := NewExporter().ExportInvoiceXML(nil)
	assert.Error(t, err)
}
