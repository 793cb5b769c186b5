// Package xmlexport serializa facturas a XML canónico (C14N) para intercambio con sistemas contables.
package xmlexport

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/ucarion/c14n"

	appbilling "github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/pkg/afip"
)

// Namespace del documento exportado.
const Namespace = "urn:facturacion-api:comprobante:1"

const dateLayout = "2006-01-02"

var _ appbilling.InvoiceXMLExporter = (*Exporter)(nil)

// Exporter implementa billing.InvoiceXMLExporter con etree y c14n.
type Exporter struct{}

// NewExporter construye el exportador.
func NewExporter() *Exporter { return &Exporter{} }

// ExportInvoiceXML devuelve el XML canónico de la factura y el SHA-256 (hex) de esos bytes.
// La misma factura produce siempre los mismos bytes.
func (e *Exporter) ExportInvoiceXML(doc *appbilling.InvoiceDocument) ([]byte, string, error) {
	if doc == nil || doc.Invoice == nil || doc.Client == nil {
		return nil, "", fmt.Errorf("xmlexport: documento incompleto")
	}
	tree := build(doc)

	var raw bytes.Buffer
	if _, err := tree.WriteTo(&raw); err != nil {
		return nil, "", fmt.Errorf("xmlexport: serializar: %w", err)
	}
	canonical, err := canonicalize(raw.Bytes())
	if err != nil {
		return nil, "", fmt.Errorf("xmlexport: canonicalizar: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return canonical, hex.EncodeToString(sum[:]), nil
}

func build(doc *appbilling.InvoiceDocument) *etree.Document {
	inv := doc.Invoice
	tree := etree.NewDocument()
	root := tree.CreateElement("Comprobante")
	root.CreateAttr("xmlns", Namespace)
	root.CreateAttr("id", inv.ID)

	emisor := root.CreateElement("Emisor")
	emisor.CreateElement("CUIT").SetText(doc.Issuer.CUIT)
	emisor.CreateElement("RazonSocial").SetText(doc.Issuer.Name)

	rec := root.CreateElement("Receptor")
	docType := rec.CreateElement("TipoDoc")
	docType.SetText(strconv.Itoa(afip.DocTypeFor(doc.Client.TaxID)))
	rec.CreateElement("NroDoc").SetText(doc.Client.TaxID)
	rec.CreateElement("Nombre").SetText(doc.Client.Name)
	rec.CreateElement("CondicionIVA").SetText(doc.Client.ClientType)

	cab := root.CreateElement("Cabecera")
	cab.CreateElement("Tipo").SetText(inv.Type)
	if code, ok := afip.InvoiceTypeCode(inv.Type); ok {
		cab.CreateElement("CodigoTipo").SetText(strconv.Itoa(code))
	}
	cab.CreateElement("PuntoVenta").SetText(inv.PointOfSale)
	if inv.Sequence > 0 {
		cab.CreateElement("Secuencia").SetText(strconv.FormatInt(inv.Sequence, 10))
		cab.CreateElement("Numero").SetText(inv.Number)
	}
	cab.CreateElement("Estado").SetText(inv.Status)
	cab.CreateElement("FechaEmision").SetText(inv.IssueDate.Format(dateLayout))
	if inv.DueDate != nil {
		cab.CreateElement("FechaVencimiento").SetText(inv.DueDate.Format(dateLayout))
	}

	items := root.CreateElement("Items")
	for i, it := range doc.Items {
		el := items.CreateElement("Item")
		el.CreateAttr("linea", strconv.Itoa(i+1))
		el.CreateElement("ProductoID").SetText(it.ProductID)
		el.CreateElement("Descripcion").SetText(it.Description)
		el.CreateElement("Cantidad").SetText(it.Quantity.StringFixed(2))
		el.CreateElement("PrecioUnitario").SetText(amount(it.UnitPrice))
		alic := el.CreateElement("AlicuotaIVA")
		alic.SetText(amount(it.IVARate))
		if code, ok := afip.IVARateCode(it.IVARate); ok {
			alic.CreateAttr("codigo", strconv.Itoa(code))
		}
		el.CreateElement("Subtotal").SetText(amount(it.Subtotal))
		el.CreateElement("ImporteIVA").SetText(amount(it.IVAAmount))
		el.CreateElement("Total").SetText(amount(it.Total))
	}

	tot := root.CreateElement("Totales")
	tot.CreateElement("Neto").SetText(amount(inv.Subtotal))
	tot.CreateElement("IVA").SetText(amount(inv.IVAAmount))
	tot.CreateElement("Total").SetText(amount(inv.Total))
	tot.CreateElement("Moneda").SetText("PES")

	if inv.CAE != "" {
		aut := root.CreateElement("Autorizacion")
		aut.CreateElement("CAE").SetText(inv.CAE)
		if inv.CAEExpiration != nil {
			aut.CreateElement("VencimientoCAE").SetText(inv.CAEExpiration.Format(dateLayout))
		}
		if doc.QRURL != "" {
			aut.CreateElement("QR").SetText(doc.QRURL)
		}
	}
	return tree
}

func amount(d decimal.Decimal) string { return d.StringFixed(2) }

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}
