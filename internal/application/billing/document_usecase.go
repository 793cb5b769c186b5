package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/afip"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// DocumentUseCase genera las representaciones de una factura: PDF, XML y QR.
type DocumentUseCase struct {
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	issuer      Issuer
	pdf         InvoicePDFGenerator
	xml         InvoiceXMLExporter
	qr          QRImageEncoder
	log         *logger.Logger
}

// NewDocumentUseCase construye el caso de uso inyectando todas sus dependencias.
func NewDocumentUseCase(
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	issuer Issuer,
	pdf InvoicePDFGenerator,
	xml InvoiceXMLExporter,
	qr QRImageEncoder,
	log *logger.Logger,
) *DocumentUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentUseCase{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		issuer:      issuer,
		pdf:         pdf,
		xml:         xml,
		qr:          qr,
		log:         log.Named("documents"),
	}
}

// DownloadInvoicePDF genera el PDF de una factura emitida.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe.
//   - domain.ErrInvalidState     si la factura sigue en DRAFT.
func (uc *DocumentUseCase) DownloadInvoicePDF(ctx context.Context, invoiceID string) (pdfBytes []byte, filename string, err error) {
	doc, err := uc.loadDocument(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	if doc.Invoice.IsDraft() {
		return nil, "", fmt.Errorf("%w: la factura está en DRAFT, emítala antes de descargar el PDF", domain.ErrInvalidState)
	}
	pdfBytes, err = uc.pdf.GenerateInvoicePDF(ctx, doc)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fileName(doc.Invoice, "pdf"), nil
}

// ExportInvoiceXML devuelve el XML canónico de la factura (cualquier estado) y su digest SHA-256.
func (uc *DocumentUseCase) ExportInvoiceXML(ctx context.Context, invoiceID string) (xmlBytes []byte, digest, filename string, err error) {
	doc, err := uc.loadDocument(ctx, invoiceID)
	if err != nil {
		return nil, "", "", err
	}
	xmlBytes, digest, err = uc.xml.ExportInvoiceXML(doc)
	if err != nil {
		return nil, "", "", err
	}
	return xmlBytes, digest, fileName(doc.Invoice, "xml"), nil
}

// InvoiceQRCode devuelve el PNG del QR fiscal. Requiere CAE.
func (uc *DocumentUseCase) InvoiceQRCode(ctx context.Context, invoiceID string, size int) ([]byte, error) {
	doc, err := uc.loadDocument(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if doc.QRURL == "" {
		return nil, fmt.Errorf("%w: la factura no tiene CAE", domain.ErrInvalidState)
	}
	return uc.qr.EncodePNG(doc.QRURL, size)
}

func (uc *DocumentUseCase) loadDocument(ctx context.Context, invoiceID string) (*InvoiceDocument, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	client, err := uc.clientRepo.GetByID(ctx, inv.ClientID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("cliente %s de la factura %s no encontrado", inv.ClientID, inv.ID)
	}
	items, err := uc.invoiceRepo.ListItems(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("obtener ítems: %w", err)
	}
	doc := &InvoiceDocument{Issuer: uc.issuer, Invoice: inv, Client: client, Items: items}
	if inv.CAE != "" {
		doc.QRURL, err = afip.BuildQRURL(afip.QRData{
			Date:        inv.IssueDate,
			IssuerCUIT:  uc.issuer.CUIT,
			PointOfSale: inv.PointOfSale,
			InvoiceType: inv.Type,
			Sequence:    inv.Sequence,
			Total:       inv.Total,
			ReceiverID:  client.TaxID,
			CAE:         inv.CAE,
		})
		if err != nil {
			uc.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("no se pudo armar el QR")
			doc.QRURL = ""
		}
	}
	return doc, nil
}

func fileName(inv *entity.Invoice, ext string) string {
	if inv.Number == "" {
		return fmt.Sprintf("factura_borrador_%s.%s", inv.ID, ext)
	}
	return fmt.Sprintf("factura_%s_%s.%s", inv.Type, inv.Number, ext)
}
