package billing

import (
	"context"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción con los repos de facturación.
// Si fn devuelve error no queda ningún cambio persistido.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		clientRepo repository.ClientRepository,
		productRepo repository.ProductRepository,
		invoiceRepo repository.InvoiceRepository,
	) error) error
}

// CAEAuthorizer obtiene el Código de Autorización Electrónico de una factura.
// La implementación actual es simulada; una integración real con WSFE reemplaza este puerto.
type CAEAuthorizer interface {
	Authorize(ctx context.Context, invoice *entity.Invoice) (cae string, expiration time.Time, err error)
}

// Issuer datos fiscales del emisor impresos en los comprobantes.
type Issuer struct {
	CUIT string
	Name string
}

// InvoiceDocument reúne todo lo necesario para representar una factura (PDF, XML, QR).
type InvoiceDocument struct {
	Issuer  Issuer
	Invoice *entity.Invoice
	Client  *entity.Client
	Items   []*entity.InvoiceItem
	QRURL   string // vacío si la factura no tiene CAE
}

// InvoicePDFGenerator genera la representación gráfica de una factura emitida.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, doc *InvoiceDocument) ([]byte, error)
}

// InvoiceXMLExporter serializa la factura a XML canónico y devuelve su digest (hex SHA-256).
type InvoiceXMLExporter interface {
	ExportInvoiceXML(doc *InvoiceDocument) (xml []byte, digest string, err error)
}

// QRImageEncoder codifica un contenido como imagen PNG cuadrada de size píxeles.
type QRImageEncoder interface {
	EncodePNG(content string, size int) ([]byte, error)
}
