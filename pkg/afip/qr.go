package afip

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// QRBaseURL es la URL de verificación de comprobantes; el payload va en el parámetro p.
const QRBaseURL = "https://www.afip.gob.ar/fe/qr/?p="

// QRData datos del código QR de un comprobante autorizado.
type QRData struct {
	Date        time.Time
	IssuerCUIT  string
	PointOfSale string
	InvoiceType string // A, B o C
	Sequence    int64
	Total       decimal.Decimal
	ReceiverID  string // CUIT o DNI del receptor
	CAE         string
}

type qrPayload struct {
	Ver        int         `json:"ver"`
	Fecha      string      `json:"fecha"`
	Cuit       int64       `json:"cuit"`
	PtoVta     int         `json:"ptoVta"`
	TipoCmp    int         `json:"tipoCmp"`
	NroCmp     int64       `json:"nroCmp"`
	Importe    json.Number `json:"importe"`
	Moneda     string      `json:"moneda"`
	Ctz        int         `json:"ctz"`
	TipoDocRec int         `json:"tipoDocRec,omitempty"`
	NroDocRec  int64       `json:"nroDocRec,omitempty"`
	TipoCodAut string      `json:"tipoCodAut"`
	CodAut     int64       `json:"codAut"`
}

// BuildQRURL arma la URL del QR: QRBaseURL + base64(JSON).
func BuildQRURL(d QRData) (string, error) {
	tipoCmp, ok := InvoiceTypeCode(d.InvoiceType)
	if !ok {
		return "", fmt.Errorf("afip: tipo de comprobante desconocido %q", d.InvoiceType)
	}
	pos, err := strconv.Atoi(d.PointOfSale)
	if err != nil {
		return "", fmt.Errorf("afip: punto de venta inválido %q", d.PointOfSale)
	}
	cae, err := strconv.ParseInt(d.CAE, 10, 64)
	if err != nil {
		return "", fmt.Errorf("afip: CAE inválido %q", d.CAE)
	}
	cuit, _ := strconv.ParseInt(string(ExtractDigits(d.IssuerCUIT)), 10, 64)

	p := qrPayload{
		Ver:        1,
		Fecha:      d.Date.Format("2006-01-02"),
		Cuit:       cuit,
		PtoVta:     pos,
		TipoCmp:    tipoCmp,
		NroCmp:     d.Sequence,
		Importe:    json.Number(d.Total.StringFixed(2)),
		Moneda:     "PES",
		Ctz:        1,
		TipoCodAut: "E",
		CodAut:     cae,
	}
	if docType := DocTypeFor(d.ReceiverID); docType != DocTypeSinIdentificar {
		p.TipoDocRec = docType
		p.NroDocRec, _ = strconv.ParseInt(string(ExtractDigits(d.ReceiverID)), 10, 64)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("afip: serializar QR: %w", err)
	}
	return QRBaseURL + base64.StdEncoding.EncodeToString(raw), nil
}
