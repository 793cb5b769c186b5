// Package qr genera la imagen PNG del código QR de comprobantes.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
)

// Tamaños admitidos en píxeles.
const (
	MinSize     = 128
	MaxSize     = 1024
	DefaultSize = 256
)

var _ billing.QRImageEncoder = (*Encoder)(nil)

// Encoder implementa billing.QRImageEncoder con go-qrcode.
type Encoder struct{}

// NewEncoder construye el encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// EncodePNG devuelve el PNG del QR con content. size fuera de rango se acota.
func (e *Encoder) EncodePNG(content string, size int) ([]byte, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr: generar código: %w", err)
	}
	q.DisableBorder = false
	png, err := q.PNG(clampSize(size))
	if err != nil {
		return nil, fmt.Errorf("qr: codificar png: %w", err)
	}
	return png, nil
}

func clampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	}
	return size
}
