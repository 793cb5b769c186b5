package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/pkg/textenc"
)

// Columnas del CSV de productos. code, name y price son obligatorias.
var importColumns = []string{"code", "name", "description", "price", "iva_rate", "stock"}

// ImportCSV da de alta productos desde un CSV con encabezado.
// Acepta separador coma o punto y coma y cualquier codificación que detecte textenc.
// Las filas inválidas o con código repetido se informan en Skipped y no cortan la importación.
func (uc *ProductUseCase) ImportCSV(ctx context.Context, r io.Reader) (*dto.ProductImportResponse, error) {
	utf8r, charset, err := textenc.NewUTF8Reader(r)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	cr := csv.NewReader(strings.NewReader(string(body)))
	cr.Comma = detectComma(body)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: csv sin encabezado", domain.ErrInvalidInput)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"code", "name", "price"} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("%w: falta la columna %q (columnas: %s)", domain.ErrInvalidInput, req, strings.Join(importColumns, ","))
		}
	}

	out := &dto.ProductImportResponse{Charset: charset, Skipped: []dto.ImportIssue{}}
	seen := make(map[string]bool)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				out.Skipped = append(out.Skipped, dto.ImportIssue{Line: pe.StartLine, Reason: pe.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		field := func(name string) string {
			if i, ok := cols[name]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		code := field("code")
		if code == "" && field("name") == "" {
			continue
		}
		in, perr := parseImportRow(field)
		if perr != nil {
			out.Skipped = append(out.Skipped, dto.ImportIssue{Line: line, Code: code, Reason: perr.Error()})
			continue
		}
		if seen[code] {
			out.Skipped = append(out.Skipped, dto.ImportIssue{Line: line, Code: code, Reason: "código repetido en el archivo"})
			continue
		}
		seen[code] = true
		if _, err := uc.Create(ctx, in); err != nil {
			if errors.Is(err, domain.ErrDuplicate) || errors.Is(err, domain.ErrInvalidInput) {
				out.Skipped = append(out.Skipped, dto.ImportIssue{Line: line, Code: code, Reason: err.Error()})
				continue
			}
			return nil, err
		}
		out.Created++
	}
	return out, nil
}

func parseImportRow(field func(string) string) (dto.CreateProductRequest, error) {
	in := dto.CreateProductRequest{
		Code:        field("code"),
		Name:        field("name"),
		Description: field("description"),
	}
	price, err := parseAmount(field("price"))
	if err != nil {
		return in, fmt.Errorf("price inválido: %q", field("price"))
	}
	in.Price = price
	if raw := field("iva_rate"); raw != "" {
		rate, err := parseAmount(strings.TrimSuffix(raw, "%"))
		if err != nil {
			return in, fmt.Errorf("iva_rate inválido: %q", raw)
		}
		in.IVARate = &rate
	}
	if raw := field("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return in, fmt.Errorf("stock inválido: %q", raw)
		}
		in.Stock = stock
	}
	return in, nil
}

// parseAmount acepta "1234.5" y también la coma decimal de las planillas locales ("1234,5").
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

// detectComma elige ';' si el encabezado lo usa en lugar de ','.
func detectComma(body []byte) rune {
	first := string(body)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}
