package afip

import (
	"fmt"
	"unicode"
)

// pesos del dígito verificador de CUIT/CUIL, aplicados a los 10 primeros dígitos.
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ComputeCUITCheckDigit calcula el dígito verificador (módulo 11) para los 10 primeros dígitos.
func ComputeCUITCheckDigit(taxID string) (byte, error) {
	digits := ExtractDigits(taxID)
	if len(digits) < 10 {
		return 0, fmt.Errorf("afip: se requieren al menos 10 dígitos, se encontraron %d", len(digits))
	}
	var sum int
	for i, w := range cuitWeights {
		sum += int(digits[i]-'0') * w
	}
	dv := 11 - sum%11
	switch dv {
	case 11:
		dv = 0
	case 10:
		dv = 9
	}
	return byte('0' + dv), nil
}

// ValidateCUIT valida un CUIT/CUIL de 11 dígitos ("20-12345678-6", "20123456786").
func ValidateCUIT(taxID string) error {
	if err := checkTaxIDChars(taxID); err != nil {
		return err
	}
	digits := ExtractDigits(taxID)
	if len(digits) != 11 {
		return fmt.Errorf("afip: el CUIT debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	expected, err := ComputeCUITCheckDigit(taxID)
	if err != nil {
		return err
	}
	if digits[10] != expected {
		return fmt.Errorf("afip: dígito verificador del CUIT inválido: esperado %c, recibido %c", expected, digits[10])
	}
	return nil
}

// ValidateTaxID acepta un CUIT válido (11 dígitos) o un DNI (7 u 8 dígitos).
// Como separadores solo se admiten guiones, puntos y espacios.
func ValidateTaxID(taxID string) error {
	if err := checkTaxIDChars(taxID); err != nil {
		return err
	}
	switch n := len(ExtractDigits(taxID)); {
	case n == 11:
		return ValidateCUIT(taxID)
	case n == 7 || n == 8:
		return nil
	default:
		return fmt.Errorf("afip: identificador fiscal con %d dígitos no es CUIT ni DNI", n)
	}
}

func checkTaxIDChars(taxID string) error {
	for _, r := range taxID {
		switch {
		case r >= '0' && r <= '9', r == '-', r == '.', r == ' ':
		default:
			return fmt.Errorf("afip: carácter %q no permitido en el identificador fiscal", r)
		}
	}
	return nil
}

// ExtractDigits devuelve solo los dígitos de s.
func ExtractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
