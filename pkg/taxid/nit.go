// Package taxid valida identificaciones tributarias de empresas (NIT colombiano).
package taxid

import (
	"errors"
	"fmt"
	"strings"
)

// pesos del módulo 11 de la DIAN, alineados a la derecha del número base.
var nitWeights = [...]int{71, 67, 59, 53, 47, 43, 41, 37, 29, 23, 19, 17, 13, 7, 3}

// ErrNITFormat formato no reconocido.
var ErrNITFormat = errors.New("taxid: formato de NIT inválido")

// NormalizeNIT quita puntos, espacios y guion. "900.123.456-7" => "9001234567".
func NormalizeNIT(nit string) (string, error) {
	var b strings.Builder
	for _, r := range nit {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == ' ':
		default:
			return "", ErrNITFormat
		}
	}
	out := b.String()
	if len(out) < 2 || len(out) > len(nitWeights)+1 {
		return "", ErrNITFormat
	}
	return out, nil
}

// CheckDigit calcula el dígito de verificación de base (solo dígitos, sin DV).
func CheckDigit(base string) (byte, error) {
	if base == "" || len(base) > len(nitWeights) {
		return 0, ErrNITFormat
	}
	offset := len(nitWeights) - len(base)
	sum := 0
	for i := 0; i < len(base); i++ {
		d := base[i]
		if d < '0' || d > '9' {
			return 0, ErrNITFormat
		}
		sum += int(d-'0') * nitWeights[offset+i]
	}
	r := sum % 11
	if r > 1 {
		r = 11 - r
	}
	return byte('0' + r), nil
}

// ValidateNIT valida que el último dígito sea el DV correcto.
func ValidateNIT(nit string) error {
	digits, err := NormalizeNIT(nit)
	if err != nil {
		return err
	}
	base, dv := digits[:len(digits)-1], digits[len(digits)-1]
	want, err := CheckDigit(base)
	if err != nil {
		return err
	}
	if want != dv {
		return fmt.Errorf("taxid: dígito de verificación inválido: esperado %c, recibido %c", want, dv)
	}
	return nil
}
