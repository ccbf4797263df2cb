// Package ledger contiene las reglas puras de partida doble (servicio de dominio, sin I/O).
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// MoneyScale decimales de montos y saldos.
const MoneyScale = 2

// Límites de representación de un monto. Las columnas son NUMERIC(18,2): |monto| < 10^16.
const (
	minAmountExponent = -18
	maxAmountExponent = 16
)

var maxAmount = decimal.New(1, maxAmountExponent)

// InRange informa si d es representable como monto. Se evalúa antes de Round o String:
// un exponente extremo ("1e30000000") obliga a reescalar con enteros gigantes.
func InRange(d decimal.Decimal) bool {
	if e := d.Exponent(); e < minAmountExponent || e > maxAmountExponent {
		return false
	}
	return d.Abs().LessThan(maxAmount)
}

// HasScale informa si d no tiene más de places decimales significativos.
func HasScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Round(places))
}

// ValidAmount monto positivo, representable y con máximo MoneyScale decimales.
func ValidAmount(d decimal.Decimal) bool {
	return InRange(d) && d.IsPositive() && HasScale(d, MoneyScale)
}

// ValidateLine aplica el paso 1: montos en rango, no negativos, exactamente uno positivo, escala ≤ 2.
func ValidateLine(index int, l entity.JournalEntryLine) error {
	details := map[string]any{"line": index + 1}
	if !InRange(l.DebitAmount) || !InRange(l.CreditAmount) {
		return domain.ErrValidation.WithMessage("monto fuera de rango").WithDetails(details)
	}
	if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() {
		return domain.ErrValidation.WithMessage("los montos no pueden ser negativos").WithDetails(details)
	}
	if l.DebitAmount.IsPositive() == l.CreditAmount.IsPositive() {
		return domain.ErrValidation.WithMessage("cada línea debe tener exactamente un monto positivo (débito o crédito)").WithDetails(details)
	}
	if !HasScale(l.DebitAmount, MoneyScale) || !HasScale(l.CreditAmount, MoneyScale) {
		return domain.ErrValidation.WithMessage("los montos admiten máximo 2 decimales").WithDetails(details)
	}
	if l.AccountID == "" {
		return domain.ErrValidation.WithMessage("cada línea requiere cuenta").WithDetails(details)
	}
	return nil
}

// Totals suma débitos y créditos (paso 2).
func Totals(lines []entity.JournalEntryLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.DebitAmount)
		credit = credit.Add(l.CreditAmount)
	}
	return debit, credit
}

// Validate valida líneas y el invariante de balance (pasos 1 a 3).
// Devuelve los totales cuadrados.
func Validate(lines []entity.JournalEntryLine) (debit, credit decimal.Decimal, err error) {
	if len(lines) < 2 {
		return decimal.Zero, decimal.Zero, domain.ErrValidation.WithMessage("un asiento requiere al menos dos líneas")
	}
	for i, l := range lines {
		if err := ValidateLine(i, l); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
	}
	debit, credit = Totals(lines)
	if !InRange(debit) || !InRange(credit) {
		return decimal.Zero, decimal.Zero, domain.ErrValidation.WithMessage("el total del asiento excede el rango permitido")
	}
	if !debit.Equal(credit) {
		return debit, credit, domain.ErrPostingUnbalanced.WithDetails(map[string]any{
			"total_debit":  debit.StringFixed(MoneyScale),
			"total_credit": credit.StringFixed(MoneyScale),
		})
	}
	return debit, credit, nil
}

// SignedDelta variación de saldo según el lado normal del tipo de cuenta:
// activo/gasto: débito − crédito; pasivo/patrimonio/ingreso: crédito − débito.
func SignedDelta(t entity.AccountType, debit, credit decimal.Decimal) decimal.Decimal {
	if t.DebitNormal() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// Mirror invierte débitos y créditos para construir el asiento de reverso.
func Mirror(lines []entity.JournalEntryLine) []entity.JournalEntryLine {
	out := make([]entity.JournalEntryLine, len(lines))
	for i, l := range lines {
		out[i] = entity.JournalEntryLine{
			LineNumber:   i + 1,
			AccountID:    l.AccountID,
			Description:  l.Description,
			DebitAmount:  l.CreditAmount,
			CreditAmount: l.DebitAmount,
		}
	}
	return out
}

// AccountDeltas agrega la variación neta por cuenta para un conjunto de líneas.
func AccountDeltas(lines []entity.JournalEntryLine, types map[string]entity.AccountType) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(types))
	for _, l := range lines {
		d := SignedDelta(types[l.AccountID], l.DebitAmount, l.CreditAmount)
		out[l.AccountID] = out[l.AccountID].Add(d)
	}
	return out
}
