package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/ledger"
)

func line(acct, debit, credit string) entity.JournalEntryLine {
	return entity.JournalEntryLine{
		AccountID:    acct,
		DebitAmount:  decimal.RequireFromString(debit),
		CreditAmount: decimal.RequireFromString(credit),
	}
}

func TestValidate_AsientoCuadrado(t *testing.T) {
	debit, credit, err := ledger.Validate([]entity.JournalEntryLine{
		line("1000", "100.00", "0"),
		line("4000", "0", "60.00"),
		line("4100", "0", "40.00"),
	})
	require.NoError(t, err)
	assert.True(t, debit.Equal(decimal.RequireFromString("100")))
	assert.True(t, credit.Equal(debit))
}

func TestValidate_Descuadrado(t *testing.T) {
	_, _, err := ledger.Validate([]entity.JournalEntryLine{
		line("1000", "100.00", "0"),
		line("4000", "0", "99.99"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPostingUnbalanced))

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "100.00", de.Details["total_debit"])
	assert.Equal(t, "99.99", de.Details["total_credit"])
}

func TestValidate_ReglasDeLinea(t *testing.T) {
	cases := map[string]entity.JournalEntryLine{
		"ambos positivos": line("1000", "10", "10"),
		"ambos cero":      line("1000", "0", "0"),
		"negativo":        line("1000", "-10", "0"),
		"tres decimales":  line("1000", "10.001", "0"),
		"sin cuenta":      line("", "10", "0"),
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ledger.Validate([]entity.JournalEntryLine{bad, line("4000", "0", "10")})
			assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
		})
	}
}

func TestValidate_UnaSolaLinea(t *testing.T) {
	_, _, err := ledger.Validate([]entity.JournalEntryLine{line("1000", "10", "0")})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestHasScale_CerosALaDerechaNoCuentan(t *testing.T) {
	assert.True(t, ledger.HasScale(decimal.RequireFromString("100.000"), 2))
	assert.False(t, ledger.HasScale(decimal.RequireFromString("0.005"), 2))
}

func TestSignedDelta_PorTipo(t *testing.T) {
	hundred := decimal.NewFromInt(100)
	assert.True(t, ledger.SignedDelta(entity.AccountAsset, hundred, decimal.Zero).Equal(hundred))
	assert.True(t, ledger.SignedDelta(entity.AccountExpense, decimal.Zero, hundred).Equal(hundred.Neg()))
	assert.True(t, ledger.SignedDelta(entity.AccountRevenue, decimal.Zero, hundred).Equal(hundred))
	assert.True(t, ledger.SignedDelta(entity.AccountLiability, hundred, decimal.Zero).Equal(hundred.Neg()))
	assert.True(t, ledger.SignedDelta(entity.AccountEquity, decimal.Zero, hundred).Equal(hundred))
}

func TestMirror_AnulaLasVariaciones(t *testing.T) {
	lines := []entity.JournalEntryLine{line("1000", "100.00", "0"), line("4000", "0", "100.00")}
	types := map[string]entity.AccountType{"1000": entity.AccountAsset, "4000": entity.AccountRevenue}

	orig := ledger.AccountDeltas(lines, types)
	rev := ledger.AccountDeltas(ledger.Mirror(lines), types)
	for acct, d := range orig {
		assert.True(t, d.Add(rev[acct]).IsZero(), "cuenta %s debe quedar en cero", acct)
	}
	_, _, err := ledger.Validate(ledger.Mirror(lines))
	assert.NoError(t, err)
}

func TestValidateLine_MontoFueraDeRango(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{"exponente enorme", "1e30000000"},
		{"exponente negativo enorme", "1e-30000000"},
		{"cero con exponente enorme", "0e9000000"},
		{"supera NUMERIC(18,2)", "10000000000000000"},
		{"supera con decimales", "9999999999999999.99e1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			_, _, err := ledger.Validate([]entity.JournalEntryLine{
				line("1000", tt.amount, "0"),
				line("4000", "0", tt.amount),
			})
			require.Error(t, err)
			assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
			assert.Less(t, time.Since(start), 100*time.Millisecond)
		})
	}
}

func TestValidate_TotalFueraDeRango(t *testing.T) {
	_, _, err := ledger.Validate([]entity.JournalEntryLine{
		line("1000", "9000000000000000", "0"),
		line("1100", "9000000000000000", "0"),
		line("4000", "0", "9000000000000000"),
		line("4100", "0", "9000000000000000"),
	})
	require.Error(t, err)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
}

func TestValidAmount(t *testing.T) {
	assert.True(t, ledger.ValidAmount(decimal.RequireFromString("9999999999999999.99")))
	assert.True(t, ledger.ValidAmount(decimal.RequireFromString("1.500")))
	assert.False(t, ledger.ValidAmount(decimal.RequireFromString("10000000000000000")))
	assert.False(t, ledger.ValidAmount(decimal.RequireFromString("1e30000000")))
	assert.False(t, ledger.ValidAmount(decimal.RequireFromString("1.005")))
	assert.False(t, ledger.ValidAmount(decimal.Zero))
}
