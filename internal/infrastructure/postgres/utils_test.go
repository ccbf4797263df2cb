package postgres

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

func TestOrderBy_ListaBlanca(t *testing.T) {
	cols := map[string]string{"amount": "amount", "vendor_name": "lower(vendor_name)"}

	assert.Equal(t, " ORDER BY amount DESC, id DESC",
		orderBy(entity.PageQuery{SortBy: "amount", SortOrder: "desc"}, cols, "payment_date", "id"))
	assert.Equal(t, " ORDER BY lower(vendor_name) ASC, id ASC",
		orderBy(entity.PageQuery{SortBy: "vendor_name"}, cols, "payment_date", "id"))
	// sort_by desconocido nunca llega al SQL
	assert.Equal(t, " ORDER BY payment_date ASC, id ASC",
		orderBy(entity.PageQuery{SortBy: "1; DROP TABLE ap_payments"}, cols, "payment_date", "id"))
	assert.Equal(t, " ORDER BY id ASC", orderBy(entity.PageQuery{}, cols, "id", "id"))
}

func TestMapWriteErr(t *testing.T) {
	assert.NoError(t, mapWriteErr("op", nil))

	unique := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "accounts_tenant_id_account_code_key"})
	err := mapWriteErr("insert account", unique)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "accounts_tenant_id_account_code_key", de.Details["constraint"])

	fk := &pgconn.PgError{Code: "23503"}
	assert.True(t, errors.Is(mapWriteErr("insert", fk), domain.ErrValidation))

	overflow := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "22003"})
	assert.True(t, errors.Is(mapWriteErr("update balance", overflow), domain.ErrValidation))

	other := errors.New("conexión perdida")
	err = mapWriteErr("insert receipt", other)
	assert.ErrorIs(t, err, other)
	assert.Contains(t, err.Error(), "insert receipt")
}

func TestMigrations_Embebidas(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "migrations/001_core.up.sql", names[0])

	body, err := migrationFiles.ReadFile(names[0])
	require.NoError(t, err)
	for _, table := range []string{"companies", "users", "refresh_tokens", "idempotency_keys", "audit_events",
		"accounts", "journal_sequences", "journal_entries", "journal_entry_lines", "fiscal_periods",
		"ap_payments", "ar_receipts"} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}
