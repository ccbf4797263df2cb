package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// Querier subconjunto común de *pgxpool.Pool y pgx.Tx. Los repositorios se construyen
// sobre él para funcionar igual dentro y fuera de una transacción.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isNumericOutOfRange 22003: un monto no cabe en NUMERIC(18,2).
func isNumericOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22003"
}

// isForeignKeyViolation 23503.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// mapWriteErr traduce violaciones de constraint a errores de dominio; el resto se envuelve con op.
func mapWriteErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		var pgErr *pgconn.PgError
		errors.As(err, &pgErr)
		return domain.ErrConflict.WithDetails(map[string]any{"constraint": pgErr.ConstraintName})
	case isForeignKeyViolation(err):
		return domain.ErrValidation.WithDetails(map[string]any{"reason": "referencia inexistente"})
	case isNumericOutOfRange(err):
		return domain.ErrValidation.WithDetails(map[string]any{"reason": "monto fuera de rango"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// orderBy arma la cláusula ORDER BY a partir de una lista blanca sort_by -> columna.
// Nunca interpola texto del cliente: un sort_by desconocido usa la columna por defecto.
func orderBy(q entity.PageQuery, columns map[string]string, fallback, tiebreak string) string {
	col, ok := columns[q.SortBy]
	if !ok {
		col = fallback
	}
	dir := "ASC"
	if q.Desc() {
		dir = "DESC"
	}
	var b strings.Builder
	b.WriteString(" ORDER BY ")
	b.WriteString(col)
	b.WriteString(" ")
	b.WriteString(dir)
	if tiebreak != "" && tiebreak != col {
		b.WriteString(", ")
		b.WriteString(tiebreak)
		b.WriteString(" ")
		b.WriteString(dir)
	}
	return b.String()
}

// count ejecuta el COUNT(*) del filtro de un listado.
func count(ctx context.Context, q Querier, countSQL string, args ...any) (int, error) {
	var total int
	if err := q.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return total, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
