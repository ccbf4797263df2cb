package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var _ repository.IdempotencyRepository = (*IdempotencyRepo)(nil)

// IdempotencyRepo tabla idempotency_keys, única por (tenant_id, key).
type IdempotencyRepo struct {
	q Querier
}

// NewIdempotencyRepository construye el repositorio.
func NewIdempotencyRepository(q Querier) *IdempotencyRepo {
	return &IdempotencyRepo{q: q}
}

func (r *IdempotencyRepo) Get(ctx context.Context, tenantID, key string) (*entity.IdempotencyRecord, error) {
	var rec entity.IdempotencyRecord
	err := r.q.QueryRow(ctx, `
		SELECT tenant_id, key, endpoint, request_hash, response_body, status_code, created_at
		FROM idempotency_keys WHERE tenant_id = $1 AND key = $2`, tenantID, key,
	).Scan(&rec.TenantID, &rec.Key, &rec.Endpoint, &rec.RequestHash, &rec.ResponseBody, &rec.StatusCode, &rec.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	return &rec, nil
}

func (r *IdempotencyRepo) Create(ctx context.Context, rec *entity.IdempotencyRecord) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO idempotency_keys (tenant_id, key, endpoint, request_hash, response_body, status_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.TenantID, rec.Key, rec.Endpoint, rec.RequestHash, rec.ResponseBody, rec.StatusCode, rec.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrConflict.WithMessage("Idempotency-Key ya registrada")
	}
	return mapWriteErr("insert idempotency key", err)
}

// DeleteOlderThan purga registros vencidos de todos los tenants (job de retención).
func (r *IdempotencyRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
