package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// IdempotencyRepository registros de idempotencia. Único por (tenant_id, key).
type IdempotencyRepository interface {
	// Get devuelve nil, nil si no existe.
	Get(ctx context.Context, tenantID, key string) (*entity.IdempotencyRecord, error)
	// Create falla con domain.ErrConflict si la clave ya existe.
	Create(ctx context.Context, rec *entity.IdempotencyRecord) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
