package repository

import (
	"context"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// AuditFilter filtros opcionales de consulta.
type AuditFilter struct {
	EntityType string
	EntityID   string
}

// AuditRepository registro append-only: no expone update ni delete.
type AuditRepository interface {
	Append(ctx context.Context, ev *entity.AuditEvent) error
	List(ctx context.Context, tenantID string, f AuditFilter, q entity.PageQuery) ([]*entity.AuditEvent, int, error)
}
