package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo tabla audit_events. La migración revoca UPDATE/DELETE con un trigger.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el repositorio.
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

func (r *AuditRepo) Append(ctx context.Context, ev *entity.AuditEvent) error {
	metadata := ev.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_events (id, tenant_id, entity_type, entity_id, event_type, actor_id, trace_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.TenantID, ev.EntityType, ev.EntityID, ev.EventType, ev.ActorID, ev.TraceID, metadata, ev.CreatedAt,
	)
	return mapWriteErr("insert audit event", err)
}

// List más recientes primero.
func (r *AuditRepo) List(ctx context.Context, tenantID string, f repository.AuditFilter, q entity.PageQuery) ([]*entity.AuditEvent, int, error) {
	where := ` WHERE tenant_id = $1`
	args := []any{tenantID}
	if f.EntityType != "" {
		args = append(args, f.EntityType)
		where += ` AND entity_type = $` + strconv.Itoa(len(args))
	}
	if f.EntityID != "" {
		args = append(args, f.EntityID)
		where += ` AND entity_id = $` + strconv.Itoa(len(args))
	}
	total, err := count(ctx, r.q, `SELECT COUNT(*) FROM audit_events`+where, args...)
	if err != nil {
		return nil, 0, err
	}

	args = append(args, q.Limit(), q.Offset())
	query := `SELECT id, tenant_id, entity_type, entity_id, event_type, actor_id, trace_id, metadata, created_at
		FROM audit_events` + where + ` ORDER BY created_at DESC, id DESC` +
		` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var list []*entity.AuditEvent
	for rows.Next() {
		var e entity.AuditEvent
		if err := rows.Scan(&e.ID, &e.TenantID, &e.EntityType, &e.EntityID, &e.EventType, &e.ActorID, &e.TraceID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit event: %w", err)
		}
		list = append(list, &e)
	}
	return list, total, rows.Err()
}
