// Package audit registra eventos inmutables dentro de la transacción del cambio de estado.
package audit

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

// Event datos del evento que aporta el caso de uso.
type Event struct {
	EntityType string
	EntityID   string
	EventType  string
	Metadata   map[string]any
}

// Recorder construye y anexa AuditEvents. No guarda estado: el sink es el repositorio de la tx.
type Recorder struct {
	now func() time.Time
}

// NewRecorder construye el recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Log anexa el evento al sink. Un error debe abortar la transacción que lo contiene.
func (r *Recorder) Log(ctx context.Context, sink repository.AuditRepository, scope entity.RequestScope, ev Event) error {
	if !entity.ValidAuditEventType(ev.EventType) {
		return domain.ErrValidation.WithDetails(map[string]any{"field": "event_type", "value": ev.EventType})
	}
	if ev.EntityType == "" || ev.EntityID == "" {
		return domain.ErrValidation.WithMessage("evento de auditoría sin entidad")
	}
	meta := make(map[string]any, len(ev.Metadata)+1)
	maps.Copy(meta, ev.Metadata)
	if scope.TraceID != "" {
		meta["trace_id"] = scope.TraceID
	}
	err := sink.Append(ctx, &entity.AuditEvent{
		ID:         uuid.NewString(),
		TenantID:   scope.TenantID,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		EventType:  ev.EventType,
		ActorID:    scope.ActorID(),
		TraceID:    scope.TraceID,
		Metadata:   meta,
		CreatedAt:  r.now(),
	})
	if err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}

// QueryService lecturas del log de auditoría.
type QueryService struct {
	reader repository.AuditRepository
}

// NewQueryService construye el servicio de consulta.
func NewQueryService(reader repository.AuditRepository) *QueryService {
	return &QueryService{reader: reader}
}

// List eventos del tenant del scope, paginados.
func (s *QueryService) List(ctx context.Context, scope entity.RequestScope, f repository.AuditFilter, q entity.PageQuery) ([]dto.AuditEventResponse, int, error) {
	events, total, err := s.reader.List(ctx, scope.TenantID, f, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, dto.AuditFromEntity(e))
	}
	return out, total, nil
}
