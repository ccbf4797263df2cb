package dto

import (
	"time"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// AuditEventResponse salida de un evento de auditoría.
type AuditEventResponse struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	EventType  string         `json:"event_type"`
	ActorID    string         `json:"actor_id"`
	TraceID    string         `json:"trace_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditFromEntity mapea la entidad a su salida.
func AuditFromEntity(e *entity.AuditEvent) AuditEventResponse {
	return AuditEventResponse{
		ID:         e.ID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		EventType:  e.EventType,
		ActorID:    e.ActorID,
		TraceID:    e.TraceID,
		Metadata:   e.Metadata,
		CreatedAt:  e.CreatedAt,
	}
}
