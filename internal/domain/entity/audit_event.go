package entity

import "time"

// Tipos de evento de auditoría.
const (
	AuditCreate  = "create"
	AuditUpdate  = "update"
	AuditDelete  = "delete"
	AuditApprove = "approve"
	AuditPost    = "post"
	AuditReverse = "reverse"
)

// Tipos de entidad auditada.
const (
	EntityJournalEntry = "journal_entry"
	EntityAccount      = "account"
	EntityPayment      = "ap_payment"
	EntityReceipt      = "ar_receipt"
)

// AuditEvent registro inmutable; nunca se actualiza ni se borra.
type AuditEvent struct {
	ID         string
	TenantID   string
	EntityType string
	EntityID   string
	EventType  string
	ActorID    string
	TraceID    string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// ValidAuditEventType informa si t es un tipo de evento admitido.
func ValidAuditEventType(t string) bool {
	switch t {
	case AuditCreate, AuditUpdate, AuditDelete, AuditApprove, AuditPost, AuditReverse:
		return true
	}
	return false
}
