package entity

import "time"

// IdempotencyRecord respuesta almacenada para una Idempotency-Key dentro de un tenant.
type IdempotencyRecord struct {
	TenantID     string
	Key          string
	Endpoint     string // "POST /api/v1/gl/journal-entries"
	RequestHash  string // sha-256 hex del JSON normalizado
	ResponseBody []byte
	StatusCode   int
	CreatedAt    time.Time
}
