package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/application/idempotency"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

// Locals keys que comparten middlewares y handlers.
const (
	LocalTraceID   = "trace_id"
	LocalTenantID  = "tenant_id"
	LocalPrincipal = "principal"
	LocalLogger    = "logger"
	LocalPending   = "idempotency_pending"
)

// Cabeceras propias de la API.
const (
	HeaderTenantID       = "X-Tenant-ID"
	HeaderTraceID        = "X-Trace-Id"
	HeaderTraceParent    = "traceparent"
	HeaderProcessTime    = "X-Process-Time"
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}

// GetTraceID trace de la petición (TraceMiddleware).
func GetTraceID(c *fiber.Ctx) string { return localString(c, LocalTraceID) }

// GetTenantID tenant resuelto por TenantMiddleware; vacío en rutas de la allowlist.
func GetTenantID(c *fiber.Ctx) string { return localString(c, LocalTenantID) }

// GetPrincipal identidad autenticada (AuthMiddleware).
func GetPrincipal(c *fiber.Ctx) (entity.Principal, bool) {
	p, ok := c.Locals(LocalPrincipal).(entity.Principal)
	return p, ok
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	p, _ := GetPrincipal(c)
	return p.UserID
}

// Scope arma el RequestScope explícito que reciben los casos de uso.
func Scope(c *fiber.Ctx) entity.RequestScope {
	p, _ := GetPrincipal(c)
	return entity.RequestScope{TenantID: GetTenantID(c), Principal: p, TraceID: GetTraceID(c)}
}

// RequestLogger sublogger con trace_id y tenant_id de la petición.
func RequestLogger(c *fiber.Ctx, fallback *logger.Logger) *logger.Logger {
	if l, ok := c.Locals(LocalLogger).(*logger.Logger); ok {
		return l
	}
	return fallback
}

// pendingFor devuelve la clave de idempotencia reservada para la petición (nil si no hay)
// fijando el status de éxito que se guardará con la respuesta.
func pendingFor(c *fiber.Ctx, status int) *idempotency.Pending {
	p, _ := c.Locals(LocalPending).(*idempotency.Pending)
	if p != nil {
		p.Status = status
	}
	return p
}
