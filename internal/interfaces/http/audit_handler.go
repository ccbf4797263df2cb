package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/application/audit"
	"github.com/jhoicas/Contabilidad-api/internal/application/reconciliation"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var auditSortFields = []string{"created_at"}

// AuditHandler consulta del registro de auditoría y disparo de la conciliación.
type AuditHandler struct {
	query *audit.QueryService
	recon *reconciliation.Service
}

// NewAuditHandler construye el handler.
func NewAuditHandler(query *audit.QueryService, recon *reconciliation.Service) *AuditHandler {
	return &AuditHandler{query: query, recon: recon}
}

// ListEvents godoc
// @Summary      Eventos de auditoría
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type  query  string  false  "Tipo de entidad"
// @Param        entity_id    query  string  false  "ID de entidad"
// @Param        page         query  int     false  "Página"  default(1)
// @Param        page_size    query  int     false  "Tamaño"  default(20)
// @Success      200  {object}  dto.SuccessResponse{data=[]dto.AuditEventResponse}
// @Router       /api/v1/audit/events [get]
func (h *AuditHandler) ListEvents(c *fiber.Ctx) error {
	q, err := pageQuery(c, auditSortFields)
	if err != nil {
		return err
	}
	f := repository.AuditFilter{EntityType: c.Query("entity_type"), EntityID: c.Query("entity_id")}
	items, total, err := h.query.List(c.Context(), Scope(c), f, q)
	if err != nil {
		return err
	}
	return respondPage(c, items, total, q)
}

// Reconcile godoc
// @Summary      Conciliar saldos contra líneas contabilizadas
// @Tags         gl
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.SuccessResponse{data=dto.ReconciliationResponse}
// @Router       /api/v1/gl/reconciliation [post]
func (h *AuditHandler) Reconcile(c *fiber.Ctx) error {
	out, err := h.recon.Run(c.Context(), Scope(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, out, pendingFor(c, fiber.StatusOK))
}
