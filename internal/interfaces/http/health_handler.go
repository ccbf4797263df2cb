package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/metrics"
)

const readyTimeout = 2 * time.Second

// Pinger dependencia cuya disponibilidad decide /health/ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler liveness, readiness y métricas.
type HealthHandler struct {
	checks  map[string]Pinger
	metrics *metrics.Registry
}

// NewHealthHandler checks por nombre (database, redis...). metrics puede ser nil.
func NewHealthHandler(checks map[string]Pinger, reg *metrics.Registry) *HealthHandler {
	return &HealthHandler{checks: checks, metrics: reg}
}

// Live godoc
// @Summary  Liveness
// @Tags     health
// @Success  200  {object}  dto.SuccessResponse
// @Router   /health/live [get]
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(dto.Success(fiber.Map{"status": "ok"}))
}

// Ready godoc
// @Summary  Readiness (DB y caché)
// @Tags     health
// @Success  200  {object}  dto.SuccessResponse
// @Failure  503  {object}  dto.ErrorResponse
// @Router   /health/ready [get]
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), readyTimeout)
	defer cancel()
	status := make(map[string]string, len(h.checks))
	failed := false
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			status[name] = err.Error()
			failed = true
			continue
		}
		status[name] = "ok"
	}
	if failed {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.Failure("servicio no disponible", "", map[string]any{"checks": status}))
	}
	return c.JSON(dto.Success(fiber.Map{"status": "ready", "checks": status}))
}

// Metrics godoc
// @Summary  Métricas RED por dominio y SLO
// @Tags     health
// @Security BearerAuth
// @Success  200  {object}  dto.SuccessResponse
// @Router   /metrics [get]
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	snap := h.metrics.Snapshot()
	return c.JSON(dto.Success(fiber.Map{
		"domains":  snap.Domains,
		"jobs":     snap.Jobs,
		"slos":     metrics.EvaluateSLOs(snap),
		"taken_at": snap.TakenAt,
	}))
}

// Prometheus exposición en formato texto de Prometheus.
func (h *HealthHandler) Prometheus() fiber.Handler {
	return adaptor.HTTPHandler(h.metrics.Handler())
}
