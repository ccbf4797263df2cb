package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

// moduleChecker es el contrato mínimo que necesita el middleware para verificar módulos.
// Lo implementa *usecase.ModuleService.
type moduleChecker interface {
	HasActiveModule(ctx context.Context, tenantID, moduleName string) (bool, error)
}

// RequireModule verifica que el tenant resuelto tenga el módulo contratado y vigente.
// Debe usarse DESPUÉS de TenantMiddleware.
//
//   - 403 FORBIDDEN: módulo no contratado o vencido.
//   - 503: fallo al consultar la DB.
func RequireModule(moduleName string, checker moduleChecker, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		tenantID := GetTenantID(c)
		if tenantID == "" {
			return domain.ErrTenantRequired
		}

		active, err := checker.HasActiveModule(c.Context(), tenantID, moduleName)
		if err != nil {
			RequestLogger(c, log).Error().Err(err).Str("module", moduleName).Msg("no se pudo verificar el módulo")
			return writeError(c, fiber.StatusServiceUnavailable, "no se pudo verificar el módulo, intente más tarde",
				domain.CodeInternal, map[string]any{"module": moduleName})
		}
		if !active {
			return domain.ErrForbidden.WithMessage("el módulo '" + moduleName + "' no está activo para esta empresa").
				WithDetails(map[string]any{"module": moduleName})
		}
		return c.Next()
	}
}
