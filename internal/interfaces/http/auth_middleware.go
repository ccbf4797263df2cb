package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// TokenValidator verifica access tokens. Lo implementa *auth.AuthUseCase.
type TokenValidator interface {
	Validate(accessToken string) (entity.Principal, error)
}

// AuthMiddleware valida el Bearer Token y deja el Principal en c.Locals. Un principal de otro
// tenant distinto al resuelto recibe FORBIDDEN, salvo superusuarios.
func AuthMiddleware(v TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return domain.ErrTokenMissing
		}
		token := bearerToken(c)
		if token == "" {
			return domain.ErrTokenMalformed.WithMessage("formato: Bearer <token>")
		}
		principal, err := v.Validate(token)
		if err != nil {
			return err
		}
		if tenantID := GetTenantID(c); tenantID != "" && tenantID != principal.TenantID && !principal.IsSuperuser {
			return domain.ErrForbidden.WithMessage("el token pertenece a otro tenant").
				WithDetails(map[string]any{"tenant_id": tenantID})
		}
		c.Locals(LocalPrincipal, principal)
		return c.Next()
	}
}

// RequireRole exige alguno de los roles. Los superusuarios pasan siempre.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := GetPrincipal(c)
		if !ok {
			return domain.ErrTokenMissing
		}
		if p.IsSuperuser || p.HasRole(roles...) {
			return c.Next()
		}
		return domain.ErrForbidden.WithDetails(map[string]any{"required_roles": strings.Join(roles, ",")})
	}
}

// RequireSuperuser solo superusuarios de plataforma.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := GetPrincipal(c)
		if !ok {
			return domain.ErrTokenMissing
		}
		if !p.IsSuperuser {
			return domain.ErrForbidden.WithMessage("requiere superusuario")
		}
		return c.Next()
	}
}
