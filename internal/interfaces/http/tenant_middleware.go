package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/pkg/jwt"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

// tenantFreePrefixes rutas que no requieren tenant.
var tenantFreePrefixes = []string{"/auth", "/health", "/docs", "/metrics"}

const tenantPathPrefix = "/t/"

// TenantConfig BaseDomain habilita la resolución por subdominio (<tenant>.<BaseDomain>).
type TenantConfig struct {
	BaseDomain string
	Log        *logger.Logger
}

// TenantMiddleware resuelve el tenant por, en orden: cabecera X-Tenant-ID, claim tenant_id del
// bearer token (sin verificar; AuthMiddleware lo verifica), subdominio y prefijo /t/<tenant>/.
// El prefijo se quita de la ruta antes del enrutado.
func TenantMiddleware(cfg TenantConfig) fiber.Handler {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	base := strings.ToLower(strings.Trim(cfg.BaseDomain, "."))
	return func(c *fiber.Ctx) error {
		fromPath := stripTenantPrefix(c)
		if isTenantFree(c.Path()) {
			return c.Next()
		}

		tenantID := resolveTenant(c, base, fromPath)
		if tenantID == "" {
			return domain.ErrTenantRequired
		}
		if err := entity.ValidateTenantID(tenantID); err != nil {
			return err
		}

		c.Locals(LocalTenantID, tenantID)
		c.Locals(LocalLogger, RequestLogger(c, log).WithTenant(tenantID))
		c.Set(HeaderTenantID, tenantID)
		return c.Next()
	}
}

func resolveTenant(c *fiber.Ctx, base, fromPath string) string {
	if h := strings.TrimSpace(c.Get(HeaderTenantID)); h != "" {
		return h
	}
	if token := bearerToken(c); token != "" {
		if claim := jwt.PeekTenant(token); claim != "" {
			return claim
		}
	}
	if sub := subdomainTenant(c.Hostname(), base); sub != "" {
		return sub
	}
	return fromPath
}

// stripTenantPrefix reescribe /t/<tenant>/resto a /resto y devuelve <tenant>.
func stripTenantPrefix(c *fiber.Ctx) string {
	p := c.Path()
	if !strings.HasPrefix(p, tenantPathPrefix) {
		return ""
	}
	rest := strings.TrimPrefix(p, tenantPathPrefix)
	tenant, remainder, _ := strings.Cut(rest, "/")
	if tenant == "" {
		return ""
	}
	c.Path("/" + remainder)
	return tenant
}

func isTenantFree(p string) bool {
	for _, prefix := range tenantFreePrefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

func subdomainTenant(host, base string) string {
	if base == "" {
		return ""
	}
	host = strings.ToLower(host)
	if !strings.HasSuffix(host, "."+base) {
		return ""
	}
	sub := strings.TrimSuffix(host, "."+base)
	if sub == "" || strings.Contains(sub, ".") || sub == "www" || sub == "api" {
		return ""
	}
	return sub
}

// bearerToken token del header Authorization; vacío si falta o no es Bearer.
func bearerToken(c *fiber.Ctx) string {
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
