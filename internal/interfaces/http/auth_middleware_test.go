package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Contabilidad-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testUserID   = "00000000-0000-0000-0000-000000000001"
	testTenantID = "acme"
)

// fakeValidator acepta tokens "rol:<rol>" y "super"; cualquier otro es malformado.
type fakeValidator struct{}

func (fakeValidator) Validate(token string) (entity.Principal, error) {
	switch {
	case token == "expirado":
		return entity.Principal{}, domain.ErrTokenExpired
	case token == "super":
		return entity.Principal{UserID: testUserID, TenantID: "plataforma", IsSuperuser: true}, nil
	case len(token) > 4 && token[:4] == "rol:":
		return entity.Principal{UserID: testUserID, TenantID: testTenantID, Roles: []string{token[4:]}}, nil
	}
	return entity.Principal{}, domain.ErrTokenMalformed
}

// buildTestApp construye una aplicación Fiber mínima con:
//   - TenantMiddleware para resolver el tenant
//   - AuthMiddleware para validar el token y cargar el Principal
//   - RequireRole para autorizar el acceso
//   - Un handler dummy que devuelve 200 si pasa los middlewares
func buildTestApp(allowedRoles ...string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(nil)})
	app.Use(apphttp.TenantMiddleware(apphttp.TenantConfig{}))
	app.Get("/protected",
		apphttp.AuthMiddleware(fakeValidator{}),
		apphttp.RequireRole(allowedRoles...),
		func(c *fiber.Ctx) error {
			p, _ := apphttp.GetPrincipal(c)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"ok":      true,
				"user_id": apphttp.GetUserID(c),
				"tenant":  apphttp.GetTenantID(c),
				"roles":   p.Roles,
			})
		},
	)
	return app
}

// doRequest lanza una petición GET /protected y devuelve la respuesta.
func doRequest(t *testing.T, app *fiber.App, authHeader, tenant string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env struct {
		ErrorCode string `json:"error_code"`
	}
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env.ErrorCode
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_AdminAccedeRutaAdmin(t *testing.T) {
	app := buildTestApp(entity.RoleAdmin)
	resp := doRequest(t, app, "Bearer rol:admin", testTenantID)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "admin debe poder acceder a ruta restringida a admin")

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testTenantID, body["tenant"])
}

func TestRequireRole_AuditorAccedeRutaAdminOAuditor(t *testing.T) {
	app := buildTestApp(entity.RoleAdmin, entity.RoleAuditor)
	resp := doRequest(t, app, "Bearer rol:auditor", testTenantID)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRole_ClerkBloqueadoEnRutaAdmin(t *testing.T) {
	app := buildTestApp(entity.RoleAdmin)
	resp := doRequest(t, app, "Bearer rol:ap_clerk", testTenantID)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, resp))
}

func TestRequireRole_SuperusuarioPasaSinRol(t *testing.T) {
	app := buildTestApp(entity.RoleCFO)
	resp := doRequest(t, app, "Bearer super", testTenantID)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "superusuario opera sobre cualquier tenant")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_SinHeader_Retorna401(t *testing.T) {
	app := buildTestApp(entity.RoleAdmin)
	resp := doRequest(t, app, "", testTenantID)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_TOKEN_MISSING", errorCode(t, resp))
}

func TestAuthMiddleware_EsquemaInvalido_Retorna401(t *testing.T) {
	app := buildTestApp(entity.RoleAdmin)
	resp := doRequest(t, app, "Basic abc", testTenantID)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_TOKEN_MALFORMED", errorCode(t, resp))
}

func TestAuthMiddleware_TokenExpirado_Retorna401(t *testing.T) {
	app := buildTestApp(entity.RoleAdmin)
	resp := doRequest(t, app, "Bearer expirado", testTenantID)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_TOKEN_EXPIRED", errorCode(t, resp))
}

func TestAuthMiddleware_TenantDistinto_Retorna403(t *testing.T) {
	app := buildTestApp(entity.RoleAdmin)
	resp := doRequest(t, app, "Bearer rol:admin", "beta")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAuthMiddleware_SinTenant_Retorna400(t *testing.T) {
	app := buildTestApp(entity.RoleAdmin)
	resp := doRequest(t, app, "Bearer rol:admin", "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "TENANT_REQUIRED", errorCode(t, resp))
}
