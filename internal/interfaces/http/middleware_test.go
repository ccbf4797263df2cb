package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/Contabilidad-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Contabilidad-api/pkg/jwt"
)

func tenantEcho(cfg apphttp.TenantConfig) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(nil)})
	app.Use(apphttp.TenantMiddleware(cfg))
	handler := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"tenant": apphttp.GetTenantID(c), "path": c.Path()})
	}
	app.Get("/api/v1/gl/accounts", handler)
	app.Get("/health/live", handler)
	return app
}

func getJSON(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	_ = jsonDecode(resp, &body)
	return resp.StatusCode, body
}

func TestTenantMiddleware_OrdenDeResolucion(t *testing.T) {
	app := tenantEcho(apphttp.TenantConfig{BaseDomain: "erp.test"})

	tok, err := pkgjwt.Generate(testJWTSecret, testIssuer, pkgjwt.Subject{UserID: "u1", TenantID: "desde-token"}, time.Now(), time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name    string
		host    string
		path    string
		header  string
		token   string
		want    string
		wantURL string
	}{
		{name: "cabecera gana", header: "cabecera", token: tok, host: "sub.erp.test", path: "/api/v1/gl/accounts", want: "cabecera"},
		{name: "claim del token", token: tok, host: "sub.erp.test", path: "/api/v1/gl/accounts", want: "desde-token"},
		{name: "subdominio", host: "sub.erp.test", path: "/api/v1/gl/accounts", want: "sub"},
		{name: "prefijo de ruta", host: "localhost", path: "/t/prefijo/api/v1/gl/accounts", want: "prefijo", wantURL: "/api/v1/gl/accounts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://"+tc.host+tc.path, nil)
			if tc.header != "" {
				req.Header.Set("X-Tenant-ID", tc.header)
			}
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			status, body := getJSON(t, app, req)
			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, tc.want, body["tenant"])
			if tc.wantURL != "" {
				assert.Equal(t, tc.wantURL, body["path"])
			}
		})
	}
}

func TestTenantMiddleware_FormatoInvalido(t *testing.T) {
	app := tenantEcho(apphttp.TenantConfig{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/gl/accounts", nil)
	req.Header.Set("X-Tenant-ID", "acme;drop")
	status, body := getJSON(t, app, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "TENANT_INVALID", body["error_code"])
}

func TestTenantMiddleware_AllowlistNoRequiereTenant(t *testing.T) {
	app := tenantEcho(apphttp.TenantConfig{})
	status, body := getJSON(t, app, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", body["tenant"])
}

func TestTraceMiddleware_PropagaYGenera(t *testing.T) {
	app := fiber.New()
	app.Use(apphttp.TraceMiddleware(nil))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(apphttp.GetTraceID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-Id", "trace-cliente-1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "trace-cliente-1", resp.Header.Get("X-Trace-Id"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4BF92F3577B34DA6A3CE929D0E0E4736-00f067aa0ba902b7-01")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", resp.Header.Get("X-Trace-Id"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get("X-Trace-Id"), 26, "ULID generado")
}

func TestErrorHandler_InternoOcultaCausa(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(nil)})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New(`pq: syntax error at or near "SELECT"`)
	})
	status, body := getJSON(t, app, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", body["error_code"])
	assert.NotContains(t, body["message"], "SELECT")
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, details["error_id"])
}

func TestStatusFor_MapeoDeCodigos(t *testing.T) {
	cases := map[domain.Code]int{
		domain.CodeTenantRequired:          400,
		domain.CodeAuthInvalidCredentials:  401,
		domain.CodeRefreshTokenReuse:       401,
		domain.CodeForbidden:               403,
		domain.CodeNotFound:                404,
		domain.CodeConflict:                409,
		domain.CodeIdempotencyConflict:     409,
		domain.CodePostingApprovalRequired: 400,
		domain.CodeValidation:              422,
		domain.CodeRateLimited:             429,
		domain.CodeInternal:                500,
	}
	for code, want := range cases {
		assert.Equal(t, want, apphttp.StatusFor(code), string(code))
	}
}

func TestObserveMiddleware_RegistraStatusFinal(t *testing.T) {
	reg := metrics.NewRegistry()
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(nil)})
	app.Use(apphttp.TraceMiddleware(nil), apphttp.ObserveMiddleware(reg, nil))
	app.Post("/auth/login", func(c *fiber.Ctx) error { return domain.ErrInvalidCredentials })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("falla") })

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/auth/login", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)

	snap := reg.Snapshot()
	assert.Equal(t, int64(1), snap.Domains["auth:login"].Count)
	assert.Equal(t, int64(0), snap.Domains["auth:login"].Errors, "un 401 no es error del servicio")
	assert.Equal(t, int64(1), snap.Domains["other"].Errors)
}

func TestRateLimiter_Responde429(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(nil)})
	app.Use(apphttp.NewRateLimiter(2).Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestRateLimiter_DeshabilitadoConCero(t *testing.T) {
	assert.Nil(t, apphttp.NewRateLimiter(0))
	assert.True(t, apphttp.NewRateLimiter(60).Allow("1.2.3.4"))
}
