package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

func countEvents(events []entity.AuditEvent, entityType, eventType string) int {
	n := 0
	for _, e := range events {
		if e.EntityType == entityType && e.EventType == eventType {
			n++
		}
	}
	return n
}

func TestEscenario_AsientoCuadrado(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "acme")
	o := reqOpts{token: tok.AccessToken, tenant: "acme"}

	resp, raw := env.do(t, http.MethodPost, "/api/v1/gl/journal-entries", balancedEntry("50.00"), o)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var first dto.JournalEntryResponse
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &first))

	resp, raw = env.do(t, http.MethodPost, "/api/v1/gl/journal-entries", balancedEntry("100.00"), o)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var second dto.JournalEntryResponse
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &second))

	assert.Equal(t, "posted", second.Status)
	assert.Equal(t, "100.00", second.TotalDebit)
	assert.Equal(t, "GL-000001", first.EntryNumber)
	assert.Equal(t, "GL-000002", second.EntryNumber, "entry_number monótono por tenant y módulo")

	ctx := context.Background()
	cash, err := env.store.Repos().Accounts.GetByCode(ctx, "acme", "1000")
	require.NoError(t, err)
	revenue, err := env.store.Repos().Accounts.GetByCode(ctx, "acme", "4000")
	require.NoError(t, err)
	assert.Equal(t, "150.00", cash.CurrentBalance.StringFixed(2), "activo aumenta con débitos")
	assert.Equal(t, "150.00", revenue.CurrentBalance.StringFixed(2), "ingreso aumenta con créditos")
	assert.Equal(t, "acme", resp.Header.Get("X-Tenant-ID"))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-Id"))
	assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))
}

func TestEscenario_AsientoDescuadrado(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "acme")
	before := len(env.store.AuditEvents("acme"))

	body := map[string]any{
		"entry_date":  "2026-03-15",
		"description": "Descuadre",
		"lines": []map[string]any{
			{"account_code": "1000", "debit": "100.00"},
			{"account_code": "4000", "credit": "99.99"},
		},
	}
	resp, raw := env.do(t, http.MethodPost, "/api/v1/gl/journal-entries", body, reqOpts{token: tok.AccessToken, tenant: "acme"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))
	out := decode(t, raw)
	assert.Equal(t, "error", out.Status)
	assert.Equal(t, "POSTING_UNBALANCED", out.ErrorCode)

	assert.Len(t, env.store.AuditEvents("acme"), before, "no se escribe auditoría")
	cash, err := env.store.Repos().Accounts.GetByCode(context.Background(), "acme", "1000")
	require.NoError(t, err)
	assert.True(t, cash.CurrentBalance.IsZero(), "sin cambio de saldo")
}

func TestEscenario_ReintentoIdempotente(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "acme")
	o := reqOpts{token: tok.AccessToken, tenant: "acme", idemKey: "abc-123"}

	resp1, raw1 := env.do(t, http.MethodPost, "/api/v1/ap/payments", payment("100.00"), o)
	require.Equal(t, http.StatusCreated, resp1.StatusCode, string(raw1))
	resp2, raw2 := env.do(t, http.MethodPost, "/api/v1/ap/payments", payment("100.00"), o)
	require.Equal(t, http.StatusCreated, resp2.StatusCode, string(raw2))

	assert.Equal(t, string(raw1), string(raw2), "cuerpos idénticos byte a byte")
	assert.Equal(t, "true", resp2.Header.Get("Idempotent-Replayed"))
	assert.Empty(t, resp1.Header.Get("Idempotent-Replayed"))

	_, total, err := env.store.Repos().Payments.List(context.Background(), "acme", entity.PageQuery{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "un solo pago persistido")
	assert.Equal(t, 1, countEvents(env.store.AuditEvents("acme"), entity.EntityPayment, entity.AuditCreate))
}

func TestEscenario_ConflictoIdempotencia(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "acme")
	o := reqOpts{token: tok.AccessToken, tenant: "acme", idemKey: "abc-123"}

	resp, raw := env.do(t, http.MethodPost, "/api/v1/ap/payments", payment("100.00"), o)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = env.do(t, http.MethodPost, "/api/v1/ap/payments", payment("200.00"), o)
	require.Equal(t, http.StatusConflict, resp.StatusCode, string(raw))
	out := decode(t, raw)
	assert.Equal(t, "IDEMPOTENCY_CONFLICT", out.ErrorCode)
	assert.Equal(t, "POST /api/v1/ap/payments", out.Details["endpoint"])
}

func TestEscenario_RotacionRefresh(t *testing.T) {
	env := newTestEnv(t)
	r1 := env.login(t, "acme").RefreshToken

	resp, raw := env.do(t, http.MethodPost, "/auth/refresh", dto.RefreshRequest{RefreshToken: r1}, reqOpts{})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var pair dto.TokenResponse
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &pair))
	r2 := pair.RefreshToken
	require.NotEqual(t, r1, r2)

	resp, raw = env.do(t, http.MethodPost, "/auth/refresh", dto.RefreshRequest{RefreshToken: r1}, reqOpts{})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "REFRESH_TOKEN_REUSE", decode(t, raw).ErrorCode)

	resp, raw = env.do(t, http.MethodPost, "/auth/refresh", dto.RefreshRequest{RefreshToken: r2}, reqOpts{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "la familia completa quedó revocada: %s", raw)
}

func TestEscenario_AislamientoDeTenant(t *testing.T) {
	env := newTestEnv(t)
	acme := env.login(t, "acme")
	resp, raw := env.do(t, http.MethodPost, "/api/v1/gl/journal-entries", balancedEntry("100.00"),
		reqOpts{token: acme.AccessToken, tenant: "acme"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	beta := env.login(t, "beta")
	resp, raw = env.do(t, http.MethodGet, "/api/v1/gl/journal-entries", nil, reqOpts{token: beta.AccessToken, tenant: "beta"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	out := decode(t, raw)
	assert.JSONEq(t, "[]", string(out.Data))
	require.NotNil(t, out.Pagination)
	assert.Equal(t, 0, out.Pagination.Total)
}

func TestTenant_TokenDeOtroTenantEsForbidden(t *testing.T) {
	env := newTestEnv(t)
	acme := env.login(t, "acme")

	resp, raw := env.do(t, http.MethodGet, "/api/v1/gl/journal-entries", nil, reqOpts{token: acme.AccessToken, tenant: "beta"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decode(t, raw).ErrorCode)
}

func TestJournal_ReversoRequiereControllerDistinto(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "acme")
	o := reqOpts{token: tok.AccessToken, tenant: "acme"}

	resp, raw := env.do(t, http.MethodPost, "/api/v1/gl/journal-entries", balancedEntry("100.00"), o)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var entry dto.JournalEntryResponse
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &entry))

	resp, raw = env.do(t, http.MethodPost, "/api/v1/gl/journal-entries/"+entry.ID+"/reverse",
		map[string]any{"reason": "error de digitación"}, o)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "POSTING_APPROVAL_REQUIRED", decode(t, raw).ErrorCode)

	resp, raw = env.do(t, http.MethodPost, "/api/v1/users", dto.CreateUserRequest{
		Email: "control@acme.co", Password: "clave-segura-1", Name: "Control", Roles: []string{entity.RoleController},
	}, o)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var controller dto.UserResponse
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &controller))

	resp, raw = env.do(t, http.MethodPost, "/api/v1/gl/journal-entries/"+entry.ID+"/reverse",
		map[string]any{"reason": "error de digitación", "approver_ids": []string{controller.ID}}, o)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var mirror dto.JournalEntryResponse
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &mirror))
	assert.Equal(t, entry.ID, mirror.SourceID)

	resp, raw = env.do(t, http.MethodGet, "/api/v1/gl/journal-entries/"+entry.ID, nil, o)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var original dto.JournalEntryResponse
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &original))
	assert.Equal(t, "reversed", original.Status)
	assert.Equal(t, mirror.ID, original.ReversedByEntryID)

	resp, raw = env.do(t, http.MethodPost, "/api/v1/gl/reconciliation", nil, o)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var recon dto.ReconciliationResponse
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &recon))
	assert.True(t, recon.Balanced)
}

func TestIdempotencia_RolSinPermisoNoRecibeRespuestaGuardada(t *testing.T) {
	env := newTestEnv(t)
	admin := reqOpts{token: env.login(t, "acme").AccessToken, tenant: "acme"}

	resp, raw := env.do(t, http.MethodPost, "/api/v1/users", dto.CreateUserRequest{
		Email: "pagos@acme.co", Password: "clave-segura-1", Name: "Pagos", Roles: []string{entity.RoleAPClerk},
	}, admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	admin.idemKey = "asiento-compartido"
	resp, raw = env.do(t, http.MethodPost, "/api/v1/gl/journal-entries", balancedEntry("75.00"), admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = env.do(t, http.MethodPost, "/auth/login", dto.LoginRequest{
		Email: "pagos@acme.co", Password: "clave-segura-1", TenantID: "acme",
	}, reqOpts{})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var clerk dto.TokenResponse
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &clerk))

	resp, raw = env.do(t, http.MethodPost, "/api/v1/gl/journal-entries", balancedEntry("75.00"),
		reqOpts{token: clerk.AccessToken, tenant: "acme", idemKey: "asiento-compartido"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, "FORBIDDEN", decode(t, raw).ErrorCode)
}

func TestAsiento_MontoConExponenteExtremo(t *testing.T) {
	env := newTestEnv(t)
	o := reqOpts{token: env.login(t, "acme").AccessToken, tenant: "acme", idemKey: "exponente-1"}
	body := `{"entry_date":"2026-03-15","description":"x","lines":[` +
		`{"account_code":"1000","debit":1e30000000},{"account_code":"4000","credit":1e30000000}]}`

	start := time.Now()
	resp, raw := env.do(t, http.MethodPost, "/api/v1/gl/journal-entries", body, o)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(raw))
	assert.Equal(t, "VALIDATION_ERROR", decode(t, raw).ErrorCode)
}
