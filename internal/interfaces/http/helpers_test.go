package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/application/audit"
	"github.com/jhoicas/Contabilidad-api/internal/application/auth"
	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/idempotency"
	"github.com/jhoicas/Contabilidad-api/internal/application/posting"
	"github.com/jhoicas/Contabilidad-api/internal/application/reconciliation"
	"github.com/jhoicas/Contabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Contabilidad-api/internal/domain/approval"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/cache"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/memory"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/Contabilidad-api/internal/interfaces/http"
	"github.com/jhoicas/Contabilidad-api/pkg/fieldcrypt"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "contabilidad-test"
	testKey       = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	testPassword  = "clave-admin-123"
)

func cheapHash(pw string) (string, error) {
	return auth.HashPasswordWithParams(pw, auth.Argon2Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32})
}

// testEnv aplicación completa sobre el store en memoria con los tenants "acme" y "beta".
type testEnv struct {
	app     *fiber.App
	store   *memory.Store
	metrics *metrics.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()
	store := memory.NewStore()

	companies := usecase.NewCompanyUseCase(store).WithPasswordHasher(cheapHash)
	for _, tenant := range []string{"acme", "beta"} {
		_, err := companies.Provision(ctx, dto.ProvisionTenantRequest{
			TenantID: tenant, Name: tenant + " SAS", AdminEmail: "admin@" + tenant + ".co",
			AdminPassword: testPassword, SeedAccounts: true,
		})
		require.NoError(t, err)
	}

	cipher, err := fieldcrypt.New(testKey)
	require.NoError(t, err)
	recorder := audit.NewRecorder()
	tenantCache := cache.NewMemory()
	reg := metrics.NewRegistry()
	engine := posting.NewEngine(store, store.Repos(), approval.NewMatrix(approval.DefaultRules()), recorder, tenantCache, log)
	authUC := auth.NewAuthUseCase(store.Repos(), store, auth.Config{
		Secret:           testJWTSecret,
		Issuer:           testIssuer,
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       24 * time.Hour,
		MaxLoginAttempts: 5,
		LockoutDuration:  15 * time.Minute,
	}, log)

	app := apphttp.NewApp(apphttp.AppConfig{Name: "test", Log: log, Metrics: reg})
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:         authUC,
		Engine:         engine,
		AccountUC:      usecase.NewAccountUseCase(store, store.Repos(), recorder, tenantCache, log),
		PaymentUC:      usecase.NewPaymentUseCase(store, store.Repos(), engine, recorder, cipher),
		ReceiptUC:      usecase.NewReceiptUseCase(store, store.Repos(), engine, recorder),
		CompanyUC:      companies,
		UserUC:         usecase.NewUserUseCase(store, recorder).WithPasswordHasher(cheapHash),
		ModuleService:  usecase.NewModuleService(store.Repos().Companies),
		AuditQuery:     audit.NewQueryService(store.Repos().Audit),
		Reconciliation: reconciliation.NewService(store, reg, log),
		Idempotency:    idempotency.NewService(store.Repos().Idempotency, idempotency.NewMemoryGuard(), 48*time.Hour, log),
		Metrics:        reg,
		HealthChecks:   map[string]apphttp.Pinger{"database": store},
		Log:            log,
	})
	return &testEnv{app: app, store: store, metrics: reg}
}

type reqOpts struct {
	token   string
	tenant  string
	idemKey string
	headers map[string]string
}

func (e *testEnv) do(t *testing.T, method, path string, body any, o reqOpts) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			r = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}
	if o.tenant != "" {
		req.Header.Set("X-Tenant-ID", o.tenant)
	}
	if o.idemKey != "" {
		req.Header.Set("Idempotency-Key", o.idemKey)
	}
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

// envelope sobre genérico para inspeccionar respuestas.
type envelope struct {
	Status     string          `json:"status"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	ErrorCode  string          `json:"error_code"`
	Details    map[string]any  `json:"details"`
	Pagination *dto.Pagination `json:"pagination"`
}

func decode(t *testing.T, raw []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return env
}

func (e *testEnv) login(t *testing.T, tenant string) dto.TokenResponse {
	t.Helper()
	resp, raw := e.do(t, http.MethodPost, "/auth/login", dto.LoginRequest{
		Email: "admin@" + tenant + ".co", Password: testPassword, TenantID: tenant,
	}, reqOpts{})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var tok dto.TokenResponse
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &tok))
	return tok
}

func balancedEntry(amount string) map[string]any {
	return map[string]any{
		"entry_date":  "2026-03-15",
		"description": "Venta de contado",
		"lines": []map[string]any{
			{"account_code": "1000", "debit": amount},
			{"account_code": "4000", "credit": amount},
		},
	}
}

func payment(amount string) map[string]any {
	return map[string]any{
		"vendor_name":          "Proveedor Uno",
		"amount":               amount,
		"payment_date":         "2026-03-15",
		"cash_account_code":    "1000",
		"payable_account_code": "2000",
		"beneficiary_account":  "0012345678",
	}
}

func jsonDecode(resp *http.Response, out any) error {
	return json.NewDecoder(resp.Body).Decode(out)
}
