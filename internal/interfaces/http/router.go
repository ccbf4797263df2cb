package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Contabilidad-api/internal/application/audit"
	"github.com/jhoicas/Contabilidad-api/internal/application/auth"
	"github.com/jhoicas/Contabilidad-api/internal/application/idempotency"
	"github.com/jhoicas/Contabilidad-api/internal/application/posting"
	"github.com/jhoicas/Contabilidad-api/internal/application/reconciliation"
	"github.com/jhoicas/Contabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	Engine         *posting.Engine
	AccountUC      *usecase.AccountUseCase
	PaymentUC      *usecase.PaymentUseCase
	ReceiptUC      *usecase.ReceiptUseCase
	CompanyUC      *usecase.CompanyUseCase
	UserUC         *usecase.UserUseCase
	ModuleService  *usecase.ModuleService
	AuditQuery     *audit.QueryService
	Reconciliation *reconciliation.Service
	Idempotency    *idempotency.Service
	Metrics        *metrics.Registry
	HealthChecks   map[string]Pinger
	// DocJSON documento OpenAPI servido en /docs/doc.json (opcional).
	DocJSON func() string
	Log     *logger.Logger
}

// AppConfig opciones del servidor y de la cadena global de middlewares.
type AppConfig struct {
	Name             string
	TenantBaseDomain string
	CORSOrigins      []string
	RateLimitPerMin  int
	Log              *logger.Logger
	Metrics          MetricsRecorder
}

// Grupos de roles por tipo de operación.
var (
	readRoles = []string{
		entity.RoleAdmin, entity.RoleAccountant, entity.RoleController, entity.RoleCFO,
		entity.RoleAuditor, entity.RoleAPClerk, entity.RoleARClerk,
	}
	postingRoles = []string{entity.RoleAdmin, entity.RoleAccountant, entity.RoleController, entity.RoleCFO}
	apRoles      = []string{entity.RoleAdmin, entity.RoleAccountant, entity.RoleAPClerk}
	arRoles      = []string{entity.RoleAdmin, entity.RoleAccountant, entity.RoleARClerk}
	auditRoles   = []string{entity.RoleAdmin, entity.RoleAuditor}
	reconRoles   = []string{entity.RoleAdmin, entity.RoleController, entity.RoleAuditor}
)

// NewApp crea la app Fiber con el manejador de errores y la cadena global:
// trace → observe → recover → CORS → rate limit → tenant.
func NewApp(cfg AppConfig) *fiber.App {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ErrorHandler: ErrorHandler(log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	origins := "*"
	if len(cfg.CORSOrigins) > 0 {
		origins = strings.Join(cfg.CORSOrigins, ",")
	}
	app.Use(
		TraceMiddleware(log),
		ObserveMiddleware(cfg.Metrics, log),
		recover.New(recover.Config{EnableStackTrace: true}),
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Tenant-ID, X-Trace-Id, traceparent, Idempotency-Key",
			ExposeHeaders: "X-Tenant-ID, X-Trace-Id, X-Process-Time, Idempotent-Replayed",
		}),
		NewRateLimiter(cfg.RateLimitPerMin).Middleware(),
		TenantMiddleware(TenantConfig{BaseDomain: cfg.TenantBaseDomain, Log: log}),
	)
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	health := NewHealthHandler(deps.HealthChecks, deps.Metrics)
	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)
	if deps.DocJSON != nil {
		app.Get("/docs/doc.json", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.SendString(deps.DocJSON())
		})
	}

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := app.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/logout", authHandler.Logout)

	authMW := AuthMiddleware(deps.AuthUC)
	if deps.Metrics != nil {
		app.Get("/metrics/prometheus", health.Prometheus())
		app.Get("/metrics", authMW, RequireRole(entity.RoleAdmin), health.Metrics)
	}

	// Rutas protegidas: tenant resuelto + Bearer Token. Idempotency-Key se evalúa por ruta,
	// después de módulo y rol: una respuesta guardada solo se repite a quien puede invocar la ruta.
	api := app.Group("/api/v1", authMW)
	idem := IdempotencyMiddleware(deps.Idempotency, log)

	gl := api.Group("/gl", RequireModule(entity.SourceGL, deps.ModuleService, log))
	journals := NewJournalHandler(deps.Engine)
	gl.Post("/journal-entries", RequireRole(postingRoles...), idem, journals.Create)
	gl.Get("/journal-entries", RequireRole(readRoles...), journals.List)
	gl.Get("/journal-entries/:id", RequireRole(readRoles...), journals.GetByID)
	gl.Post("/journal-entries/:id/reverse", RequireRole(postingRoles...), idem, journals.Reverse)

	accounts := NewAccountHandler(deps.AccountUC)
	gl.Post("/accounts", RequireRole(entity.RoleAdmin, entity.RoleAccountant), idem, accounts.Create)
	gl.Get("/accounts", RequireRole(readRoles...), accounts.List)

	auditHandler := NewAuditHandler(deps.AuditQuery, deps.Reconciliation)
	gl.Post("/reconciliation", RequireRole(reconRoles...), idem, auditHandler.Reconcile)

	payments := NewPaymentHandler(deps.PaymentUC, deps.ReceiptUC)
	ap := api.Group("/ap", RequireModule(entity.SourceAP, deps.ModuleService, log))
	ap.Post("/payments", RequireRole(apRoles...), idem, payments.CreatePayment)
	ap.Get("/payments", RequireRole(readRoles...), payments.ListPayments)

	ar := api.Group("/ar", RequireModule(entity.SourceAR, deps.ModuleService, log))
	ar.Post("/receipts", RequireRole(arRoles...), idem, payments.CreateReceipt)
	ar.Get("/receipts", RequireRole(readRoles...), payments.ListReceipts)

	api.Get("/audit/events", RequireRole(auditRoles...), auditHandler.ListEvents)

	companies := NewCompanyHandler(deps.CompanyUC, deps.UserUC)
	api.Post("/users", RequireRole(entity.RoleAdmin), idem, companies.CreateUser)
	api.Post("/admin/tenants", RequireSuperuser(), idem, companies.Provision)
}
