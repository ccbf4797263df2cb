package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Contabilidad-api/docs"
	"github.com/jhoicas/Contabilidad-api/internal/application/audit"
	"github.com/jhoicas/Contabilidad-api/internal/application/auth"
	"github.com/jhoicas/Contabilidad-api/internal/application/idempotency"
	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
	"github.com/jhoicas/Contabilidad-api/internal/application/posting"
	"github.com/jhoicas/Contabilidad-api/internal/application/reconciliation"
	"github.com/jhoicas/Contabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Contabilidad-api/internal/domain/approval"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/cache"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/memory"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Contabilidad-api/internal/interfaces/http"
	"github.com/jhoicas/Contabilidad-api/pkg/config"
	"github.com/jhoicas/Contabilidad-api/pkg/fieldcrypt"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

const (
	exitConfig  = 2
	exitStorage = 3

	janitorInterval = time.Hour
	swaggerFile     = "./docs/swagger.json"
)

// storage almacenamiento elegido por STORAGE_DRIVER.
type storage struct {
	tx     ports.TxRunner
	readTx ports.ReadTxRunner
	writes ports.Repos
	reads  ports.Repos
	ping   httpRouter.Pinger
	close  func()
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Error().Err(err).Msg("configuración inválida")
		return exitConfig
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.DB.Driver).
		Msg("iniciando aplicación")

	rules, err := approvalRules(cfg.Approval)
	if err != nil {
		log.Error().Err(err).Msg("matriz de aprobaciones inválida")
		return exitConfig
	}
	cipher, err := fieldcrypt.New(cfg.Security.EncryptionKey)
	if err != nil {
		log.Error().Err(err).Msg("ENCRYPTION_KEY inválida")
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("almacenamiento no disponible")
		return exitStorage
	}
	defer st.close()

	checks := map[string]httpRouter.Pinger{"database": st.ping}
	var tenantCache ports.TenantCache = cache.NewMemory()
	var guard ports.InFlightGuard = idempotency.NewMemoryGuard()
	if cfg.Redis.Enabled() {
		rdb, err := cache.OpenRedis(ctx, cache.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Error().Err(err).Msg("conexión a Redis")
			return exitStorage
		}
		defer func(rdb *redis.Client) { _ = rdb.Close() }(rdb)
		redisCache := cache.NewRedis(rdb)
		tenantCache = redisCache
		guard = cache.NewRedisGuard(rdb)
		checks["redis"] = redisCache
	}

	reg := metrics.NewRegistry()
	recorder := audit.NewRecorder()
	engine := posting.NewEngine(st.tx, st.reads, approval.NewMatrix(rules), recorder, tenantCache, log)
	authUC := auth.NewAuthUseCase(st.writes, st.tx, auth.Config{
		Secret:           cfg.JWT.Secret,
		Issuer:           cfg.JWT.Issuer,
		AccessTTL:        cfg.JWT.AccessTTL(),
		RefreshTTL:       cfg.JWT.RefreshTTL(),
		MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
		LockoutDuration:  cfg.Security.LockoutDuration(),
	}, log)
	idemSvc := idempotency.NewService(st.writes.Idempotency, guard, cfg.Idempotency.Retention(), log)
	go idemSvc.RunJanitor(ctx, janitorInterval)

	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:             cfg.App.Name,
		TenantBaseDomain: cfg.Tenant.BaseDomain,
		CORSOrigins:      cfg.HTTP.CORSOrigins,
		RateLimitPerMin:  cfg.HTTP.RateLimitPerMin,
		Log:              log,
		Metrics:          reg,
	})

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Contabilidad API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		Engine:         engine,
		AccountUC:      usecase.NewAccountUseCase(st.tx, st.reads, recorder, tenantCache, log),
		PaymentUC:      usecase.NewPaymentUseCase(st.tx, st.reads, engine, recorder, cipher),
		ReceiptUC:      usecase.NewReceiptUseCase(st.tx, st.reads, engine, recorder),
		CompanyUC:      usecase.NewCompanyUseCase(st.tx),
		UserUC:         usecase.NewUserUseCase(st.tx, recorder),
		ModuleService:  usecase.NewModuleService(st.writes.Companies),
		AuditQuery:     audit.NewQueryService(st.reads.Audit),
		Reconciliation: reconciliation.NewService(st.readTx, reg, log),
		Idempotency:    idemSvc,
		Metrics:        reg,
		HealthChecks:   checks,
		DocJSON:        docs.SwaggerInfo.ReadDoc,
		Log:            log,
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.Listen(cfg.HTTP.Addr())
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
			return 1
		}
	case <-ctx.Done():
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
	return 0
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.DB.Driver == config.DriverMemory {
		log.Warn().Msg("STORAGE_DRIVER=memory: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &storage{tx: store, readTx: store, writes: store.Repos(), reads: store.Repos(), ping: store, close: func() {}}, nil
	}

	pools, err := postgres.OpenPools(ctx, cfg.DB, postgres.PoolOptions{})
	if err != nil {
		return nil, err
	}
	if err := pools.Ping(ctx); err != nil {
		pools.Close()
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		applied, err := postgres.Migrate(ctx, pools.Primary)
		if err != nil {
			pools.Close()
			return nil, err
		}
		log.Info().Strs("applied", applied).Msg("migraciones aplicadas")
	}
	if pools.HasReplica() {
		log.Info().Msg("lecturas enrutadas a la réplica")
	}
	return &storage{
		tx:     postgres.NewTxRunner(pools.Primary),
		readTx: postgres.NewTxRunner(pools.Read),
		writes: postgres.NewRepos(pools.Primary),
		reads:  postgres.NewRepos(pools.Read),
		ping:   pools,
		close:  pools.Close,
	}, nil
}

func approvalRules(cfg config.ApprovalConfig) ([]approval.Rule, error) {
	if cfg.MatrixFile == "" {
		return approval.DefaultRules(), nil
	}
	specs, err := config.LoadApprovalRules(cfg.MatrixFile)
	if err != nil {
		return nil, err
	}
	rules := make([]approval.Rule, 0, len(specs))
	var errs []error
	for _, s := range specs {
		r, err := approval.ParseRule(s.Action, s.MinAmount, s.Roles, s.Policy)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, r)
	}
	return rules, errors.Join(errs...)
}
