package ports

import (
	"context"
	"time"

	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

// Repos repositorios atados a un mismo Querier (pool, réplica o transacción).
// Los casos de uso componen solo los que necesitan.
type Repos struct {
	Companies   repository.CompanyRepository
	Users       repository.UserRepository
	Tokens      repository.RefreshTokenRepository
	Idempotency repository.IdempotencyRepository
	Audit       repository.AuditRepository
	Accounts    repository.AccountRepository
	Journals    repository.JournalRepository
	Periods     repository.FiscalPeriodRepository
	Payments    repository.PaymentRepository
	Receipts    repository.ReceiptRepository
}

// TxRunner ejecuta fn dentro de una transacción, con repos atados a esa tx.
// Si fn devuelve error se hace rollback; si no, commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx Repos) error) error
}

// ReadTxRunner ejecuta fn sobre una foto consistente de la base: todas las lecturas de fn
// ven el mismo estado aunque otras transacciones hagan commit mientras tanto.
type ReadTxRunner interface {
	ReadOnly(ctx context.Context, fn func(r Repos) error) error
}

// TenantCache caché con claves tenant:{tenant_id}:{key}. No existe API sin tenant.
type TenantCache interface {
	Get(ctx context.Context, tenantID, key string) ([]byte, bool, error)
	Set(ctx context.Context, tenantID, key string, value []byte, ttl time.Duration) error
	InvalidateTenant(ctx context.Context, tenantID string) error
}

// InFlightGuard evita ejecutar en paralelo dos peticiones con la misma Idempotency-Key.
type InFlightGuard interface {
	Acquire(ctx context.Context, tenantID, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, tenantID, key string) error
}
