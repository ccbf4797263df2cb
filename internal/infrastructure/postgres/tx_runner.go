package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
)

var (
	_ ports.TxRunner     = (*TxRunner)(nil)
	_ ports.ReadTxRunner = (*TxRunner)(nil)
)

// NewRepos arma todos los repositorios sobre q (pool, réplica o transacción).
func NewRepos(q Querier) ports.Repos {
	return ports.Repos{
		Companies:   NewCompanyRepository(q),
		Users:       NewUserRepository(q),
		Tokens:      NewRefreshTokenRepository(q),
		Idempotency: NewIdempotencyRepository(q),
		Audit:       NewAuditRepository(q),
		Accounts:    NewAccountRepository(q),
		Journals:    NewJournalRepository(q),
		Periods:     NewFiscalPeriodRepository(q),
		Payments:    NewPaymentRepository(q),
		Receipts:    NewReceiptRepository(q),
	}
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner sobre pool: el primario para escrituras, el de lectura
// para ReadOnly.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los bloqueos de filas (FOR UPDATE) que toman los repos duran hasta el commit.
func (r *TxRunner) Run(ctx context.Context, fn func(tx ports.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback después de Commit es un no-op.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ReadOnly ejecuta fn en una transacción REPEATABLE READ de solo lectura: una sola foto
// para todas las consultas de fn. Se usa también contra la réplica.
func (r *TxRunner) ReadOnly(ctx context.Context, fn func(r ports.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit read-only transaction: %w", err)
	}
	return nil
}
