package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

const accountColumns = `id, tenant_id, account_code, account_name, account_type, parent_id, is_active,
	current_balance, created_at, updated_at`

var accountSort = map[string]string{
	"account_code": "account_code",
	"account_name": "lower(account_name)",
	"account_type": "account_type",
	"created_at":   "created_at",
}

// AccountRepo plan de cuentas.
type AccountRepo struct {
	q Querier
}

// NewAccountRepository construye el repositorio.
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	_, err := r.q.Exec(ctx, `INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.TenantID, a.Code, a.Name, string(a.Type), a.ParentID, a.IsActive,
		a.CurrentBalance, a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrConflict.WithDetails(map[string]any{"field": "account_code", "value": a.Code})
	}
	return mapWriteErr("insert account", err)
}

func (r *AccountRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *AccountRepo) GetByCode(ctx context.Context, tenantID, code string) (*entity.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND account_code = $2`, tenantID, code)
}

func (r *AccountRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Account, error) {
	a, err := scanAccount(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *AccountRepo) List(ctx context.Context, tenantID string, q entity.PageQuery) ([]*entity.Account, int, error) {
	total, err := count(ctx, r.q, `SELECT COUNT(*) FROM accounts WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1` +
		orderBy(q, accountSort, "account_code", "id") + ` LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, tenantID, q.Limit(), q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	list, err := collectAccounts(rows)
	return list, total, err
}

// LockForPosting toma FOR UPDATE en orden ascendente de id: dos contabilizaciones que tocan
// las mismas cuentas las bloquean en el mismo orden y no se interbloquean.
func (r *AccountRepo) LockForPosting(ctx context.Context, tenantID string, ids []string) ([]*entity.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	rows, err := r.q.Query(ctx, `SELECT `+accountColumns+` FROM accounts
		WHERE tenant_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE`, tenantID, sorted)
	if err != nil {
		return nil, fmt.Errorf("lock accounts: %w", err)
	}
	return collectAccounts(rows)
}

func (r *AccountRepo) UpdateBalance(ctx context.Context, tenantID, id string, balance decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE accounts SET current_balance = $3, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`, tenantID, id, balance)
	if err != nil {
		return mapWriteErr("update balance", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func collectAccounts(rows pgx.Rows) ([]*entity.Account, error) {
	defer rows.Close()
	var list []*entity.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var a entity.Account
	var typ string
	err := row.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &typ, &a.ParentID, &a.IsActive,
		&a.CurrentBalance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Type = entity.AccountType(typ)
	return &a, nil
}
