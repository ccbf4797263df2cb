package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, tenant_id, email, password_hash, name, roles, is_superuser, status,
	failed_attempts, locked_until, created_at, updated_at`

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un nuevo usuario. El email es único dentro del tenant.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	_, err := r.q.Exec(ctx, query,
		user.ID, user.TenantID, user.Email, user.PasswordHash, user.Name, roles, user.IsSuperuser,
		user.Status, user.FailedAttempts, user.LockedUntil, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict.WithDetails(map[string]any{"field": "email"})
		}
		return mapWriteErr("insert user", err)
	}
	return nil
}

// GetByID obtiene un usuario del tenant por ID.
func (r *UserRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.User, error) {
	row := r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	u, err := scanUser(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByIDs obtiene varios usuarios del tenant (aprobadores).
func (r *UserRepo) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND id = ANY($2) ORDER BY id`, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	defer rows.Close()

	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// FindByEmail busca por email en el tenant. Sin tenant, solo devuelve el usuario si el
// email existe en un único tenant.
func (r *UserRepo) FindByEmail(ctx context.Context, tenantID, email string) (*entity.User, error) {
	var rows pgx.Rows
	var err error
	if tenantID != "" {
		rows, err = r.q.Query(ctx,
			`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND email = $2`, tenantID, email)
	} else {
		rows, err = r.q.Query(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 2`, email)
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	defer rows.Close()

	var found []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		found = append(found, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(found) != 1 {
		return nil, nil
	}
	return found[0], nil
}

// RecordFailedLogin fija intentos fallidos y bloqueo.
func (r *UserRepo) RecordFailedLogin(ctx context.Context, tenantID, userID string, attempts int, lockedUntil *time.Time) error {
	_, err := r.q.Exec(ctx, `
		UPDATE users SET failed_attempts = $3, locked_until = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, userID, attempts, lockedUntil,
	)
	if err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}
	return nil
}

// ResetFailedLogins limpia el contador tras un login correcto.
func (r *UserRepo) ResetFailedLogins(ctx context.Context, tenantID, userID string) error {
	return r.RecordFailedLogin(ctx, tenantID, userID, 0, nil)
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(
		&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.Name, &u.Roles, &u.IsSuperuser, &u.Status,
		&u.FailedAttempts, &u.LockedUntil, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
