package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var _ repository.RefreshTokenRepository = (*RefreshTokenRepo)(nil)

// RefreshTokenRepo refresh tokens por hash sha-256.
type RefreshTokenRepo struct {
	q Querier
}

// NewRefreshTokenRepository construye el repositorio.
func NewRefreshTokenRepository(q Querier) *RefreshTokenRepo {
	return &RefreshTokenRepo{q: q}
}

func (r *RefreshTokenRepo) Create(ctx context.Context, t *entity.RefreshToken) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO refresh_tokens (token_hash, family_id, user_id, tenant_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.TokenHash, t.FamilyID, t.UserID, t.TenantID, t.IssuedAt, t.ExpiresAt,
	)
	return mapWriteErr("insert refresh token", err)
}

// GetForUpdate bloquea la fila: dos rotaciones concurrentes del mismo token se serializan aquí.
func (r *RefreshTokenRepo) GetForUpdate(ctx context.Context, tokenHash string) (*entity.RefreshToken, error) {
	var t entity.RefreshToken
	err := r.q.QueryRow(ctx, `
		SELECT token_hash, family_id, user_id, tenant_id, issued_at, expires_at, revoked_at,
		       COALESCE(replaced_by_token, '')
		FROM refresh_tokens WHERE token_hash = $1
		FOR UPDATE`, tokenHash,
	).Scan(&t.TokenHash, &t.FamilyID, &t.UserID, &t.TenantID, &t.IssuedAt, &t.ExpiresAt, &t.RevokedAt, &t.ReplacedByToken)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return &t, nil
}

func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenHash string, at time.Time, replacedBy string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = $2, replaced_by_token = $3
		WHERE token_hash = $1 AND revoked_at IS NULL`,
		tokenHash, at, nullIfEmpty(replacedBy),
	)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RefreshTokenRepo) RevokeFamily(ctx context.Context, familyID string, at time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = $2
		WHERE family_id = $1 AND revoked_at IS NULL`, familyID, at)
	if err != nil {
		return 0, fmt.Errorf("revoke token family: %w", err)
	}
	return tag.RowsAffected(), nil
}
