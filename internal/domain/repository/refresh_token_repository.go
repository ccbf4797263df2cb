package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// RefreshTokenRepository persistencia de refresh tokens (por hash, nunca en claro).
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
	// GetForUpdate bloquea la fila del token (SELECT FOR UPDATE). nil, nil si no existe.
	GetForUpdate(ctx context.Context, tokenHash string) (*entity.RefreshToken, error)
	// Revoke revoca condicionalmente (revoked_at IS NULL). Devuelve false si ya estaba revocado.
	Revoke(ctx context.Context, tokenHash string, at time.Time, replacedBy string) (bool, error)
	// RevokeFamily revoca todos los tokens vivos de la cadena de rotación.
	RevokeFamily(ctx context.Context, familyID string, at time.Time) (int64, error)
}
