package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Los métodos de lectura devuelven nil, nil cuando no hay fila.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.User, error)
	// GetByIDs devuelve solo los usuarios del tenant; IDs ajenos se omiten.
	GetByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.User, error)
	// FindByEmail busca en el tenant; tenantID vacío busca en todos (login sin tenant).
	FindByEmail(ctx context.Context, tenantID, email string) (*entity.User, error)
	// RecordFailedLogin fija el contador de intentos fallidos y el bloqueo (nil = sin bloqueo).
	RecordFailedLogin(ctx context.Context, tenantID, userID string, attempts int, lockedUntil *time.Time) error
	ResetFailedLogins(ctx context.Context, tenantID, userID string) error
}
