package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Contabilidad-api/internal/application/audit"
	"github.com/jhoicas/Contabilidad-api/internal/application/auth"
	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/idempotency"
	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// UserUseCase alta de usuarios dentro del tenant (aprobadores, contadores, etc.).
type UserUseCase struct {
	tx       ports.TxRunner
	recorder *audit.Recorder
	hash     func(string) (string, error)
}

// NewUserUseCase construye el caso de uso.
func NewUserUseCase(tx ports.TxRunner, recorder *audit.Recorder) *UserUseCase {
	return &UserUseCase{tx: tx, recorder: recorder, hash: auth.HashPassword}
}

// WithPasswordHasher reemplaza el hasher (tests).
func (uc *UserUseCase) WithPasswordHasher(hash func(string) (string, error)) *UserUseCase {
	uc.hash = hash
	return uc
}

// Create crea un usuario en el tenant del scope. Email duplicado en el tenant => CONFLICT.
func (uc *UserUseCase) Create(ctx context.Context, scope entity.RequestScope, in dto.CreateUserRequest, pending *idempotency.Pending) (*dto.UserResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	hash, err := uc.hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	user := &entity.User{
		ID:           uuid.NewString(),
		TenantID:     scope.TenantID,
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Roles:        in.Roles,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	out := &dto.UserResponse{
		ID:        user.ID,
		TenantID:  user.TenantID,
		Email:     user.Email,
		Name:      user.Name,
		Roles:     user.Roles,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	}
	err = uc.tx.Run(ctx, func(tx ports.Repos) error {
		if err := tx.Users.Create(ctx, user); err != nil {
			return err
		}
		if err := uc.recorder.Log(ctx, tx.Audit, scope, audit.Event{
			EntityType: "user",
			EntityID:   user.ID,
			EventType:  entity.AuditCreate,
			Metadata:   map[string]any{"roles": user.Roles},
		}); err != nil {
			return err
		}
		return pending.Store(ctx, tx.Idempotency, out)
	})
	if err != nil {
		pending.Reset()
		return nil, err
	}
	return out, nil
}
