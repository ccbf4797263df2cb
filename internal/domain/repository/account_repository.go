package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// AccountRepository plan de cuentas por tenant.
type AccountRepository interface {
	// Create falla con domain.ErrConflict si el código ya existe en el tenant.
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Account, error)
	GetByCode(ctx context.Context, tenantID, code string) (*entity.Account, error)
	List(ctx context.Context, tenantID string, q entity.PageQuery) ([]*entity.Account, int, error)
	// LockForPosting bloquea (FOR UPDATE) las cuentas del tenant en orden ascendente de ID.
	// Las IDs que no pertenecen al tenant no aparecen en el resultado.
	LockForPosting(ctx context.Context, tenantID string, ids []string) ([]*entity.Account, error)
	UpdateBalance(ctx context.Context, tenantID, id string, balance decimal.Decimal) error
}
