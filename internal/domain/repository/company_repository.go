package repository

import (
	"context"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (tenant).
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	// GetByTenantID devuelve nil, nil si no existe.
	GetByTenantID(ctx context.Context, tenantID string) (*entity.Company, error)
}
