package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
// Los módulos habilitados viven en company_modules.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Create persiste una nueva empresa y sus módulos. Debe ejecutarse dentro de una transacción
// para que empresa y módulos queden juntos.
func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	const query = `
		INSERT INTO companies (id, tenant_id, name, tax_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		company.ID, company.TenantID, company.Name, company.TaxID, company.Status,
		company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr("insert company", err)
	}
	for _, m := range company.Modules {
		_, err := r.q.Exec(ctx, `
			INSERT INTO company_modules (tenant_id, module_name, is_active, created_at)
			VALUES ($1, $2, true, $3)`,
			company.TenantID, m, company.CreatedAt,
		)
		if err != nil {
			return mapWriteErr("insert company module", err)
		}
	}
	return nil
}

// GetByTenantID obtiene una empresa con sus módulos activos y sin vencer.
func (r *CompanyRepo) GetByTenantID(ctx context.Context, tenantID string) (*entity.Company, error) {
	const query = `
		SELECT c.id, c.tenant_id, c.name, c.tax_id, c.status, c.created_at, c.updated_at,
		       COALESCE(ARRAY(
		           SELECT m.module_name FROM company_modules m
		            WHERE m.tenant_id = c.tenant_id
		              AND m.is_active = true
		              AND (m.expires_at IS NULL OR m.expires_at > now())
		            ORDER BY m.module_name
		       ), '{}')
		FROM companies c WHERE c.tenant_id = $1`
	var c entity.Company
	err := r.q.QueryRow(ctx, query, tenantID).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.TaxID, &c.Status, &c.CreatedAt, &c.UpdatedAt, &c.Modules,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}
