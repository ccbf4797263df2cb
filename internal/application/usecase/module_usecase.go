package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

// ModuleService verifica qué módulos contables tiene habilitados un tenant.
// Es el único punto de la aplicación que conoce la lógica de activación de módulos.
type ModuleService struct {
	companyRepo repository.CompanyRepository
}

// NewModuleService construye el servicio de módulos.
func NewModuleService(companyRepo repository.CompanyRepository) *ModuleService {
	return &ModuleService{companyRepo: companyRepo}
}

// HasActiveModule informa si el tenant está activo y tiene el módulo habilitado.
// Devuelve false (sin error) si la empresa no existe o no tiene el módulo.
// Devuelve error solo ante fallos de infraestructura (DB caída, timeout, etc.).
func (s *ModuleService) HasActiveModule(ctx context.Context, tenantID, moduleName string) (bool, error) {
	if tenantID == "" || moduleName == "" {
		return false, fmt.Errorf("module: tenantID y moduleName son obligatorios")
	}
	company, err := s.companyRepo.GetByTenantID(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if company == nil || company.Status != entity.CompanyStatusActive {
		return false, nil
	}
	return company.HasModule(moduleName), nil
}
