package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/application/auth"
	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/pkg/taxid"
)

// DefaultModules módulos habilitados si el alta no indica ninguno.
var DefaultModules = []string{entity.SourceGL, entity.SourceAP, entity.SourceAR}

// baseChart plan de cuentas mínimo que usan AP y AR.
var baseChart = []struct {
	code, name string
	typ        entity.AccountType
}{
	{"1000", "Caja y bancos", entity.AccountAsset},
	{"1200", "Cuentas por cobrar", entity.AccountAsset},
	{"2000", "Cuentas por pagar", entity.AccountLiability},
	{"3000", "Capital", entity.AccountEquity},
	{"4000", "Ingresos operacionales", entity.AccountRevenue},
	{"5000", "Gastos operacionales", entity.AccountExpense},
}

// CompanyUseCase alta de tenants (empresa + administrador).
type CompanyUseCase struct {
	tx   ports.TxRunner
	hash func(string) (string, error)
}

// NewCompanyUseCase construye el caso de uso.
func NewCompanyUseCase(tx ports.TxRunner) *CompanyUseCase {
	return &CompanyUseCase{tx: tx, hash: auth.HashPassword}
}

// WithPasswordHasher reemplaza el hasher (seeds y tests con argon2 barato).
func (uc *CompanyUseCase) WithPasswordHasher(hash func(string) (string, error)) *CompanyUseCase {
	uc.hash = hash
	return uc
}

// Provision crea la empresa, su usuario admin y opcionalmente el plan de cuentas base,
// todo en una transacción. Un tenant existente devuelve CONFLICT.
func (uc *CompanyUseCase) Provision(ctx context.Context, in dto.ProvisionTenantRequest) (*dto.CompanyResponse, error) {
	in.AdminEmail = strings.ToLower(strings.TrimSpace(in.AdminEmail))
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if err := entity.ValidateTenantID(in.TenantID); err != nil {
		return nil, err
	}
	if in.TaxID != "" {
		if err := taxid.ValidateNIT(in.TaxID); err != nil {
			return nil, domain.ErrValidation.WithDetails(map[string]any{"field": "tax_id", "reason": err.Error()})
		}
		in.TaxID, _ = taxid.NormalizeNIT(in.TaxID)
	}
	modules := in.Modules
	if len(modules) == 0 {
		modules = DefaultModules
	}
	hash, err := uc.hash(in.AdminPassword)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	company := &entity.Company{
		ID:        uuid.NewString(),
		TenantID:  in.TenantID,
		Name:      in.Name,
		TaxID:     in.TaxID,
		Status:    entity.CompanyStatusActive,
		Modules:   modules,
		CreatedAt: now,
		UpdatedAt: now,
	}
	admin := &entity.User{
		ID:           uuid.NewString(),
		TenantID:     in.TenantID,
		Email:        in.AdminEmail,
		PasswordHash: hash,
		Name:         "Administrador",
		Roles:        []string{entity.RoleAdmin},
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = uc.tx.Run(ctx, func(tx ports.Repos) error {
		existing, err := tx.Companies.GetByTenantID(ctx, in.TenantID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrConflict.WithDetails(map[string]any{"tenant_id": in.TenantID})
		}
		if err := tx.Companies.Create(ctx, company); err != nil {
			return err
		}
		if err := tx.Users.Create(ctx, admin); err != nil {
			return err
		}
		if !in.SeedAccounts {
			return nil
		}
		for _, a := range baseChart {
			if err := tx.Accounts.Create(ctx, &entity.Account{
				ID:             uuid.NewString(),
				TenantID:       in.TenantID,
				Code:           a.code,
				Name:           a.name,
				Type:           a.typ,
				IsActive:       true,
				CurrentBalance: decimal.Zero,
				CreatedAt:      now,
				UpdatedAt:      now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.CompanyResponse{
		ID:        company.ID,
		TenantID:  company.TenantID,
		Name:      company.Name,
		TaxID:     company.TaxID,
		Status:    company.Status,
		Modules:   company.Modules,
		AdminID:   admin.ID,
		CreatedAt: company.CreatedAt,
	}, nil
}
