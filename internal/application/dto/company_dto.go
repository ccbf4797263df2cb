package dto

import "time"

// ProvisionTenantRequest alta de un tenant con su administrador y plan de cuentas base.
type ProvisionTenantRequest struct {
	TenantID      string   `json:"tenant_id" validate:"required,max=50"`
	Name          string   `json:"name" validate:"required,max=200"`
	TaxID         string   `json:"tax_id" validate:"max=50"`
	Modules       []string `json:"modules" validate:"dive,oneof=gl ap ar"`
	AdminEmail    string   `json:"admin_email" validate:"required,email"`
	AdminPassword string   `json:"admin_password" validate:"required,min=8"`
	SeedAccounts  bool     `json:"seed_accounts"`
}

// CompanyResponse salida de una empresa/tenant.
type CompanyResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id,omitempty"`
	Status    string    `json:"status"`
	Modules   []string  `json:"modules"`
	AdminID   string    `json:"admin_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
