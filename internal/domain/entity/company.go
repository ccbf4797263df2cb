package entity

import "time"

// Estados de Company.
const (
	CompanyStatusActive    = "active"
	CompanyStatusSuspended = "suspended"
)

// Company representa una organización/tenant del sistema. TenantID se asigna al crearla y es inmutable.
type Company struct {
	ID        string
	TenantID  string
	Name      string
	TaxID     string
	Status    string   // active, suspended, inactive
	Modules   []string // módulos contables habilitados: gl, ap, ar
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasModule informa si la empresa tiene el módulo habilitado.
func (c *Company) HasModule(module string) bool {
	for _, m := range c.Modules {
		if m == module {
			return true
		}
	}
	return false
}
