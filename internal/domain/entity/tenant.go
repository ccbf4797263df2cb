package entity

import (
	"regexp"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
)

// MaxTenantIDLength longitud máxima de un TenantID.
const MaxTenantIDLength = 50

var tenantIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateTenantID verifica el formato de un identificador de tenant.
// Vacío => ErrTenantRequired; formato inválido => ErrTenantInvalid.
func ValidateTenantID(id string) error {
	if id == "" {
		return domain.ErrTenantRequired
	}
	if len(id) > MaxTenantIDLength || !tenantIDPattern.MatchString(id) {
		return domain.ErrTenantInvalid
	}
	return nil
}

// Principal identidad autenticada durante una petición.
type Principal struct {
	UserID      string
	TenantID    string
	Roles       []string
	IsSuperuser bool
}

// HasRole informa si el principal tiene alguno de los roles dados.
func (p Principal) HasRole(roles ...string) bool {
	for _, have := range p.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// RequestScope viaja como argumento explícito por servicios y repositorios:
// no existe un "tenant actual" global.
type RequestScope struct {
	TenantID  string
	Principal Principal
	TraceID   string
}

// ActorID usuario que ejecuta la operación.
func (s RequestScope) ActorID() string { return s.Principal.UserID }
