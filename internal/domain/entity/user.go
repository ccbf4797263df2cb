package entity

import "time"

// Roles conocidos por la matriz de aprobaciones y el RBAC.
const (
	RoleAdmin          = "admin"
	RoleAccountant     = "accountant"
	RoleController     = "controller"
	RoleCFO            = "cfo"
	RoleAuditor        = "auditor"
	RoleAPClerk        = "ap_clerk"
	RoleARClerk        = "ar_clerk"
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa un usuario del sistema (pertenece a un tenant).
type User struct {
	ID             string
	TenantID       string
	Email          string
	PasswordHash   string // argon2id (o bcrypt heredado), nunca plano
	Name           string
	Roles          []string
	IsSuperuser    bool
	Status         string // active, inactive
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsLocked indica si el usuario está bloqueado por intentos fallidos en el instante now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Principal construye la identidad autenticada del usuario.
func (u *User) Principal() Principal {
	return Principal{
		UserID:      u.ID,
		TenantID:    u.TenantID,
		Roles:       append([]string(nil), u.Roles...),
		IsSuperuser: u.IsSuperuser,
	}
}
