package entity

import "time"

// RefreshToken se persiste solo como hash sha-256 del valor entregado al cliente.
// FamilyID agrupa la cadena de rotación: existe a lo sumo un token vivo por familia.
type RefreshToken struct {
	TokenHash       string
	FamilyID        string
	UserID          string
	TenantID        string
	IssuedAt        time.Time
	ExpiresAt       time.Time
	RevokedAt       *time.Time
	ReplacedByToken string // hash del sucesor
}

// IsRevoked indica si el token ya fue revocado o rotado.
func (t *RefreshToken) IsRevoked() bool { return t.RevokedAt != nil }

// IsExpired indica si el token venció en now.
func (t *RefreshToken) IsExpired(now time.Time) bool { return !now.Before(t.ExpiresAt) }
