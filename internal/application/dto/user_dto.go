package dto

import "time"

// LoginRequest entrada de login. TenantID es opcional cuando el email es único entre tenants.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	TenantID string `json:"tenant_id" validate:"omitempty,max=50"`
}

// RefreshRequest entrada de /auth/refresh y /auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Roles       []string  `json:"roles"`
	IsSuperuser bool      `json:"is_superuser"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// TokenResponse par de tokens emitido por login y refresh.
type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"` // segundos
	User         *UserResponse `json:"user,omitempty"`
}

// CreateUserRequest entrada para crear un usuario del tenant (password en texto, se hashea en use case).
type CreateUserRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Name     string   `json:"name" validate:"required,min=1,max=200"`
	Roles    []string `json:"roles" validate:"required,min=1,dive,oneof=admin accountant controller cfo auditor ap_clerk ar_clerk"`
}
