package dto

import (
	"time"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// CreateAccountRequest entrada de POST /api/v1/gl/accounts.
type CreateAccountRequest struct {
	Code     string  `json:"account_code" validate:"required,max=20"`
	Name     string  `json:"account_name" validate:"required,max=200"`
	Type     string  `json:"account_type" validate:"required,oneof=asset liability equity revenue expense"`
	ParentID *string `json:"parent_id"`
}

// AccountResponse salida de una cuenta.
type AccountResponse struct {
	ID             string    `json:"id"`
	Code           string    `json:"account_code"`
	Name           string    `json:"account_name"`
	Type           string    `json:"account_type"`
	ParentID       *string   `json:"parent_id,omitempty"`
	IsActive       bool      `json:"is_active"`
	CurrentBalance string    `json:"current_balance"`
	CreatedAt      time.Time `json:"created_at"`
}

// AccountFromEntity mapea la entidad a su salida.
func AccountFromEntity(a *entity.Account) AccountResponse {
	return AccountResponse{
		ID:             a.ID,
		Code:           a.Code,
		Name:           a.Name,
		Type:           string(a.Type),
		ParentID:       a.ParentID,
		IsActive:       a.IsActive,
		CurrentBalance: Money(a.CurrentBalance),
		CreatedAt:      a.CreatedAt,
	}
}

// AccountPage listado paginado de cuentas (se cachea por tenant).
type AccountPage struct {
	Items []AccountResponse `json:"items"`
	Total int               `json:"total"`
}

// ReconciliationMismatch cuenta cuyo saldo no coincide con sus líneas contabilizadas.
type ReconciliationMismatch struct {
	AccountID string `json:"account_id"`
	Code      string `json:"account_code"`
	Stored    string `json:"stored_balance"`
	Computed  string `json:"computed_balance"`
}

// ReconciliationResponse resultado del job de conciliación.
type ReconciliationResponse struct {
	AccountsChecked int                      `json:"accounts_checked"`
	Mismatches      []ReconciliationMismatch `json:"mismatches"`
	Balanced        bool                     `json:"balanced"`
}
