package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType clase contable; determina el lado normal del saldo.
type AccountType string

// Tipos de cuenta.
const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountRevenue   AccountType = "revenue"
	AccountExpense   AccountType = "expense"
)

// Valid informa si el tipo es uno de los cinco admitidos.
func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountRevenue, AccountExpense:
		return true
	}
	return false
}

// DebitNormal indica si el saldo normal de la cuenta es deudor (activo y gasto).
func (t AccountType) DebitNormal() bool {
	return t == AccountAsset || t == AccountExpense
}

// Account cuenta del plan de cuentas (chart of accounts) de un tenant.
type Account struct {
	ID             string
	TenantID       string
	Code           string // único dentro del tenant
	Name           string
	Type           AccountType
	ParentID       *string
	IsActive       bool
	CurrentBalance decimal.Decimal // 2 decimales
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
