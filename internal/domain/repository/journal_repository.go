package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// AccountTotals suma de débitos y créditos contabilizados de una cuenta.
type AccountTotals struct {
	AccountID string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// JournalRepository asientos y líneas. Las líneas no se actualizan nunca.
type JournalRepository interface {
	// NextSequence asigna el siguiente número monotónico por (tenant, módulo).
	NextSequence(ctx context.Context, tenantID, sourceModule string) (int64, error)
	// Create inserta el asiento con sus líneas.
	Create(ctx context.Context, e *entity.JournalEntry) error
	// GetByID devuelve el asiento con líneas o nil, nil si no existe en el tenant.
	GetByID(ctx context.Context, tenantID, id string) (*entity.JournalEntry, error)
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.JournalEntry, error)
	MarkReversed(ctx context.Context, tenantID, id, reversedBy string, at time.Time) error
	List(ctx context.Context, tenantID string, q entity.PageQuery) ([]*entity.JournalEntry, int, error)
	// TotalsByAccount agrega líneas de asientos posted y reversed del tenant.
	TotalsByAccount(ctx context.Context, tenantID string) ([]AccountTotals, error)
}

// FiscalPeriodRepository periodos contables.
type FiscalPeriodRepository interface {
	// FindClosed devuelve el periodo cerrado que contiene la fecha, o nil, nil.
	FindClosed(ctx context.Context, tenantID string, date time.Time) (*entity.FiscalPeriod, error)
}
