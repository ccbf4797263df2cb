package repository

import (
	"context"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// PaymentRepository pagos AP.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Payment, error)
	List(ctx context.Context, tenantID string, q entity.PageQuery) ([]*entity.Payment, int, error)
}

// ReceiptRepository cobros AR.
type ReceiptRepository interface {
	Create(ctx context.Context, r *entity.Receipt) error
	List(ctx context.Context, tenantID string, q entity.PageQuery) ([]*entity.Receipt, int, error)
}
