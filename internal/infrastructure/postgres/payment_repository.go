package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var (
	_ repository.PaymentRepository = (*PaymentRepo)(nil)
	_ repository.ReceiptRepository = (*ReceiptRepo)(nil)
)

const paymentColumns = `id, tenant_id, vendor_name, amount, payment_date, reference, beneficiary_account,
	journal_entry_id, created_by, created_at`

var paymentSort = map[string]string{
	"payment_date": "payment_date",
	"amount":       "amount",
	"vendor_name":  "lower(vendor_name)",
	"created_at":   "created_at",
}

// PaymentRepo pagos AP (ap_payments). beneficiary_account llega ya cifrado.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el repositorio.
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	_, err := r.q.Exec(ctx, `INSERT INTO ap_payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.TenantID, p.VendorName, p.Amount, p.PaymentDate, p.Reference, p.BeneficiaryAccount,
		p.JournalEntryID, p.CreatedBy, p.CreatedAt,
	)
	return mapWriteErr("insert payment", err)
}

func (r *PaymentRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Payment, error) {
	p, err := scanPayment(r.q.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM ap_payments WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *PaymentRepo) List(ctx context.Context, tenantID string, q entity.PageQuery) ([]*entity.Payment, int, error) {
	total, err := count(ctx, r.q, `SELECT COUNT(*) FROM ap_payments WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.q.Query(ctx, `SELECT `+paymentColumns+` FROM ap_payments WHERE tenant_id = $1`+
		orderBy(q, paymentSort, "payment_date", "id")+` LIMIT $2 OFFSET $3`,
		tenantID, q.Limit(), q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var list []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	if err := row.Scan(&p.ID, &p.TenantID, &p.VendorName, &p.Amount, &p.PaymentDate, &p.Reference,
		&p.BeneficiaryAccount, &p.JournalEntryID, &p.CreatedBy, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

var receiptSort = map[string]string{
	"receipt_date":  "receipt_date",
	"amount":        "amount",
	"customer_name": "lower(customer_name)",
	"created_at":    "created_at",
}

// ReceiptRepo cobros AR (ar_receipts).
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construye el repositorio.
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

func (r *ReceiptRepo) Create(ctx context.Context, rc *entity.Receipt) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO ar_receipts (id, tenant_id, customer_name, amount, receipt_date, reference,
			journal_entry_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rc.ID, rc.TenantID, rc.CustomerName, rc.Amount, rc.ReceiptDate, rc.Reference,
		rc.JournalEntryID, rc.CreatedBy, rc.CreatedAt,
	)
	return mapWriteErr("insert receipt", err)
}

func (r *ReceiptRepo) List(ctx context.Context, tenantID string, q entity.PageQuery) ([]*entity.Receipt, int, error) {
	total, err := count(ctx, r.q, `SELECT COUNT(*) FROM ar_receipts WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, tenant_id, customer_name, amount, receipt_date, reference, journal_entry_id, created_by, created_at
		FROM ar_receipts WHERE tenant_id = $1`+orderBy(q, receiptSort, "receipt_date", "id")+` LIMIT $2 OFFSET $3`,
		tenantID, q.Limit(), q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var list []*entity.Receipt
	for rows.Next() {
		var rc entity.Receipt
		if err := rows.Scan(&rc.ID, &rc.TenantID, &rc.CustomerName, &rc.Amount, &rc.ReceiptDate, &rc.Reference,
			&rc.JournalEntryID, &rc.CreatedBy, &rc.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan receipt: %w", err)
		}
		list = append(list, &rc)
	}
	return list, total, rows.Err()
}
