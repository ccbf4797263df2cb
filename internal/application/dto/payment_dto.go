package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/pkg/fieldcrypt"
)

// CreatePaymentRequest entrada de POST /api/v1/ap/payments.
type CreatePaymentRequest struct {
	VendorName         string          `json:"vendor_name" validate:"required,max=200"`
	Amount             decimal.Decimal `json:"amount"`
	PaymentDate        string          `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Reference          string          `json:"reference" validate:"max=100"`
	CashAccountCode    string          `json:"cash_account_code" validate:"required"`
	PayableAccountCode string          `json:"payable_account_code" validate:"required"`
	BeneficiaryAccount string          `json:"beneficiary_account" validate:"max=64"`
	ApproverIDs        []string        `json:"approver_ids"`
}

// PaymentResponse salida de un pago. La cuenta del beneficiario se devuelve enmascarada.
type PaymentResponse struct {
	ID                 string                `json:"id"`
	VendorName         string                `json:"vendor_name"`
	Amount             string                `json:"amount"`
	PaymentDate        string                `json:"payment_date"`
	Reference          string                `json:"reference,omitempty"`
	BeneficiaryAccount string                `json:"beneficiary_account,omitempty"`
	JournalEntryID     string                `json:"journal_entry_id"`
	JournalEntry       *JournalEntryResponse `json:"journal_entry,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
}

// PaymentFromEntity mapea la entidad; beneficiary debe venir ya descifrada.
func PaymentFromEntity(p *entity.Payment, beneficiary string) PaymentResponse {
	return PaymentResponse{
		ID:                 p.ID,
		VendorName:         p.VendorName,
		Amount:             Money(p.Amount),
		PaymentDate:        p.PaymentDate.Format(time.DateOnly),
		Reference:          p.Reference,
		BeneficiaryAccount: fieldcrypt.Mask(beneficiary),
		JournalEntryID:     p.JournalEntryID,
		CreatedAt:          p.CreatedAt,
	}
}

// CreateReceiptRequest entrada de POST /api/v1/ar/receipts.
type CreateReceiptRequest struct {
	CustomerName          string          `json:"customer_name" validate:"required,max=200"`
	Amount                decimal.Decimal `json:"amount"`
	ReceiptDate           string          `json:"receipt_date" validate:"required,datetime=2006-01-02"`
	Reference             string          `json:"reference" validate:"max=100"`
	CashAccountCode       string          `json:"cash_account_code" validate:"required"`
	ReceivableAccountCode string          `json:"receivable_account_code" validate:"required"`
	ApproverIDs           []string        `json:"approver_ids"`
}

// ReceiptResponse salida de un cobro.
type ReceiptResponse struct {
	ID             string                `json:"id"`
	CustomerName   string                `json:"customer_name"`
	Amount         string                `json:"amount"`
	ReceiptDate    string                `json:"receipt_date"`
	Reference      string                `json:"reference,omitempty"`
	JournalEntryID string                `json:"journal_entry_id"`
	JournalEntry   *JournalEntryResponse `json:"journal_entry,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// ReceiptFromEntity mapea la entidad a su salida.
func ReceiptFromEntity(r *entity.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:             r.ID,
		CustomerName:   r.CustomerName,
		Amount:         Money(r.Amount),
		ReceiptDate:    r.ReceiptDate.Format(time.DateOnly),
		Reference:      r.Reference,
		JournalEntryID: r.JournalEntryID,
		CreatedAt:      r.CreatedAt,
	}
}
