package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment pago de cuentas por pagar (AP).
// BeneficiaryAccount se persiste cifrado.
type Payment struct {
	ID                 string
	TenantID           string
	VendorName         string
	Amount             decimal.Decimal
	PaymentDate        time.Time
	Reference          string
	BeneficiaryAccount string
	JournalEntryID     string
	CreatedBy          string
	CreatedAt          time.Time
}

// Receipt cobro de cuentas por cobrar (AR).
type Receipt struct {
	ID             string
	TenantID       string
	CustomerName   string
	Amount         decimal.Decimal
	ReceiptDate    time.Time
	Reference      string
	JournalEntryID string
	CreatedBy      string
	CreatedAt      time.Time
}
