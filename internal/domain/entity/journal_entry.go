package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del asiento: draft ──post──▶ posted ──reverse──▶ reversed.
const (
	JournalStatusDraft    = "draft"
	JournalStatusPosted   = "posted"
	JournalStatusReversed = "reversed"
)

// Módulos origen de asientos.
const (
	SourceGL = "gl"
	SourceAP = "ap"
	SourceAR = "ar"
)

// JournalEntry asiento contable. Es dueño de sus líneas; las líneas referencian cuentas por ID.
type JournalEntry struct {
	ID                string
	TenantID          string
	EntryNumber       string
	Sequence          int64
	EntryDate         time.Time
	Description       string
	SourceModule      string
	SourceID          string
	Status            string
	TotalDebit        decimal.Decimal
	TotalCredit       decimal.Decimal
	PostedAt          *time.Time
	PostedBy          string
	ReversedByEntryID string
	ReversedAt        *time.Time
	CreatedAt         time.Time
	Lines             []JournalEntryLine
}

// JournalEntryLine línea inmutable; exactamente uno de DebitAmount/CreditAmount es positivo.
type JournalEntryLine struct {
	ID             string
	JournalEntryID string
	LineNumber     int
	AccountID      string
	Description    string
	DebitAmount    decimal.Decimal
	CreditAmount   decimal.Decimal
}

// FiscalPeriod periodo contable de un tenant; cerrado no admite contabilizaciones.
type FiscalPeriod struct {
	ID        string
	TenantID  string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	IsClosed  bool
}

// Contains indica si la fecha cae dentro del periodo (ambos extremos incluidos).
func (p *FiscalPeriod) Contains(d time.Time) bool {
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}
