package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// JournalLineRequest línea de un asiento. Se identifica la cuenta por id o por código.
type JournalLineRequest struct {
	AccountID   string          `json:"account_id" validate:"required_without=AccountCode"`
	AccountCode string          `json:"account_code" validate:"required_without=AccountID"`
	Description string          `json:"description" validate:"max=500"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// CreateJournalRequest entrada de POST /api/v1/gl/journal-entries.
type CreateJournalRequest struct {
	EntryDate   string               `json:"entry_date" validate:"required,datetime=2006-01-02"`
	Description string               `json:"description" validate:"required,max=500"`
	SourceID    string               `json:"source_id" validate:"max=100"`
	Lines       []JournalLineRequest `json:"lines" validate:"required,min=1,dive"`
	ApproverIDs []string             `json:"approver_ids"`
}

// ReverseJournalRequest entrada de POST /api/v1/gl/journal-entries/:id/reverse.
type ReverseJournalRequest struct {
	Reason      string   `json:"reason" validate:"required,max=500"`
	EntryDate   string   `json:"entry_date" validate:"omitempty,datetime=2006-01-02"`
	ApproverIDs []string `json:"approver_ids"`
}

// JournalLineResponse línea contabilizada.
type JournalLineResponse struct {
	LineNumber  int    `json:"line_number"`
	AccountID   string `json:"account_id"`
	Description string `json:"description,omitempty"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

// JournalEntryResponse salida de un asiento.
type JournalEntryResponse struct {
	ID                string                `json:"id"`
	EntryNumber       string                `json:"entry_number"`
	EntryDate         string                `json:"entry_date"`
	Description       string                `json:"description"`
	SourceModule      string                `json:"source_module"`
	SourceID          string                `json:"source_id,omitempty"`
	Status            string                `json:"status"`
	TotalDebit        string                `json:"total_debit"`
	TotalCredit       string                `json:"total_credit"`
	PostedAt          *time.Time            `json:"posted_at,omitempty"`
	PostedBy          string                `json:"posted_by,omitempty"`
	ReversedByEntryID string                `json:"reversed_by_entry_id,omitempty"`
	Lines             []JournalLineResponse `json:"lines"`
}

// Money formatea montos con 2 decimales fijos ("100.00").
func Money(d decimal.Decimal) string { return d.StringFixed(2) }

// JournalFromEntity mapea la entidad a su salida.
func JournalFromEntity(e *entity.JournalEntry) *JournalEntryResponse {
	if e == nil {
		return nil
	}
	out := &JournalEntryResponse{
		ID:                e.ID,
		EntryNumber:       e.EntryNumber,
		EntryDate:         e.EntryDate.Format(time.DateOnly),
		Description:       e.Description,
		SourceModule:      e.SourceModule,
		SourceID:          e.SourceID,
		Status:            e.Status,
		TotalDebit:        Money(e.TotalDebit),
		TotalCredit:       Money(e.TotalCredit),
		PostedAt:          e.PostedAt,
		PostedBy:          e.PostedBy,
		ReversedByEntryID: e.ReversedByEntryID,
		Lines:             make([]JournalLineResponse, 0, len(e.Lines)),
	}
	for _, l := range e.Lines {
		out.Lines = append(out.Lines, JournalLineResponse{
			LineNumber:  l.LineNumber,
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       Money(l.DebitAmount),
			Credit:      Money(l.CreditAmount),
		})
	}
	return out
}
