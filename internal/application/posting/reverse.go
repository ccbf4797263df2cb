package posting

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/Contabilidad-api/internal/application/audit"
	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/idempotency"
	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/ledger"
)

// ReverseInput datos del reverso. EntryDate cero = fecha de hoy.
type ReverseInput struct {
	Reason      string
	EntryDate   time.Time
	ApproverIDs []string
}

// ReverseJournal contabiliza el asiento espejo (débito↔crédito) con source_id = original
// y marca el original como reversed. Solo se reversa un asiento posted.
func (e *Engine) ReverseJournal(ctx context.Context, scope entity.RequestScope, entryID string, in ReverseInput, pending *idempotency.Pending) (*dto.JournalEntryResponse, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, domain.ErrValidation.WithDetails(map[string]any{"field": "reason", "reason": "requerido"})
	}
	var out *dto.JournalEntryResponse
	err := e.tx.Run(ctx, func(tx ports.Repos) error {
		orig, err := tx.Journals.GetForUpdate(ctx, scope.TenantID, entryID)
		if err != nil {
			return err
		}
		if orig == nil {
			return domain.ErrNotFound.WithDetails(map[string]any{"entity": entity.EntityJournalEntry, "id": entryID})
		}
		if orig.Status != entity.JournalStatusPosted {
			return domain.ErrPostingNotReversible.WithDetails(map[string]any{"status": orig.Status, "entry_number": orig.EntryNumber})
		}

		date := in.EntryDate
		if date.IsZero() {
			y, m, d := e.now().Date()
			date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
		mirror := ledger.Mirror(orig.Lines)
		lines := make([]LineInput, len(mirror))
		for i, l := range mirror {
			lines[i] = LineInput{AccountID: l.AccountID, Description: l.Description, Debit: l.DebitAmount, Credit: l.CreditAmount}
		}
		reversal, err := e.PostInTx(ctx, tx, scope, Draft{
			EntryDate:    date,
			Description:  "Reverso " + orig.EntryNumber + ": " + strings.TrimSpace(in.Reason),
			SourceModule: orig.SourceModule,
			SourceID:     orig.ID,
			Lines:        lines,
			ApproverIDs:  in.ApproverIDs,
			Actions:      []string{orig.SourceModule + ":reverse"},
		})
		if err != nil {
			return err
		}
		if err := tx.Journals.MarkReversed(ctx, scope.TenantID, orig.ID, reversal.ID, e.now()); err != nil {
			return err
		}
		if err := e.recorder.Log(ctx, tx.Audit, scope, audit.Event{
			EntityType: entity.EntityJournalEntry,
			EntityID:   orig.ID,
			EventType:  entity.AuditReverse,
			Metadata: map[string]any{
				"entry_number":          orig.EntryNumber,
				"reversed_by_entry_id":  reversal.ID,
				"reversal_entry_number": reversal.EntryNumber,
				"reason":                strings.TrimSpace(in.Reason),
			},
		}); err != nil {
			return err
		}
		out = dto.JournalFromEntity(reversal)
		return pending.Store(ctx, tx.Idempotency, out)
	})
	if err != nil {
		pending.Reset()
		return nil, err
	}
	e.AfterCommit(ctx, scope.TenantID)
	return out, nil
}
