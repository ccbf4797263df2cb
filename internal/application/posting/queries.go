package posting

import (
	"context"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// JournalSortFields columnas admitidas en sort_by; la primera es el orden por defecto.
var JournalSortFields = []string{"entry_number", "entry_date", "created_at", "total_debit"}

// GetJournal devuelve un asiento del tenant. Un ID de otro tenant responde NOT_FOUND.
func (e *Engine) GetJournal(ctx context.Context, scope entity.RequestScope, id string) (*dto.JournalEntryResponse, error) {
	entry, err := e.reads.Journals.GetByID(ctx, scope.TenantID, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrNotFound.WithDetails(map[string]any{"entity": entity.EntityJournalEntry, "id": id})
	}
	return dto.JournalFromEntity(entry), nil
}

// ListJournals lista asientos del tenant del scope.
func (e *Engine) ListJournals(ctx context.Context, scope entity.RequestScope, q entity.PageQuery) ([]*dto.JournalEntryResponse, int, error) {
	entries, total, err := e.reads.Journals.List(ctx, scope.TenantID, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*dto.JournalEntryResponse, 0, len(entries))
	for _, en := range entries {
		out = append(out, dto.JournalFromEntity(en))
	}
	return out, total, nil
}
