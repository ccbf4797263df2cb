package posting

import (
	"time"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// DraftFromRequest valida la entrada HTTP y arma el borrador de un asiento manual del GL.
func DraftFromRequest(in dto.CreateJournalRequest) (Draft, error) {
	if err := dto.Validate(in); err != nil {
		return Draft{}, err
	}
	date, err := time.Parse(time.DateOnly, in.EntryDate)
	if err != nil {
		return Draft{}, domain.ErrValidation.WithDetails(map[string]any{"field": "entry_date", "reason": "formato YYYY-MM-DD"})
	}
	d := Draft{
		EntryDate:    date,
		Description:  in.Description,
		SourceModule: entity.SourceGL,
		SourceID:     in.SourceID,
		ApproverIDs:  in.ApproverIDs,
		Lines:        make([]LineInput, 0, len(in.Lines)),
	}
	for _, l := range in.Lines {
		d.Lines = append(d.Lines, LineInput{
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
		})
	}
	return d, nil
}

// ReverseInputFromRequest valida la entrada de un reverso.
func ReverseInputFromRequest(in dto.ReverseJournalRequest) (ReverseInput, error) {
	if err := dto.Validate(in); err != nil {
		return ReverseInput{}, err
	}
	out := ReverseInput{Reason: in.Reason, ApproverIDs: in.ApproverIDs}
	if in.EntryDate != "" {
		date, err := time.Parse(time.DateOnly, in.EntryDate)
		if err != nil {
			return ReverseInput{}, domain.ErrValidation.WithDetails(map[string]any{"field": "entry_date", "reason": "formato YYYY-MM-DD"})
		}
		out.EntryDate = date
	}
	return out, nil
}
