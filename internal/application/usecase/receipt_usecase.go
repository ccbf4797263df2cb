package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Contabilidad-api/internal/application/audit"
	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/idempotency"
	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
	"github.com/jhoicas/Contabilidad-api/internal/application/posting"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/ledger"
)

// ReceiptSortFields columnas admitidas en sort_by para cobros.
var ReceiptSortFields = []string{"receipt_date", "amount", "customer_name", "created_at"}

// ReceiptUseCase cobros AR: débito caja, crédito CxC.
type ReceiptUseCase struct {
	tx       ports.TxRunner
	reads    ports.Repos
	engine   *posting.Engine
	recorder *audit.Recorder
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(tx ports.TxRunner, reads ports.Repos, engine *posting.Engine, recorder *audit.Recorder) *ReceiptUseCase {
	return &ReceiptUseCase{tx: tx, reads: reads, engine: engine, recorder: recorder}
}

// Create registra el cobro y su asiento en una sola transacción.
func (uc *ReceiptUseCase) Create(ctx context.Context, scope entity.RequestScope, in dto.CreateReceiptRequest, pending *idempotency.Pending) (*dto.ReceiptResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	date, err := parseDate(in.ReceiptDate, "receipt_date")
	if err != nil {
		return nil, err
	}
	if !ledger.ValidAmount(in.Amount) {
		return nil, domain.ErrValidation.WithDetails(map[string]any{"field": "amount", "reason": "debe ser positivo, menor a 10^16 y con máximo 2 decimales"})
	}
	receipt := &entity.Receipt{
		ID:           uuid.NewString(),
		TenantID:     scope.TenantID,
		CustomerName: strings.TrimSpace(in.CustomerName),
		Amount:       in.Amount,
		ReceiptDate:  date,
		Reference:    in.Reference,
		CreatedBy:    scope.ActorID(),
		CreatedAt:    time.Now(),
	}
	var out dto.ReceiptResponse
	err = uc.tx.Run(ctx, func(tx ports.Repos) error {
		entry, err := uc.engine.PostInTx(ctx, tx, scope, posting.Draft{
			EntryDate:    date,
			Description:  "Cobro a " + receipt.CustomerName,
			SourceModule: entity.SourceAR,
			SourceID:     receipt.ID,
			Lines: []posting.LineInput{
				{AccountCode: in.CashAccountCode, Description: "Entrada de caja", Debit: in.Amount},
				{AccountCode: in.ReceivableAccountCode, Description: "Cuentas por cobrar", Credit: in.Amount},
			},
			ApproverIDs: in.ApproverIDs,
		})
		if err != nil {
			return err
		}
		receipt.JournalEntryID = entry.ID
		if err := tx.Receipts.Create(ctx, receipt); err != nil {
			return err
		}
		if err := uc.recorder.Log(ctx, tx.Audit, scope, audit.Event{
			EntityType: entity.EntityReceipt,
			EntityID:   receipt.ID,
			EventType:  entity.AuditCreate,
			Metadata:   map[string]any{"amount": dto.Money(receipt.Amount), "journal_entry_id": entry.ID},
		}); err != nil {
			return err
		}
		out = dto.ReceiptFromEntity(receipt)
		out.JournalEntry = dto.JournalFromEntity(entry)
		return pending.Store(ctx, tx.Idempotency, out)
	})
	if err != nil {
		pending.Reset()
		return nil, err
	}
	uc.engine.AfterCommit(ctx, scope.TenantID)
	return &out, nil
}

// List lista cobros del tenant.
func (uc *ReceiptUseCase) List(ctx context.Context, scope entity.RequestScope, q entity.PageQuery) ([]dto.ReceiptResponse, int, error) {
	list, total, err := uc.reads.Receipts.List(ctx, scope.TenantID, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ReceiptResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.ReceiptFromEntity(r))
	}
	return out, total, nil
}
