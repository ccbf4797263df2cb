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
	"github.com/jhoicas/Contabilidad-api/pkg/fieldcrypt"
)

// PaymentSortFields columnas admitidas en sort_by para pagos.
var PaymentSortFields = []string{"payment_date", "amount", "vendor_name", "created_at"}

// PaymentUseCase pagos AP: cada pago genera su asiento (débito CxP, crédito caja) en la misma tx.
type PaymentUseCase struct {
	tx       ports.TxRunner
	reads    ports.Repos
	engine   *posting.Engine
	recorder *audit.Recorder
	cipher   *fieldcrypt.Cipher
}

// NewPaymentUseCase construye el caso de uso.
func NewPaymentUseCase(tx ports.TxRunner, reads ports.Repos, engine *posting.Engine, recorder *audit.Recorder, cipher *fieldcrypt.Cipher) *PaymentUseCase {
	return &PaymentUseCase{tx: tx, reads: reads, engine: engine, recorder: recorder, cipher: cipher}
}

// Create registra el pago y lo contabiliza. Acciones evaluadas en la matriz: "ap:post" y "ap:payment".
func (uc *PaymentUseCase) Create(ctx context.Context, scope entity.RequestScope, in dto.CreatePaymentRequest, pending *idempotency.Pending) (*dto.PaymentResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	date, err := parseDate(in.PaymentDate, "payment_date")
	if err != nil {
		return nil, err
	}
	if !ledger.ValidAmount(in.Amount) {
		return nil, domain.ErrValidation.WithDetails(map[string]any{"field": "amount", "reason": "debe ser positivo, menor a 10^16 y con máximo 2 decimales"})
	}
	beneficiary, err := uc.cipher.Encrypt(strings.TrimSpace(in.BeneficiaryAccount))
	if err != nil {
		return nil, err
	}
	now := time.Now()
	payment := &entity.Payment{
		ID:                 uuid.NewString(),
		TenantID:           scope.TenantID,
		VendorName:         strings.TrimSpace(in.VendorName),
		Amount:             in.Amount,
		PaymentDate:        date,
		Reference:          in.Reference,
		BeneficiaryAccount: beneficiary,
		CreatedBy:          scope.ActorID(),
		CreatedAt:          now,
	}

	var out dto.PaymentResponse
	err = uc.tx.Run(ctx, func(tx ports.Repos) error {
		entry, err := uc.engine.PostInTx(ctx, tx, scope, posting.Draft{
			EntryDate:    date,
			Description:  "Pago a " + payment.VendorName,
			SourceModule: entity.SourceAP,
			SourceID:     payment.ID,
			Lines: []posting.LineInput{
				{AccountCode: in.PayableAccountCode, Description: "Cuentas por pagar", Debit: in.Amount},
				{AccountCode: in.CashAccountCode, Description: "Salida de caja", Credit: in.Amount},
			},
			ApproverIDs: in.ApproverIDs,
			Actions:     []string{entity.SourceAP + ":post", entity.SourceAP + ":payment"},
		})
		if err != nil {
			return err
		}
		payment.JournalEntryID = entry.ID
		if err := tx.Payments.Create(ctx, payment); err != nil {
			return err
		}
		if err := uc.recorder.Log(ctx, tx.Audit, scope, audit.Event{
			EntityType: entity.EntityPayment,
			EntityID:   payment.ID,
			EventType:  entity.AuditCreate,
			Metadata: map[string]any{
				"amount":           dto.Money(payment.Amount),
				"vendor_name":      payment.VendorName,
				"journal_entry_id": entry.ID,
			},
		}); err != nil {
			return err
		}
		out = dto.PaymentFromEntity(payment, in.BeneficiaryAccount)
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

// List lista pagos del tenant con la cuenta del beneficiario enmascarada.
func (uc *PaymentUseCase) List(ctx context.Context, scope entity.RequestScope, q entity.PageQuery) ([]dto.PaymentResponse, int, error) {
	list, total, err := uc.reads.Payments.List(ctx, scope.TenantID, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.PaymentResponse, 0, len(list))
	for _, p := range list {
		plain, err := uc.cipher.Decrypt(p.BeneficiaryAccount)
		if err != nil {
			plain = ""
		}
		out = append(out, dto.PaymentFromEntity(p, plain))
	}
	return out, total, nil
}

// parseDate valida la fecha (YYYY-MM-DD) de un documento de módulo.
func parseDate(date, field string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, domain.ErrValidation.WithDetails(map[string]any{"field": field, "reason": "fecha inválida"})
	}
	return d, nil
}
