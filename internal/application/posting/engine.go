// Package posting construye, valida y contabiliza asientos de partida doble.
package posting

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/application/audit"
	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/idempotency"
	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/approval"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/ledger"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

var moduleName = regexp.MustCompile(`^[a-z][a-z0-9_]{0,19}$`)

// LineInput línea del borrador. La cuenta se indica por AccountID o, si está vacío, por AccountCode.
type LineInput struct {
	AccountID   string
	AccountCode string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// Draft borrador a contabilizar. Actions son los descriptores que se consultan en la matriz
// de aprobaciones; vacío equivale a "<source_module>:post".
type Draft struct {
	EntryDate    time.Time
	Description  string
	SourceModule string
	SourceID     string
	Lines        []LineInput
	ApproverIDs  []string
	Actions      []string
}

// Engine motor de contabilización. Las escrituras van por TxRunner; las lecturas por reads
// (réplica si está habilitada).
type Engine struct {
	tx       ports.TxRunner
	reads    ports.Repos
	matrix   *approval.Matrix
	recorder *audit.Recorder
	cache    ports.TenantCache
	log      *logger.Logger
	now      func() time.Time
}

// NewEngine construye el motor. cache puede ser nil.
func NewEngine(tx ports.TxRunner, reads ports.Repos, matrix *approval.Matrix, recorder *audit.Recorder, cache ports.TenantCache, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{tx: tx, reads: reads, matrix: matrix, recorder: recorder, cache: cache, log: log, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// PostJournal contabiliza el borrador en una transacción propia. Si pending no es nil,
// la respuesta se guarda como registro de idempotencia en la misma transacción.
func (e *Engine) PostJournal(ctx context.Context, scope entity.RequestScope, d Draft, pending *idempotency.Pending) (*dto.JournalEntryResponse, error) {
	var out *dto.JournalEntryResponse
	err := e.tx.Run(ctx, func(tx ports.Repos) error {
		entry, err := e.PostInTx(ctx, tx, scope, d)
		if err != nil {
			return err
		}
		out = dto.JournalFromEntity(entry)
		return pending.Store(ctx, tx.Idempotency, out)
	})
	if err != nil {
		pending.Reset()
		return nil, err
	}
	e.AfterCommit(ctx, scope.TenantID)
	return out, nil
}

// AfterCommit invalida la caché del tenant (saldos de cuentas) tras un commit que contabilizó.
func (e *Engine) AfterCommit(ctx context.Context, tenantID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateTenant(ctx, tenantID); err != nil {
		e.log.Warn().Err(err).Str(logger.FieldTenantID, tenantID).Msg("no se pudo invalidar caché del tenant")
	}
}

// PostInTx ejecuta el algoritmo completo con repos ya atados a una transacción abierta.
// Lo usan los módulos (AP, AR) que contabilizan junto con su propio cambio de estado.
func (e *Engine) PostInTx(ctx context.Context, tx ports.Repos, scope entity.RequestScope, d Draft) (*entity.JournalEntry, error) {
	if err := validateHeader(d); err != nil {
		return nil, err
	}

	// Pasos 1 a 3: líneas y balance, antes de tocar la base.
	lines := make([]entity.JournalEntryLine, len(d.Lines))
	for i, in := range d.Lines {
		ref := in.AccountID
		if ref == "" {
			ref = in.AccountCode
		}
		lines[i] = entity.JournalEntryLine{
			LineNumber:   i + 1,
			AccountID:    ref,
			Description:  strings.TrimSpace(in.Description),
			DebitAmount:  in.Debit,
			CreditAmount: in.Credit,
		}
	}
	totalDebit, totalCredit, err := ledger.Validate(lines)
	if err != nil {
		return nil, err
	}

	// Paso 4: resolución y bloqueo de cuentas en orden ascendente de ID.
	if err := resolveCodes(ctx, tx, scope.TenantID, d.Lines, lines); err != nil {
		return nil, err
	}
	accounts, err := lockAccounts(ctx, tx, scope.TenantID, lines)
	if err != nil {
		return nil, err
	}
	period, err := tx.Periods.FindClosed(ctx, scope.TenantID, d.EntryDate)
	if err != nil {
		return nil, err
	}
	if period != nil {
		return nil, domain.ErrPostingInvalidAccount.WithMessage("el periodo contable está cerrado").WithDetails(map[string]any{
			"reason": "period_closed",
			"period": period.Name,
		})
	}

	// Paso 5: matriz de aprobaciones.
	approvals, err := e.checkApprovals(ctx, tx, scope, d, totalDebit)
	if err != nil {
		return nil, err
	}

	// Paso 6: número, asiento, líneas y saldos.
	seq, err := tx.Journals.NextSequence(ctx, scope.TenantID, d.SourceModule)
	if err != nil {
		return nil, err
	}
	now := e.now()
	entry := &entity.JournalEntry{
		ID:           uuid.NewString(),
		TenantID:     scope.TenantID,
		EntryNumber:  FormatEntryNumber(d.SourceModule, seq),
		Sequence:     seq,
		EntryDate:    d.EntryDate,
		Description:  strings.TrimSpace(d.Description),
		SourceModule: d.SourceModule,
		SourceID:     d.SourceID,
		Status:       entity.JournalStatusPosted,
		TotalDebit:   totalDebit,
		TotalCredit:  totalCredit,
		PostedAt:     &now,
		PostedBy:     scope.ActorID(),
		CreatedAt:    now,
		Lines:        lines,
	}
	for i := range entry.Lines {
		entry.Lines[i].ID = uuid.NewString()
		entry.Lines[i].JournalEntryID = entry.ID
	}
	if err := tx.Journals.Create(ctx, entry); err != nil {
		return nil, err
	}
	if err := applyBalances(ctx, tx, scope.TenantID, accounts, entry.Lines); err != nil {
		return nil, err
	}

	// Paso 7: auditoría en la misma transacción.
	if len(approvals.Rules) > 0 {
		if err := e.recorder.Log(ctx, tx.Audit, scope, audit.Event{
			EntityType: entity.EntityJournalEntry,
			EntityID:   entry.ID,
			EventType:  entity.AuditApprove,
			Metadata:   map[string]any{"approver_ids": d.ApproverIDs, "rules": ruleNames(approvals.Rules)},
		}); err != nil {
			return nil, err
		}
	}
	if err := e.recorder.Log(ctx, tx.Audit, scope, audit.Event{
		EntityType: entity.EntityJournalEntry,
		EntityID:   entry.ID,
		EventType:  entity.AuditPost,
		Metadata: map[string]any{
			"entry_number":  entry.EntryNumber,
			"source_module": entry.SourceModule,
			"total_debit":   dto.Money(totalDebit),
			"total_credit":  dto.Money(totalCredit),
			"lines":         len(entry.Lines),
		},
	}); err != nil {
		return nil, err
	}

	e.log.Info().Str(logger.FieldTraceID, scope.TraceID).Str(logger.FieldTenantID, scope.TenantID).
		Str("entry_number", entry.EntryNumber).Str("total", dto.Money(totalDebit)).Msg("asiento contabilizado")
	return entry, nil
}

// FormatEntryNumber "<MÓDULO>-<secuencia de 6 dígitos>", p. ej. "GL-000042".
func FormatEntryNumber(module string, seq int64) string {
	return fmt.Sprintf("%s-%06d", strings.ToUpper(module), seq)
}

func validateHeader(d Draft) error {
	switch {
	case d.EntryDate.IsZero():
		return domain.ErrValidation.WithDetails(map[string]any{"field": "entry_date", "reason": "requerido"})
	case strings.TrimSpace(d.Description) == "":
		return domain.ErrValidation.WithDetails(map[string]any{"field": "description", "reason": "requerido"})
	case !moduleName.MatchString(d.SourceModule):
		return domain.ErrValidation.WithDetails(map[string]any{"field": "source_module", "reason": "formato inválido"})
	}
	return nil
}

func resolveCodes(ctx context.Context, tx ports.Repos, tenantID string, in []LineInput, lines []entity.JournalEntryLine) error {
	byCode := make(map[string]string)
	for i, l := range in {
		if l.AccountID != "" {
			continue
		}
		id, ok := byCode[l.AccountCode]
		if !ok {
			acct, err := tx.Accounts.GetByCode(ctx, tenantID, l.AccountCode)
			if err != nil {
				return err
			}
			if acct == nil {
				return domain.ErrPostingInvalidAccount.WithDetails(map[string]any{
					"line": i + 1, "account_code": l.AccountCode, "reason": "not_found",
				})
			}
			id = acct.ID
			byCode[l.AccountCode] = id
		}
		lines[i].AccountID = id
	}
	return nil
}

func lockAccounts(ctx context.Context, tx ports.Repos, tenantID string, lines []entity.JournalEntryLine) (map[string]*entity.Account, error) {
	ids := uniqueAccountIDs(lines)
	locked, err := tx.Accounts.LockForPosting(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Account, len(locked))
	for _, a := range locked {
		byID[a.ID] = a
	}
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			// inexistente o de otro tenant: no se distingue
			return nil, domain.ErrPostingInvalidAccount.WithDetails(map[string]any{"account_id": id, "reason": "not_found"})
		}
		if !a.IsActive {
			return nil, domain.ErrPostingInvalidAccount.WithDetails(map[string]any{"account_id": id, "account_code": a.Code, "reason": "inactive"})
		}
	}
	return byID, nil
}

func uniqueAccountIDs(lines []entity.JournalEntryLine) []string {
	seen := make(map[string]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	sort.Strings(ids)
	return ids
}

func applyBalances(ctx context.Context, tx ports.Repos, tenantID string, accounts map[string]*entity.Account, lines []entity.JournalEntryLine) error {
	types := make(map[string]entity.AccountType, len(accounts))
	for id, a := range accounts {
		types[id] = a.Type
	}
	deltas := ledger.AccountDeltas(lines, types)
	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		a := accounts[id]
		a.CurrentBalance = a.CurrentBalance.Add(deltas[id])
		if !ledger.InRange(a.CurrentBalance) {
			return domain.ErrValidation.WithMessage("el saldo resultante excede el rango permitido").WithDetails(map[string]any{"account_id": id})
		}
		if err := tx.Accounts.UpdateBalance(ctx, tenantID, id, a.CurrentBalance); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) checkApprovals(ctx context.Context, tx ports.Repos, scope entity.RequestScope, d Draft, amount decimal.Decimal) (approval.Result, error) {
	actions := d.Actions
	if len(actions) == 0 {
		actions = []string{d.SourceModule + ":post"}
	}
	approvers, err := loadApprovers(ctx, tx, scope.TenantID, d.ApproverIDs)
	if err != nil {
		return approval.Result{}, err
	}
	combined := approval.Result{OK: true}
	var descriptors []string
	for _, name := range actions {
		a := approval.Action{Name: name, Amount: amount}
		res := e.matrix.Check(a, scope.ActorID(), approvers)
		combined.Rules = append(combined.Rules, res.Rules...)
		combined.SelfApproval = combined.SelfApproval || res.SelfApproval
		for _, m := range res.Missing {
			if !containsString(combined.Missing, m) {
				combined.Missing = append(combined.Missing, m)
			}
		}
		if !res.OK {
			descriptors = append(descriptors, a.String())
		}
	}
	if len(combined.Missing) > 0 {
		details := map[string]any{
			"missing_roles": combined.Missing,
			"action":        strings.Join(descriptors, "; "),
			"rules":         ruleNames(combined.Rules),
		}
		if combined.SelfApproval {
			details["self_approval_excluded"] = true
		}
		return combined, domain.ErrPostingApprovalRequired.WithDetails(details)
	}
	return combined, nil
}

// loadApprovers carga solo usuarios activos del tenant; IDs ajenos no cuentan.
func loadApprovers(ctx context.Context, tx ports.Repos, tenantID string, ids []string) ([]approval.Approver, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := tx.Users.GetByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]approval.Approver, 0, len(users))
	for _, u := range users {
		if u.Status != entity.UserStatusActive {
			continue
		}
		out = append(out, approval.Approver{UserID: u.ID, Roles: u.Roles})
	}
	return out, nil
}

func ruleNames(rules []approval.Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.String())
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
