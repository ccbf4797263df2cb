package posting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/application/audit"
	"github.com/jhoicas/Contabilidad-api/internal/application/posting"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/approval"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/memory"
)

var entryDate = time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

type env struct {
	store  *memory.Store
	engine *posting.Engine
	scope  entity.RequestScope
}

func setup(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	r := store.Repos()

	for _, a := range []entity.Account{
		{ID: "acc-cash", TenantID: "acme", Code: "1000", Name: "Caja", Type: entity.AccountAsset, IsActive: true},
		{ID: "acc-rev", TenantID: "acme", Code: "4000", Name: "Ingresos", Type: entity.AccountRevenue, IsActive: true},
		{ID: "acc-old", TenantID: "acme", Code: "1999", Name: "Inactiva", Type: entity.AccountAsset, IsActive: false},
		{ID: "glx-cash", TenantID: "globex", Code: "1000", Name: "Caja", Type: entity.AccountAsset, IsActive: true},
	} {
		a.CurrentBalance = decimal.Zero
		require.NoError(t, r.Accounts.Create(ctx, &a))
	}
	for _, u := range []entity.User{
		{ID: "u-acct", TenantID: "acme", Email: "contador@acme.co", Roles: []string{entity.RoleAccountant}, Status: entity.UserStatusActive},
		{ID: "u-ctrl", TenantID: "acme", Email: "control@acme.co", Roles: []string{entity.RoleController}, Status: entity.UserStatusActive},
		{ID: "u-cfo", TenantID: "acme", Email: "cfo@acme.co", Roles: []string{entity.RoleCFO}, Status: entity.UserStatusActive},
		{ID: "g-ctrl", TenantID: "globex", Email: "control@globex.co", Roles: []string{entity.RoleController}, Status: entity.UserStatusActive},
	} {
		require.NoError(t, r.Users.Create(ctx, &u))
	}

	engine := posting.NewEngine(store, r, approval.NewMatrix(approval.DefaultRules()), audit.NewRecorder(), nil, nil)
	return &env{
		store:  store,
		engine: engine,
		scope: entity.RequestScope{
			TenantID:  "acme",
			TraceID:   "trace-1",
			Principal: entity.Principal{UserID: "u-acct", TenantID: "acme", Roles: []string{entity.RoleAccountant}},
		},
	}
}

func draft(amount string) posting.Draft {
	d := decimal.RequireFromString(amount)
	return posting.Draft{
		EntryDate:    entryDate,
		Description:  "Venta de contado",
		SourceModule: entity.SourceGL,
		Lines: []posting.LineInput{
			{AccountCode: "1000", Debit: d, Credit: decimal.Zero},
			{AccountCode: "4000", Debit: decimal.Zero, Credit: d},
		},
	}
}

func (e *env) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	a, err := e.store.Repos().Accounts.GetByID(context.Background(), "acme", id)
	require.NoError(t, err)
	return a.CurrentBalance
}

func TestPostJournal_AsientoCuadrado(t *testing.T) {
	e := setup(t)
	out, err := e.engine.PostJournal(context.Background(), e.scope, draft("100.00"), nil)
	require.NoError(t, err)

	assert.Equal(t, "GL-000001", out.EntryNumber)
	assert.Equal(t, entity.JournalStatusPosted, out.Status)
	assert.Equal(t, "100.00", out.TotalDebit)
	assert.Equal(t, "100.00", out.TotalCredit)
	assert.Equal(t, "u-acct", out.PostedBy)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, "acc-cash", out.Lines[0].AccountID)

	assert.True(t, e.balance(t, "acc-cash").Equal(decimal.NewFromInt(100)))
	assert.True(t, e.balance(t, "acc-rev").Equal(decimal.NewFromInt(100)), "ingreso crece por el haber")

	events := e.store.AuditEvents("acme")
	require.Len(t, events, 1)
	assert.Equal(t, entity.AuditPost, events[0].EventType)
	assert.Equal(t, "trace-1", events[0].Metadata["trace_id"])
}

func TestPostJournal_DescuadradoNoDejaRastro(t *testing.T) {
	e := setup(t)
	d := draft("100.00")
	d.Lines[1].Credit = decimal.RequireFromString("99.99")

	_, err := e.engine.PostJournal(context.Background(), e.scope, d, nil)
	require.ErrorIs(t, err, domain.ErrPostingUnbalanced)

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "100.00", de.Details["total_debit"])
	assert.Equal(t, "99.99", de.Details["total_credit"])

	assert.True(t, e.balance(t, "acc-cash").IsZero())
	assert.Empty(t, e.store.AuditEvents("acme"))
}

func TestPostJournal_CuentaInvalida(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	d := draft("10")
	d.Lines[0] = posting.LineInput{AccountID: "glx-cash", Debit: decimal.NewFromInt(10), Credit: decimal.Zero}
	_, err := e.engine.PostJournal(ctx, e.scope, d, nil)
	assert.ErrorIs(t, err, domain.ErrPostingInvalidAccount, "cuenta de otro tenant")

	d = draft("10")
	d.Lines[0].AccountCode = "1999"
	_, err = e.engine.PostJournal(ctx, e.scope, d, nil)
	assert.ErrorIs(t, err, domain.ErrPostingInvalidAccount, "cuenta inactiva")

	d = draft("10")
	d.Lines[0].AccountCode = "7777"
	_, err = e.engine.PostJournal(ctx, e.scope, d, nil)
	assert.ErrorIs(t, err, domain.ErrPostingInvalidAccount, "código inexistente")

	assert.Empty(t, e.store.AuditEvents("acme"))
}

func TestPostJournal_PeriodoCerrado(t *testing.T) {
	e := setup(t)
	e.store.AddFiscalPeriod(entity.FiscalPeriod{
		ID: "p1", TenantID: "acme", Name: "2026-05",
		StartDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		IsClosed:  true,
	})
	_, err := e.engine.PostJournal(context.Background(), e.scope, draft("10"), nil)
	require.ErrorIs(t, err, domain.ErrPostingInvalidAccount)

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "period_closed", de.Details["reason"])
}

func TestPostJournal_RequiereAprobacionSobreUmbral(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.engine.PostJournal(ctx, e.scope, draft("60000"), nil)
	require.ErrorIs(t, err, domain.ErrPostingApprovalRequired)
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{entity.RoleController}, de.Details["missing_roles"])

	// aprobador de otro tenant no cuenta
	d := draft("60000")
	d.ApproverIDs = []string{"g-ctrl"}
	_, err = e.engine.PostJournal(ctx, e.scope, d, nil)
	require.ErrorIs(t, err, domain.ErrPostingApprovalRequired)

	d.ApproverIDs = []string{"u-ctrl"}
	out, err := e.engine.PostJournal(ctx, e.scope, d, nil)
	require.NoError(t, err)
	assert.Equal(t, "60000.00", out.TotalDebit)

	var types []string
	for _, ev := range e.store.AuditEvents("acme") {
		types = append(types, ev.EventType)
	}
	assert.Equal(t, []string{entity.AuditApprove, entity.AuditPost}, types)
}

func TestPostJournal_NumeracionMonotonaPorModulo(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	first, err := e.engine.PostJournal(ctx, e.scope, draft("1"), nil)
	require.NoError(t, err)
	second, err := e.engine.PostJournal(ctx, e.scope, draft("2"), nil)
	require.NoError(t, err)
	ar := draft("3")
	ar.SourceModule = entity.SourceAR
	third, err := e.engine.PostJournal(ctx, e.scope, ar, nil)
	require.NoError(t, err)

	assert.Equal(t, "GL-000001", first.EntryNumber)
	assert.Equal(t, "GL-000002", second.EntryNumber)
	assert.Equal(t, "AR-000001", third.EntryNumber)
}

func TestPostJournal_FalloDeAuditoriaRevierte(t *testing.T) {
	e := setup(t)
	e.store.FailAuditAppends(errors.New("audit caído"))

	_, err := e.engine.PostJournal(context.Background(), e.scope, draft("100"), nil)
	require.Error(t, err)

	assert.True(t, e.balance(t, "acc-cash").IsZero())
	list, total, err := e.store.Repos().Journals.List(context.Background(), "acme", entity.PageQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestPostJournal_EncabezadoInvalido(t *testing.T) {
	e := setup(t)
	d := draft("1")
	d.SourceModule = "GL!"
	_, err := e.engine.PostJournal(context.Background(), e.scope, d, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReverseJournal_Espejo(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	orig, err := e.engine.PostJournal(ctx, e.scope, draft("250.50"), nil)
	require.NoError(t, err)

	// dos pasos: el solicitante necesita un controller distinto
	_, err = e.engine.ReverseJournal(ctx, e.scope, orig.ID, posting.ReverseInput{Reason: "error de digitación"}, nil)
	require.ErrorIs(t, err, domain.ErrPostingApprovalRequired)

	rev, err := e.engine.ReverseJournal(ctx, e.scope, orig.ID, posting.ReverseInput{
		Reason: "error de digitación", EntryDate: entryDate, ApproverIDs: []string{"u-ctrl"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "GL-000002", rev.EntryNumber)
	assert.Equal(t, orig.ID, rev.SourceID)
	assert.Equal(t, "250.50", rev.Lines[0].Credit)

	assert.True(t, e.balance(t, "acc-cash").IsZero())
	assert.True(t, e.balance(t, "acc-rev").IsZero())

	got, err := e.engine.GetJournal(ctx, e.scope, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JournalStatusReversed, got.Status)
	assert.Equal(t, rev.ID, got.ReversedByEntryID)

	_, err = e.engine.ReverseJournal(ctx, e.scope, orig.ID, posting.ReverseInput{Reason: "otra vez", ApproverIDs: []string{"u-ctrl"}}, nil)
	assert.ErrorIs(t, err, domain.ErrPostingNotReversible)
}

func TestReverseJournal_OtroTenantEsNotFound(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	orig, err := e.engine.PostJournal(ctx, e.scope, draft("5"), nil)
	require.NoError(t, err)

	other := entity.RequestScope{TenantID: "globex", Principal: entity.Principal{UserID: "g-ctrl", TenantID: "globex"}}
	_, err = e.engine.ReverseJournal(ctx, other, orig.ID, posting.ReverseInput{Reason: "x"}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.engine.GetJournal(ctx, other, orig.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFormatEntryNumber(t *testing.T) {
	assert.Equal(t, "AP-000042", posting.FormatEntryNumber("ap", 42))
	assert.Equal(t, "GL-1234567", posting.FormatEntryNumber("gl", 1234567))
}
