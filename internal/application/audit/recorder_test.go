package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/application/audit"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/memory"
)

var scope = entity.RequestScope{
	TenantID:  "acme",
	TraceID:   "01J0000000000000000000TRCE",
	Principal: entity.Principal{UserID: "u1", TenantID: "acme"},
}

func TestLog_AnexaConActorYTrace(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec := audit.NewRecorder()

	require.NoError(t, rec.Log(ctx, store.Repos().Audit, scope, audit.Event{
		EntityType: entity.EntityAccount, EntityID: "a1", EventType: entity.AuditCreate,
		Metadata: map[string]any{"account_code": "1000"},
	}))

	events := store.AuditEvents("acme")
	require.Len(t, events, 1)
	assert.Equal(t, "u1", events[0].ActorID)
	assert.Equal(t, scope.TraceID, events[0].TraceID)
	assert.Equal(t, "1000", events[0].Metadata["account_code"])
	assert.Equal(t, scope.TraceID, events[0].Metadata["trace_id"])
}

func TestLog_TipoInvalido(t *testing.T) {
	err := audit.NewRecorder().Log(context.Background(), memory.NewStore().Repos().Audit, scope, audit.Event{
		EntityType: entity.EntityAccount, EntityID: "a1", EventType: "purge",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLog_PropagaFalloDelSink(t *testing.T) {
	store := memory.NewStore()
	boom := errors.New("sin espacio")
	store.FailAuditAppends(boom)

	err := audit.NewRecorder().Log(context.Background(), store.Repos().Audit, scope, audit.Event{
		EntityType: entity.EntityAccount, EntityID: "a1", EventType: entity.AuditCreate,
	})
	assert.ErrorIs(t, err, boom)
}

func TestQueryService_SoloTenantDelScope(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec := audit.NewRecorder()
	other := entity.RequestScope{TenantID: "globex", Principal: entity.Principal{UserID: "g1", TenantID: "globex"}}

	require.NoError(t, rec.Log(ctx, store.Repos().Audit, scope, audit.Event{EntityType: entity.EntityAccount, EntityID: "a1", EventType: entity.AuditCreate}))
	require.NoError(t, rec.Log(ctx, store.Repos().Audit, other, audit.Event{EntityType: entity.EntityAccount, EntityID: "g1", EventType: entity.AuditCreate}))

	list, total, err := audit.NewQueryService(store.Repos().Audit).List(ctx, scope, repository.AuditFilter{}, entity.PageQuery{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "a1", list[0].EntityID)
}
