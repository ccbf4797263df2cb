package idempotency_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/application/idempotency"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/memory"
)

const endpoint = "POST /api/v1/gl/journal-entries"

func TestHash_EquivalenciaJSON(t *testing.T) {
	a := idempotency.Hash([]byte(`{"amount": 1.00, "lines": [{"b": 2, "a": "x"}]}`))
	b := idempotency.Hash([]byte(`{"lines":[{"a":"x","b":2.0}],"amount":1}`))
	c := idempotency.Hash([]byte(`{"amount": 1.01, "lines": [{"b": 2, "a": "x"}]}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestHash_ExponenteExtremoNoSeNormaliza(t *testing.T) {
	start := time.Now()
	a := idempotency.Hash([]byte(`{"amount":1e3000000}`))
	b := idempotency.Hash([]byte(`{"amount": 1e3000000}`))
	c := idempotency.Hash([]byte(`{"amount":1e3000001}`))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	canon, err := idempotency.Canonicalize([]byte(`{"x": 1e-900000, "y": 2.50}`))
	require.NoError(t, err)
	assert.Equal(t, `{"x":1e-900000,"y":2.5}`, string(canon))
}

func TestHash_CuerpoNoJSON(t *testing.T) {
	assert.Equal(t, idempotency.Hash([]byte("abc")), idempotency.Hash([]byte("abc")))
	assert.NotEqual(t, idempotency.Hash([]byte("abc")), idempotency.Hash([]byte("abd")))
}

func TestValidateKey_Longitud(t *testing.T) {
	assert.NoError(t, idempotency.ValidateKey("k-1"))
	long := make([]byte, idempotency.MaxKeyLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, idempotency.ValidateKey(string(long)), domain.ErrValidation)
}

func TestLookup_Resultados(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Repos().Idempotency
	svc := idempotency.NewService(repo, nil, 48*time.Hour, nil)
	body := []byte(`{"description":"x"}`)

	_, outcome, err := svc.Lookup(ctx, "acme", "k1", endpoint, body)
	require.NoError(t, err)
	assert.Equal(t, idempotency.NotFound, outcome)

	p := svc.Begin("acme", "k1", endpoint, body)
	p.Status = 201
	require.NoError(t, p.Store(ctx, repo, map[string]string{"id": "j1"}))
	assert.True(t, p.Saved())

	rec, outcome, err := svc.Lookup(ctx, "acme", "k1", endpoint, []byte(`{ "description" : "x" }`))
	require.NoError(t, err)
	assert.Equal(t, idempotency.Replay, outcome)
	assert.Equal(t, 201, rec.StatusCode)
	_, stored := p.Response()
	assert.Equal(t, stored, rec.ResponseBody)

	_, outcome, _ = svc.Lookup(ctx, "acme", "k1", endpoint, []byte(`{"description":"y"}`))
	assert.Equal(t, idempotency.Mismatch, outcome)

	_, outcome, _ = svc.Lookup(ctx, "acme", "k1", "POST /api/v1/ap/payments", body)
	assert.Equal(t, idempotency.Mismatch, outcome)

	// otro tenant no ve la clave
	_, outcome, _ = svc.Lookup(ctx, "globex", "k1", endpoint, body)
	assert.Equal(t, idempotency.NotFound, outcome)
}

func TestSaveAfterCommit_IgnoraConflictoYGuardados(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Repos().Idempotency
	svc := idempotency.NewService(repo, nil, 48*time.Hour, nil)

	p := svc.Begin("acme", "k1", endpoint, nil)
	require.NoError(t, svc.SaveAfterCommit(ctx, p, 200, []byte(`{"status":"success"}`)))

	dup := svc.Begin("acme", "k1", endpoint, nil)
	assert.NoError(t, svc.SaveAfterCommit(ctx, dup, 200, []byte(`{}`)))
	assert.NoError(t, svc.SaveAfterCommit(ctx, nil, 200, nil))
}

func TestPending_NilEsNoop(t *testing.T) {
	var p *idempotency.Pending
	assert.NoError(t, p.Store(context.Background(), nil, "x"))
	assert.False(t, p.Saved())
	p.Reset()
}

func TestMemoryGuard_Exclusion(t *testing.T) {
	ctx := context.Background()
	g := idempotency.NewMemoryGuard()

	ok, _ := g.Acquire(ctx, "acme", "k1", time.Minute)
	assert.True(t, ok)
	ok, _ = g.Acquire(ctx, "acme", "k1", time.Minute)
	assert.False(t, ok)
	ok, _ = g.Acquire(ctx, "globex", "k1", time.Minute)
	assert.True(t, ok, "la guarda es por tenant")

	require.NoError(t, g.Release(ctx, "acme", "k1"))
	ok, _ = g.Acquire(ctx, "acme", "k1", time.Minute)
	assert.True(t, ok)
}

func TestPurge_Retencion(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Repos().Idempotency
	svc := idempotency.NewService(repo, nil, time.Nanosecond, nil)

	p := svc.Begin("acme", "k1", endpoint, nil)
	require.NoError(t, p.Save(ctx, repo, 200, []byte(`{}`)))
	time.Sleep(time.Millisecond)

	n, err := svc.Purge(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
