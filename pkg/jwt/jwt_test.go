package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/pkg/jwt"
)

const secret = "test-secret"

func TestGenerateParse_RoundTrip(t *testing.T) {
	sub := jwt.Subject{UserID: "u-1", TenantID: "acme", Roles: []string{"accountant"}}
	tok, err := jwt.Generate(secret, "contabilidad-api", sub, time.Now(), time.Minute)
	require.NoError(t, err)

	claims, err := jwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "acme", claims.TenantID)
	assert.Equal(t, []string{"accountant"}, claims.Roles)
	assert.False(t, claims.IsSuperuser)
}

func TestParse_Expirado(t *testing.T) {
	tok, err := jwt.Generate(secret, "x", jwt.Subject{UserID: "u-1", TenantID: "acme"}, time.Now().Add(-2*time.Hour), time.Minute)
	require.NoError(t, err)

	_, err = jwt.Parse(secret, tok)
	assert.ErrorIs(t, err, jwt.ErrExpired)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := jwt.Generate(secret, "x", jwt.Subject{UserID: "u-1", TenantID: "acme"}, time.Now(), time.Minute)
	require.NoError(t, err)

	_, err = jwt.Parse("otro-secret", tok)
	assert.ErrorIs(t, err, jwt.ErrMalformed)

	_, err = jwt.Parse(secret, "no.es.jwt")
	assert.ErrorIs(t, err, jwt.ErrMalformed)
}

func TestPeekTenant(t *testing.T) {
	tok, err := jwt.Generate(secret, "x", jwt.Subject{UserID: "u-1", TenantID: "tenant_b"}, time.Now(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "tenant_b", jwt.PeekTenant(tok))
	assert.Empty(t, jwt.PeekTenant("basura"))
}
