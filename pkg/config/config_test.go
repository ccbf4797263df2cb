package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/pkg/config"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret-de-prueba")
}

func TestLoad_DefaultsDesdeEnv(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 120, cfg.HTTP.RateLimitPerMin)
	assert.Equal(t, 5, cfg.Security.MaxLoginAttempts)
	assert.Equal(t, 48*time.Hour, cfg.Idempotency.Retention())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_FaltaJWTSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
}

func TestLoad_PostgresRequiereDatabaseURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_ProduccionExigeEncryptionKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/db")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENCRYPTION_KEY")
}

func TestLoad_RefreshMaximo30Dias(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("REFRESH_TOKEN_EXPIRE_DAYS", "45")

	_, err := config.Load()
	require.Error(t, err)
}

func TestIdempotencyRetention_Acotada(t *testing.T) {
	assert.Equal(t, 24*time.Hour, config.IdempotencyConfig{RetentionHours: 1}.Retention())
	assert.Equal(t, 72*time.Hour, config.IdempotencyConfig{RetentionHours: 500}.Retention())
}

func TestDBConfig_ReadURL(t *testing.T) {
	db := config.DBConfig{DatabaseURL: "primary", ReadReplicaURL: "replica"}
	assert.Equal(t, "primary", db.ReadURL())
	db.UseReadReplica = true
	assert.Equal(t, "replica", db.ReadURL())
}

func TestLoadApprovalRules_Yaml(t *testing.T) {
	path := t.TempDir() + "/matriz.yaml"
	content := "approval_rules:\n" +
		"  - action: \"ap:payment > 10000\"\n" +
		"    roles: [controller, cfo]\n" +
		"    policy: two-step\n" +
		"  - action: \"*:post\"\n" +
		"    min_amount: \"50000\"\n" +
		"    roles: [controller]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	specs, err := config.LoadApprovalRules(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "ap:payment > 10000", specs[0].Action)
	assert.Equal(t, []string{"controller", "cfo"}, specs[0].Roles)
	assert.Equal(t, "two-step", specs[0].Policy)
	assert.Equal(t, "50000", specs[1].MinAmount)
}

func TestLoadApprovalRules_SinReglas(t *testing.T) {
	path := t.TempDir() + "/vacia.yaml"
	require.NoError(t, os.WriteFile(path, []byte("otra_clave: 1\n"), 0o600))

	_, err := config.LoadApprovalRules(path)
	assert.Error(t, err)
}
