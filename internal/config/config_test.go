package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no .env is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	for _, k := range []string{"APP_ENV", "HTTP_PORT", "STORE_DRIVER", "AUTO_SETTLE_LIMIT", "JWT_ACCESS_TTL", "WORKER_COUNT", "APP_MIGRATE"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.True(t, cfg.AutoSettleLimit.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.True(t, cfg.Migrate)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUTO_SETTLE_LIMIT", "1000.50")
	t.Setenv("JWT_ACCESS_TTL", "2m")
	t.Setenv("WORKER_COUNT", "not-a-number")
	t.Setenv("APP_MIGRATE", "false")
	t.Setenv("DB_MAX_CONNS", "25")

	cfg := Load()
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.True(t, cfg.AutoSettleLimit.Equal(decimal.RequireFromString("1000.50")))
	assert.Equal(t, 2*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.False(t, cfg.Migrate)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_PORT=9191\n"), 0o600))
	t.Setenv("HTTP_PORT", "")
	os.Unsetenv("HTTP_PORT")

	cfg := Load()
	assert.Equal(t, "9191", cfg.HTTPPort)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	cfg := Load()

	bad := cfg
	bad.StoreDriver = "sqlite"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.AutoSettleLimit = decimal.Zero
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Env = "prod"
	bad.JWTAccessSecret = "changeme-access"
	assert.Error(t, bad.Validate())
}
