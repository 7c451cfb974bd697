package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_LoadsExistingFilesOnly(t *testing.T) {
	tmp := t.TempDir()
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "TENANTGUARD_TEST_ENV_LOAD=ok\n")

	t.Setenv("TENANTGUARD_TEST_ENV_LOAD", "")
	require.NoError(t, os.Unsetenv("TENANTGUARD_TEST_ENV_LOAD"))

	n, err := LoadEnv([]string{filepath.Join(tmp, ".env"), filepath.Join(tmp, ".env.local")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ok", os.Getenv("TENANTGUARD_TEST_ENV_LOAD"))
}

func TestLoad_Defaults(t *testing.T) {
	conf, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "X-Tenant-Id", conf.Tenancy.OverrideHeader)
	assert.Equal(t, 100*time.Millisecond, conf.Tenancy.SettleWindow)
	assert.False(t, conf.Seed.Enabled)
	assert.Equal(t, "localhost:3200", conf.SocketAddress)
	assert.NotNil(t, conf.Logger())
	assert.Contains(t, conf.Database.Opts, "dbname=tenantguard")
	assert.Equal(t, "disabled", conf.RLSEnforce)
}

func TestLoad_RLSEnforce(t *testing.T) {
	t.Run("Normalized", func(t *testing.T) {
		t.Setenv("RLS_ENFORCE", " Enforce ")
		t.Setenv("DB_USER", "tenantguard_app")
		conf, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "enforce", conf.RLSEnforce)
	})

	t.Run("Unknown_Mode", func(t *testing.T) {
		t.Setenv("RLS_ENFORCE", "strict")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("Superuser_Bypasses_Policies", func(t *testing.T) {
		t.Setenv("RLS_ENFORCE", "enforce")
		t.Setenv("DB_USER", "postgres")
		_, err := Load()
		require.Error(t, err)
	})
}

func TestLoad_SeedGate(t *testing.T) {
	t.Setenv("SEED_SUPERUSER_ENABLED", "true")
	t.Setenv("SEED_SUPERUSER_EMAIL", "ops@example.com")

	conf, err := Load()
	require.NoError(t, err)
	assert.True(t, conf.Seed.Enabled)
	assert.Equal(t, "ops@example.com", conf.Seed.Email)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Run("Rate_Limit_Storage", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_STORAGE", "disk")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("Redis_Without_URL", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_STORAGE", "redis")
		t.Setenv("RATE_LIMIT_REDIS_URL", "")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("Negative_Settle_Window", func(t *testing.T) {
		t.Setenv("TENANT_SETTLE_WINDOW", "-1s")
		_, err := Load()
		require.Error(t, err)
	})
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
