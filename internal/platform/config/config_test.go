package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, 3, cfg.TxMaxAttempts)
	assert.Equal(t, "event", cfg.AnalyticsRefreshMode)
	assert.Equal(t, 5*time.Minute, cfg.AnalyticsRebuildInterval)
	assert.Equal(t, "", cfg.RedisAddr())
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "STORE_DRIVER=memory\nTX_MAX_ATTEMPTS=5\nREDIS_HOST=cache\nANALYTICS_REBUILD_INTERVAL=0s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"STORE_DRIVER", "TX_MAX_ATTEMPTS", "REDIS_HOST", "ANALYTICS_REBUILD_INTERVAL"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 5, cfg.TxMaxAttempts)
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.Equal(t, time.Duration(0), cfg.AnalyticsRebuildInterval)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresDSN())

	cfg.DatabaseURL = "postgres://override"
	assert.Equal(t, "postgres://override", cfg.PostgresDSN())
}
