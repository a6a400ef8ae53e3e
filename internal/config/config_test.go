package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gestao/internal/config"
	"gestao/internal/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GESTAO_API_BASE_URL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.GetPort())
	assert.Equal(t, config.Development, cfg.Environment)
	assert.Equal(t, "America/Sao_Paulo", cfg.Timezone)
	assert.Equal(t, 15*time.Second, cfg.GetAPITimeout())
	assert.Equal(t, 650*time.Millisecond, cfg.GetTransitionDuration())
	assert.Equal(t, 12, cfg.HistoryMonths)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 30*24*time.Hour, cfg.GetCacheRetention())
	assert.Equal(t, time.Hour, cfg.GetJobInterval())

	var cfgErr *gateway.ConfigurationError
	assert.ErrorAs(t, cfg.Validate(), &cfgErr, "base URL is required")
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GESTAO_API_BASE_URL", "https://ssot.example.com")
	t.Setenv("GESTAO_API_TIMEOUT_SECONDS", "5")
	t.Setenv("GESTAO_ENV", "test")
	t.Setenv("GESTAO_CACHE_ENABLED", "false")
	t.Setenv("GESTAO_TIMEZONE", "UTC")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsTest())
	assert.Equal(t, 5*time.Second, cfg.GetAPITimeout())
	assert.False(t, cfg.CacheEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GESTAO_APP_PORT=4000\nGESTAO_API_BASE_URL=http://localhost:9999\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("GESTAO_APP_PORT=5000\n"), 0o644))

	// godotenv never overrides variables that are already set
	t.Setenv("GESTAO_APP_PORT", "")
	os.Unsetenv("GESTAO_APP_PORT")
	t.Setenv("GESTAO_API_BASE_URL", "")
	os.Unsetenv("GESTAO_API_BASE_URL")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.AppPort, ".env.local wins over .env")
	assert.Equal(t, "http://localhost:9999", cfg.APIBaseURL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("GESTAO_ENV", "staging")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("GESTAO_ENV", "test")
	t.Setenv("GESTAO_LOG_LEVEL", "verbose")
	_, err = config.Load()
	assert.Error(t, err)
}

func TestValidateTimezone(t *testing.T) {
	cfg := &config.Config{APIBaseURL: "https://ssot.example.com", Timezone: "Nowhere/Special"}
	var cfgErr *gateway.ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "timezone", cfgErr.Field)
}

func TestGetConfigIsCached(t *testing.T) {
	chdir(t, t.TempDir())
	config.Reset()
	t.Cleanup(config.Reset)

	t.Setenv("GESTAO_APP_PORT", "3100")
	first := config.GetConfig()
	t.Setenv("GESTAO_APP_PORT", "3200")
	assert.Same(t, first, config.GetConfig())

	config.Reset()
	assert.Equal(t, "3200", config.GetConfig().AppPort)
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
