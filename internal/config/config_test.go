package config_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AImitSK/skamp-monitoring/internal/config"
)

// viper holds global state, so these tests do not run in parallel.

func setRequired(t *testing.T) {
	t.Helper()

	viper.Set("database.host", "127.0.0.1")
	viper.Set("database.name", "monitoring")
	viper.Set("security.monitoring_secret", "test-secret")

	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	require.NoError(t, config.InitializeViper())
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "*/15 * * * *", cfg.Crawl.Schedule)
	assert.Equal(t, 5, cfg.Crawl.PoolSize)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Empty(t, cfg.Redis.Address, "redis is opt-in")
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	require.NoError(t, config.InitializeViper())
	t.Cleanup(viper.Reset)

	viper.Set("database.host", "127.0.0.1")
	viper.Set("database.name", "monitoring")
	viper.Set("security.monitoring_secret", "")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrMissingSecret)
}

func TestLoadParsesDurations(t *testing.T) {
	require.NoError(t, config.InitializeViper())
	setRequired(t)

	viper.Set("crawl.job_timeout", "2m")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "2m0s", cfg.Crawl.JobTimeout.String())
}

func TestDatabaseConnConfig(t *testing.T) {
	require.NoError(t, config.InitializeViper())
	setRequired(t)

	viper.Set("database.user", "svc")
	viper.Set("database.sslmode", "require")

	cfg, err := config.Load()
	require.NoError(t, err)

	conn := cfg.DatabaseConnConfig()
	assert.Equal(t, "svc", conn.User)
	assert.Equal(t, "monitoring", conn.DBName)
	assert.Equal(t, "require", conn.SSLMode)
}
