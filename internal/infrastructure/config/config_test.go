package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the tests touch; viper treats empty values as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ERP_APP_NAME", "ERP_APP_ENV", "ERP_APP_PORT",
		"ERP_DATABASE_HOST", "ERP_DATABASE_PORT", "ERP_DATABASE_USER", "ERP_DATABASE_PASSWORD",
		"ERP_DATABASE_DBNAME", "ERP_DATABASE_SSLMODE", "ERP_DATABASE_MAX_OPEN_CONNS", "ERP_DATABASE_MAX_IDLE_CONNS",
		"ERP_REDIS_HOST", "ERP_REDIS_PORT",
		"ERP_JOBS_BILLED_STATUS", "ERP_JOBS_CUMULATIVE_EVENT_TYPE", "ERP_JOBS_OVERSTATED_SEARCH",
		"ERP_JOBS_WORKERS", "ERP_JOBS_RETRY_COUNT", "ERP_JOBS_EXIT_ON_ERROR",
		"ERP_TELEMETRY_DB_LOG_FULL_SQL", "ERP_TELEMETRY_SAMPLING_RATIO",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "erp-revrec", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "", cfg.Redis.Host)
		assert.Equal(t, 0, cfg.Redis.Port)
		assert.Equal(t, 3, cfg.Jobs.RetryCount)
		assert.False(t, cfg.Jobs.ExitOnError)
		assert.Equal(t, 4, cfg.Jobs.Workers)
		assert.Equal(t, 72*time.Hour, cfg.Jobs.MarkerTTL)
		assert.Equal(t, 3, cfg.Jobs.ConflictRetries)
		assert.NotNil(t, cfg.Jobs.Schedules)
	})

	t.Run("required job parameters have no defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Empty(t, cfg.Jobs.BilledStatus)
		assert.Zero(t, cfg.Jobs.CumulativeEventType)
		assert.Empty(t, cfg.Jobs.OverstatedSearch)
		assert.Empty(t, cfg.Jobs.CSVFolder)
	})

	t.Run("loads values from environment variables with ERP prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_APP_NAME", "test-app")
		t.Setenv("ERP_DATABASE_HOST", "testdb.local")
		t.Setenv("ERP_DATABASE_PORT", "5433")
		t.Setenv("ERP_DATABASE_SSLMODE", "require")
		t.Setenv("ERP_REDIS_HOST", "cache.local")
		t.Setenv("ERP_JOBS_BILLED_STATUS", "Billed")
		t.Setenv("ERP_JOBS_CUMULATIVE_EVENT_TYPE", "7")
		t.Setenv("ERP_JOBS_OVERSTATED_SEARCH", "over_recognized_lines")
		t.Setenv("ERP_JOBS_WORKERS", "8")
		t.Setenv("ERP_JOBS_EXIT_ON_ERROR", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, "cache.local", cfg.Redis.Host)
		assert.Equal(t, 6379, cfg.Redis.Port)
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
		assert.Equal(t, "Billed", cfg.Jobs.BilledStatus)
		assert.Equal(t, 7, cfg.Jobs.CumulativeEventType)
		assert.Equal(t, "over_recognized_lines", cfg.Jobs.OverstatedSearch)
		assert.Equal(t, 8, cfg.Jobs.Workers)
		assert.True(t, cfg.Jobs.ExitOnError)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates workers cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_JOBS_WORKERS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jobs.workers")
	})

	t.Run("validates sampling ratio", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_APP_ENV", "production")
		t.Setenv("ERP_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_APP_ENV", "production")
		t.Setenv("ERP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("ERP_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_APP_ENV", "production")
		t.Setenv("ERP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("ERP_DATABASE_SSLMODE", "require")
		t.Setenv("ERP_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_APP_ENV", "production")
		t.Setenv("ERP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("ERP_DATABASE_SSLMODE", "require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestParseSchedules(t *testing.T) {
	out := parseSchedules(map[string]string{"fso_close": "15m", "bad": "soon"})

	assert.Equal(t, 15*time.Minute, out["fso_close"])
	assert.Equal(t, time.Duration(-1), out["bad"])

	cfg := &Config{Jobs: JobsConfig{Schedules: out}}
	applyDefaults(cfg)
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobs.schedules.bad")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
