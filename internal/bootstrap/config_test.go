package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := configFromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "locusfocus.db", cfg.DBDSN)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "*", cfg.CORSAllowedOrigin)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 30, cfg.CleanupDays)
	assert.Equal(t, "@every 24h", cfg.CleanupSchedule)
	assert.Equal(t, 24*time.Hour, cfg.CleanupInterval)
	assert.False(t, cfg.IsProduction())
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	cfg, err := configFromEnv(envMap(map[string]string{
		"SERVER_PORT":       "8081",
		"APP_ENV":           "production",
		"DB_DRIVER":         "Postgres",
		"DB_DSN":            "host=db user=lf",
		"DATABASE_PATH":     "ignored.db",
		"REDIS_ADDR":        "redis:6379",
		"REDIS_DB":          "2",
		"RATE_LIMIT_MAX":    "5",
		"RATE_LIMIT_WINDOW": "250ms",
		"CLEANUP_DAYS":      "7",
		"CLEANUP_INTERVAL":  "1h",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.ServerPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "host=db user=lf", cfg.DBDSN)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimitWindow)
	assert.Equal(t, 7, cfg.CleanupDays)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}

func TestConfigFromEnv_PortFallback(t *testing.T) {
	cfg, err := configFromEnv(envMap(map[string]string{"PORT": "8080"}))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)

	cfg, err = configFromEnv(envMap(map[string]string{"PORT": "8080", "SERVER_PORT": "9090"}))
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
}

func TestConfigFromEnv_DatabasePath(t *testing.T) {
	cfg, err := configFromEnv(envMap(map[string]string{"DATABASE_PATH": "/data/rooms.db"}))
	require.NoError(t, err)
	assert.Equal(t, "/data/rooms.db", cfg.DBDSN)
}

func TestConfigFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":         {"DB_DRIVER": "oracle"},
		"redis db":       {"REDIS_DB": "one"},
		"rate max":       {"RATE_LIMIT_MAX": "0"},
		"rate window":    {"RATE_LIMIT_WINDOW": "soon"},
		"cleanup days":   {"CLEANUP_DAYS": "-1"},
		"zero cleanup":   {"CLEANUP_DAYS": "0"},
		"cleanup ticker": {"CLEANUP_INTERVAL": "0s"},
		"log level":      {"LOG_LEVEL": "loud"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := configFromEnv(envMap(env))
			assert.Error(t, err)
		})
	}
}
