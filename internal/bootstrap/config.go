package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"locusfocus-backend/internal/infra/setup"
)

// Config holds settings loaded from the environment or a .env file.
type Config struct {
	ServerPort string
	AppEnv     string
	LogLevel   string

	DBDriver string
	DBDSN    string

	// RedisAddr is optional. Without it rate limiting is disabled and the
	// cleanup runs on an in-process ticker instead of asynq.
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	CORSAllowedOrigin string
	RateLimitMax      int
	RateLimitWindow   time.Duration

	CleanupDays     int
	CleanupSchedule string
	CleanupInterval time.Duration
}

// LoadConfig reads .env (when present) and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		// PORT is what most PaaS hosts inject.
		ServerPort:        get("SERVER_PORT", get("PORT", "3000")),
		AppEnv:            get("APP_ENV", "development"),
		LogLevel:          get("LOG_LEVEL", "info"),
		DBDriver:          strings.ToLower(get("DB_DRIVER", setup.DriverSQLite)),
		RedisAddr:         get("REDIS_ADDR", ""),
		RedisPassword:     getenv("REDIS_PASSWORD"),
		RedisKeyPrefix:    get("REDIS_KEY_PREFIX", "lf:"),
		CORSAllowedOrigin: get("CORS_ALLOWED_ORIGIN", "*"),
		CleanupSchedule:   get("CLEANUP_SCHEDULE", "@every 24h"),
	}
	cfg.DBDSN = get("DB_DSN", get("DATABASE_PATH", "locusfocus.db"))

	var err error
	if cfg.RedisDB, err = intFromEnv(get, "REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = intFromEnv(get, "RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = durationFromEnv(get, "RATE_LIMIT_WINDOW", time.Second); err != nil {
		return nil, err
	}
	if cfg.CleanupDays, err = intFromEnv(get, "CLEANUP_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.CleanupInterval, err = durationFromEnv(get, "CLEANUP_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case setup.DriverSQLite, setup.DriverMySQL, setup.DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.RateLimitMax <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", cfg.RateLimitMax)
	}
	if cfg.RateLimitWindow <= 0 || cfg.CleanupInterval <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW and CLEANUP_INTERVAL must be positive")
	}
	if cfg.CleanupDays <= 0 {
		return nil, fmt.Errorf("CLEANUP_DAYS must be positive, got %d", cfg.CleanupDays)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	return cfg, nil
}

func intFromEnv(get func(string, string) string, key string, def int) (int, error) {
	raw := get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func durationFromEnv(get func(string, string) string, key string, def time.Duration) (time.Duration, error) {
	raw := get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
