package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, read from the environment with an
// optional .env file for local development.
type Config struct {
	Addr         string
	DatabasePath string
	JWTSecret    string
	BcryptCost   int
	CookieSecure bool
	LogFormat    string // "text" or "json"

	MaxSessionMinutes int
	MaxDailyMinutes   int
	RetentionDays     int
	// OrphanThreshold is how long a session may remain active before a
	// recovery sweep completes it. Zero means "use the per-session cap".
	OrphanThreshold time.Duration
	SweepInterval   time.Duration
}

// Load reads .env (if present) and the environment, validating required
// values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:         envOrDefault("ADDR", ":8080"),
		DatabasePath: envOrDefault("DATABASE_PATH", "casetrack.db"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		LogFormat:    envOrDefault("LOG_FORMAT", "text"),
		// Default to secure cookies; disable only for local development.
		CookieSecure: os.Getenv("COOKIE_SECURE") != "false",
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}

	var err error
	if cfg.BcryptCost, err = intEnv("BCRYPT_COST", 12); err != nil {
		return nil, err
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 14 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", cfg.BcryptCost)
	}

	if cfg.MaxSessionMinutes, err = intEnv("MAX_SESSION_MINUTES", 480); err != nil {
		return nil, err
	}
	if cfg.MaxDailyMinutes, err = intEnv("MAX_DAILY_MINUTES", 960); err != nil {
		return nil, err
	}
	if cfg.RetentionDays, err = intEnv("RETENTION_DAYS", 365); err != nil {
		return nil, err
	}
	if cfg.MaxSessionMinutes < 1 || cfg.MaxDailyMinutes < cfg.MaxSessionMinutes {
		return nil, fmt.Errorf("duration caps are inconsistent: per-session %d, per-day %d",
			cfg.MaxSessionMinutes, cfg.MaxDailyMinutes)
	}

	if cfg.OrphanThreshold, err = durationEnv("ORPHAN_THRESHOLD", 0); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = durationEnv("SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func intEnv(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func durationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
