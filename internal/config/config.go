// Package config loads server configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// DBPath is the SQLite database file path.
	DBPath string

	// JWTSecret signs session tokens. Required; there is no insecure
	// default.
	JWTSecret string

	// TokenDuration is how long issued tokens stay valid.
	TokenDuration time.Duration

	// DefaultTimezone is used for messes created without one.
	DefaultTimezone string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present; real environment
// variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "data/messbook.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TokenDuration:   24 * time.Hour,
		DefaultTimezone: getEnv("MESS_TIMEZONE", "Asia/Dhaka"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if d := os.Getenv("TOKEN_DURATION"); d != "" {
		dur, err := time.ParseDuration(d)
		if err != nil {
			return nil, fmt.Errorf("bad TOKEN_DURATION %q: %w", d, err)
		}
		cfg.TokenDuration = dur
	}
	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		return nil, fmt.Errorf("bad MESS_TIMEZONE %q: %w", cfg.DefaultTimezone, err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
