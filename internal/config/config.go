package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL   string
	TelegramToken string
	LogLevel      string
	Port          string
	PollInterval  time.Duration
}

// Load loads configuration from environment variables. Only DATABASE_URL has
// a hard default; TELEGRAM_TOKEN is optional and its absence selects the
// log-only notification transport.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   getEnvOrDefault("DATABASE_URL", "medibuddy.db"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		Port:          getEnvOrDefault("PORT", "8080"),
		PollInterval:  60 * time.Second,
	}

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q: %w", v, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %q", v)
		}
		cfg.PollInterval = d
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
