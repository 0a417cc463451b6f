package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PORT", "")
	t.Setenv("POLL_INTERVAL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "medibuddy.db", cfg.DatabaseURL)
	assert.Equal(t, "", cfg.TelegramToken)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/medibuddy")
	t.Setenv("POLL_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/medibuddy", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
}

func TestLoadRejectsBadPollInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("POLL_INTERVAL", "-1m")
	_, err = Load()
	assert.Error(t, err)
}
