package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func validConfig() *Config {
	return &Config{
		PostgresHost:    "localhost",
		PostgresPort:    5432,
		PostgresUser:    "stratum",
		PostgresDBName:  "stratum",
		PostgresSSLMode: "disable",
		LogLevel:        "info",
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), ErrConfigNil)

	cfg := validConfig()
	cfg.PostgresHost = "  "
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidPostgresHost)

	cfg = validConfig()
	cfg.PostgresPort = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidPostgresPort)

	cfg = validConfig()
	cfg.PostgresPort = 70000
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidPostgresPort)

	cfg = validConfig()
	cfg.PostgresDBName = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidPostgresDBName)

	cfg = validConfig()
	cfg.PostgresSSLMode = "sometimes"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidPostgresSSLMode)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"WARN", slog.LevelWarn},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := validConfig()
		cfg.LogLevel = tt.in
		assert.Equal(t, tt.want, cfg.SlogLevel(), "level %q", tt.in)
	}
}
