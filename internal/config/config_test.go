package config

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ADMIN_API_KEY", "secret")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "host=localhost dbname=events")
	t.Setenv("JWT_TTL", "1h")

	cfg, fileRead, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, fileRead)
	assert.Equal(t, "secret", cfg.AdminAPIKey)
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, "host=localhost dbname=events", cfg.DatabaseURL)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Same(t, cfg, AppConfig)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, _, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "events.db", cfg.DatabaseURL)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestValidate(t *testing.T) {
	base := Config{DatabaseDriver: DriverSQLite, DatabaseURL: "events.db", AdminAPIKey: "k"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "hash only", mutate: func(c *Config) { c.AdminAPIKey = ""; c.AdminAPIKeyHash = "$2a$10$x" }},
		{name: "no key", mutate: func(c *Config) { c.AdminAPIKey = "" }, wantErr: "ADMIN_API_KEY"},
		{name: "bad driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }, wantErr: "DATABASE_DRIVER"},
		{name: "no url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL"},
		{name: "jwt without ttl", mutate: func(c *Config) { c.JWTSecret = "s" }, wantErr: "JWT_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLoggerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("k", "v").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "v", entry["k"])
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestNewLoggerUnknownLevelFallsBackToInfo(t *testing.T) {
	logger := newLogger(LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
