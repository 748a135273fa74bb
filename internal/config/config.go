package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseDriver  string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminAPIKey     string        `mapstructure:"ADMIN_API_KEY"`
	AdminAPIKeyHash string        `mapstructure:"ADMIN_API_KEY_HASH"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	JWTTTL          time.Duration `mapstructure:"JWT_TTL"`
	HTTPAddr        string        `mapstructure:"HTTP_ADDR"`
	GinMode         string        `mapstructure:"GIN_MODE"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"`
}

// LoggingConfig is the subset of Config needed to build a logger.
type LoggingConfig struct {
	Level  string
	Format string
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var AppConfig *Config

var defaults = map[string]any{
	"DATABASE_DRIVER":    DriverSQLite,
	"DATABASE_URL":       "events.db",
	"ADMIN_API_KEY":      "",
	"ADMIN_API_KEY_HASH": "",
	"JWT_SECRET":         "",
	"JWT_TTL":            "24h",
	"HTTP_ADDR":          ":8080",
	"GIN_MODE":           "release",
	"LOG_LEVEL":          "info",
	"LOG_FORMAT":         "json",
}

// LoadConfig loads the configuration from a .env file and environment variables.
// A missing .env file is not an error; the returned bool reports whether one was read.
func LoadConfig() (*Config, bool, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")

	// Defaults register every key so AutomaticEnv values reach Unmarshal.
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	fileRead := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, false, fmt.Errorf("read .env: %w", err)
		}
		fileRead = false
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fileRead, fmt.Errorf("unable to decode into struct: %w", err)
	}
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))

	AppConfig = &cfg
	return &cfg, fileRead, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.AdminAPIKey == "" && c.AdminAPIKeyHash == "" {
		return errors.New("ADMIN_API_KEY or ADMIN_API_KEY_HASH must be set")
	}
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be set")
	}
	if c.JWTSecret != "" && c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{Level: c.LogLevel, Format: c.LogFormat}
}
