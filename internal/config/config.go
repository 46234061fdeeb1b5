// Package config handles loading and validating runtime configuration for the Golf Metrics API.
// Configuration values (like the database URL and API port) are read from environment variables
// rather than being hardcoded, so the same binary runs in dev, staging, and production with only
// the environment changing. A config.yaml in "." or "./config" is merged when present; environment
// variables always win over it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	"github.com/joho/godotenv"
	// viper layers defaults, an optional config file and the environment into one lookup.
	"github.com/spf13/viper"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port             string        `mapstructure:"port"`               // TCP port the HTTP server listens on (e.g., "8080")
	DatabaseURL      string        `mapstructure:"database_url"`       // PostgreSQL connection string
	Env              string        `mapstructure:"env"`                // "development", "staging", or "production"
	LogLevel         string        `mapstructure:"log_level"`          // logrus level name: debug, info, warn, error
	LogFormat        string        `mapstructure:"log_format"`         // "text" or "json"
	MigrationsPath   string        `mapstructure:"migrations_path"`    // golang-migrate source URL, e.g. "file://migrations"
	RunMigrations    bool          `mapstructure:"run_migrations"`     // Apply pending migrations on startup
	CORSAllowOrigins string        `mapstructure:"cors_allow_origins"` // Comma-separated origins, "*" for any
	PageSize         int           `mapstructure:"page_size"`          // Default list page size
	MaxPageSize      int           `mapstructure:"max_page_size"`      // Upper bound for ?page_size=
	DBMaxOpenConns   int           `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns   int           `mapstructure:"db_max_idle_conns"`
	DBConnMaxLife    time.Duration `mapstructure:"db_conn_max_lifetime"`
}

// defaults mirrors the keys in Config. Every key needs a default, otherwise viper's
// AutomaticEnv lookup never sees it during Unmarshal.
var defaults = map[string]interface{}{
	"port":                 "8080",
	"database_url":         "",
	"env":                  "development",
	"log_level":            "info",
	"log_format":           "",
	"migrations_path":      "file://migrations",
	"run_migrations":       true,
	"cors_allow_origins":   "*",
	"page_size":            10,
	"max_page_size":        100,
	"db_max_open_conns":    10,
	"db_max_idle_conns":    5,
	"db_conn_max_lifetime": 30 * time.Minute,
}

// Load reads configuration from a .env file (if any), an optional config file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	// Missing .env is fine in production, where real environment variables are set.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// PORT, DATABASE_URL, LOG_LEVEL ... map onto the lower-case keys above.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.LogFormat == "" {
		// Human-readable logs locally, machine-readable everywhere else
		cfg.LogFormat = "json"
		if cfg.IsDevelopment() {
			cfg.LogFormat = "text"
		}
	}

	return &cfg, nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize))
	}
	if c.MaxPageSize < c.PageSize {
		errs = append(errs, fmt.Errorf("MAX_PAGE_SIZE (%d) must be at least PAGE_SIZE (%d)", c.MaxPageSize, c.PageSize))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the server runs in the local development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
