// Package config loads service configuration.
//
// Priority (highest to lowest):
//  1. Environment variables with SALES_ prefix (e.g. SALES_DATABASE_URL)
//  2. config.toml
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "SALES"

// Config holds all application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	Env  string `mapstructure:"env" validate:"oneof=development staging production"`
}

// IsDevelopment reports whether the service runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port               string        `mapstructure:"port" validate:"required,numeric"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	IdempotencyEnabled bool          `mapstructure:"idempotency_enabled"`
	IdempotencyTTL     time.Duration `mapstructure:"idempotency_ttl" validate:"gt=0"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL              string        `mapstructure:"url" validate:"required"`
	MaxConns         int32         `mapstructure:"max_conns" validate:"gt=0"`
	MinConns         int32         `mapstructure:"min_conns" validate:"gte=0,ltefield=MaxConns"`
	MaxConnLifetime  time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `mapstructure:"max_conn_idle_time"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout" validate:"gt=0"`
	LockTimeout      time.Duration `mapstructure:"lock_timeout" validate:"gt=0"`
	MigrationsOnBoot bool          `mapstructure:"migrations_on_boot"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// LedgerConfig holds sales ledger settings.
type LedgerConfig struct {
	// DefaultAccountID is substituted for staff references that match no user.
	DefaultAccountID string `mapstructure:"default_account_id" validate:"required"`
	// ReceiptRangeSize is how many receipt numbers are reserved at once.
	ReceiptRangeSize int64 `mapstructure:"receipt_range_size" validate:"gt=0"`
	// Timezone is the IANA zone of the tills. Document numbers carry its calendar date.
	Timezone string `mapstructure:"timezone" validate:"required,timezone"`
}

// Location loads the configured till zone.
func (c LedgerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load ledger timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// OutboxConfig holds outbox relay settings.
type OutboxConfig struct {
	BatchSize          int           `mapstructure:"batch_size" validate:"gt=0,lte=1000"`
	PollInterval       time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	CleanupInterval    time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
	PublishedRetention time.Duration `mapstructure:"published_retention" validate:"gt=0"`
}

// AuditConfig holds audit log settings.
type AuditConfig struct {
	// CompressThreshold is the change-set size in bytes above which it is zstd-compressed.
	CompressThreshold int `mapstructure:"compress_threshold" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "salesledger")
	v.SetDefault("app.env", "development")

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 30*time.Second)
	v.SetDefault("http.idempotency_enabled", true)
	v.SetDefault("http.idempotency_ttl", 24*time.Hour)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("database.statement_timeout", 30*time.Second)
	v.SetDefault("database.lock_timeout", 10*time.Second)
	v.SetDefault("database.migrations_on_boot", false)

	v.SetDefault("log.level", "info")

	v.SetDefault("ledger.default_account_id", "")
	v.SetDefault("ledger.receipt_range_size", 50)
	v.SetDefault("ledger.timezone", "UTC")

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 500*time.Millisecond)
	v.SetDefault("outbox.cleanup_interval", time.Hour)
	v.SetDefault("outbox.published_retention", 7*24*time.Hour)

	v.SetDefault("audit.compress_threshold", 10*1024)
}

// Load reads configuration from config.toml (searched in the given paths,
// then the working directory) and SALES_ environment variables, and validates it.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
