package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lending/internal/circulation"
	"github.com/starford/lending/internal/store"
	"github.com/starford/lending/internal/telemetry"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration. Every field can be
// overridden by the LENDING_* environment variable named in its env tag.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Storage     StorageConfig     `yaml:"storage"`
	Circulation CirculationConfig `yaml:"circulation"`
	Inbox       InboxConfig       `yaml:"inbox"`
	Auth        AuthConfig        `yaml:"auth"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Circulation.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" env:"LENDING_LOG_LEVEL"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" env:"LENDING_HTTP_PORT"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the database engine.
type StorageConfig struct {
	Driver        string         `yaml:"driver" env:"LENDING_STORAGE_DRIVER"`
	SQLite        SQLiteConfig   `yaml:"sqlite"`
	Postgres      PostgresConfig `yaml:"postgres"`
	RetryAttempts int            `yaml:"retry_attempts" env:"LENDING_STORAGE_RETRY_ATTEMPTS"`
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" env:"LENDING_SQLITE_PATH"`
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	DSN      string `yaml:"dsn" env:"LENDING_POSTGRES_DSN"`
	MaxConns int    `yaml:"max_conns" env:"LENDING_POSTGRES_MAX_CONNS"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = store.DriverSQLite
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(store.DriverSQLite, store.DriverPostgres)),
		validation.Field(&c.RetryAttempts, validation.Min(0), validation.Max(10)),
	); err != nil {
		return err
	}
	switch c.Driver {
	case store.DriverPostgres:
		return validation.ValidateStruct(&c.Postgres,
			validation.Field(&c.Postgres.DSN, validation.Required),
			validation.Field(&c.Postgres.MaxConns, validation.Min(0)),
		)
	default:
		return validation.ValidateStruct(&c.SQLite,
			validation.Field(&c.SQLite.Path, validation.Required),
		)
	}
}

// StoreConfig translates the section into store.Config.
func (c *StorageConfig) StoreConfig() store.Config {
	cfg := store.Config{Driver: c.Driver, RetryAttempts: c.RetryAttempts}
	if c.Driver == store.DriverPostgres {
		cfg.DSN = c.Postgres.DSN
		cfg.MaxOpenConns = c.Postgres.MaxConns
	} else {
		cfg.DSN = c.SQLite.Path
	}
	return cfg
}

// Location describes the database without credentials, for logging.
func (c *StorageConfig) Location() string {
	if c.Driver == store.DriverPostgres {
		return "postgres"
	}
	return c.SQLite.Path
}

// CirculationConfig holds lending policy.
type CirculationConfig struct {
	OverdueDays int `yaml:"overdue_days" env:"LENDING_OVERDUE_DAYS"`
}

// Validate validates the circulation configuration.
func (c *CirculationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.OverdueDays, validation.Min(0)),
	)
}

// InboxConfig holds the path to the directory of item cards. An empty path
// disables the inbox.
type InboxConfig struct {
	Path string `yaml:"path" env:"LENDING_INBOX_PATH"`
}

// Enabled reports whether an inbox directory is configured.
func (c *InboxConfig) Enabled() bool {
	return c.Path != ""
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" env:"LENDING_AUTH_MODE"`
	Token string `yaml:"token" env:"LENDING_AUTH_TOKEN"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint" env:"LENDING_OTEL_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"LENDING_OTEL_SERVICE_NAME"`
}

// ProviderConfig translates the section into telemetry.Config.
func (c *TelemetryConfig) ProviderConfig() telemetry.Config {
	return telemetry.Config{Endpoint: c.Endpoint, ServiceName: c.ServiceName}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: store.DriverSQLite,
			SQLite: SQLiteConfig{
				Path: "./lending.db",
			},
		},
		Circulation: CirculationConfig{
			OverdueDays: circulation.DefaultOverdueDays,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "lending",
		},
	}
}
