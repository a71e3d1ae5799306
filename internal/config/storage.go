package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrDSNRequired is returned when the database DSN is not configured.
var ErrDSNRequired = errors.New("BADYETLY_DB_DSN is required")

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Driver selects the store: postgres or sqlite.
	Driver string `env:"BADYETLY_DB_DRIVER" default:"postgres"`

	// DSN is a PostgreSQL connection string, or a file path for SQLite.
	DSN string `env:"BADYETLY_DB_DSN"`

	// Connection pool settings (zero = use infrastructure defaults)
	MaxOpenConns    int           `env:"BADYETLY_DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `env:"BADYETLY_DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `env:"BADYETLY_DB_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `env:"BADYETLY_DB_CONN_MAX_IDLE_TIME"`

	// AutoMigrate applies the embedded migrations on startup.
	AutoMigrate bool `env:"BADYETLY_DB_AUTO_MIGRATE" default:"true"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.DSN == "" {
		return ErrDSNRequired
	}
	switch c.Driver {
	case DriverPostgres, DriverSQLite:
		return nil
	default:
		return fmt.Errorf("unknown BADYETLY_DB_DRIVER %q (want %s or %s)", c.Driver, DriverPostgres, DriverSQLite)
	}
}

// RedactedDSN returns the DSN with any password replaced, for logging.
func (c *DatabaseConfig) RedactedDSN() string {
	u, err := url.Parse(c.DSN)
	if err != nil || u.User == nil {
		return c.DSN
	}
	return u.Redacted()
}
