// Package storage opens the configured persistence backend.
package storage

import (
	"context"
	"fmt"

	"github.com/badyetly/badyetly/internal/application/auth"
	"github.com/badyetly/badyetly/internal/application/dues"
	"github.com/badyetly/badyetly/internal/config"
	"github.com/badyetly/badyetly/internal/infrastructure/persistence/postgres"
	"github.com/badyetly/badyetly/internal/infrastructure/persistence/sqlite"
)

// Store is what the binaries need from either backend.
type Store interface {
	dues.Repository
	auth.Repository
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*postgres.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// Open opens the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, postgres.DBConfig{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			SkipMigrations:  !cfg.AutoMigrate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return store, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, sqlite.DBConfig{
			Path:           cfg.DSN,
			SkipMigrations: !cfg.AutoMigrate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
