package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badyetly/badyetly/internal/config"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		DSN:         filepath.Join(t.TempDir(), "badyetly.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.NoError(t, store.Ping(ctx))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql", DSN: "x"})
	assert.ErrorContains(t, err, "unknown storage driver")
}
