package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badyetly/badyetly/internal/infrastructure/persistence/compliance"
	"github.com/badyetly/badyetly/internal/infrastructure/persistence/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.DBConfig{
		Path: filepath.Join(t.TempDir(), "data", "badyetly.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Compliance(t *testing.T) {
	compliance.RunStorageComplianceTest(t, func(t *testing.T) compliance.Store {
		return openStore(t)
	})
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badyetly.db")

	for range 2 {
		store, err := sqlite.Open(context.Background(), sqlite.DBConfig{Path: path})
		require.NoError(t, err)
		require.NoError(t, store.Close())
	}
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	store := openStore(t)

	var enabled int
	require.NoError(t, store.DB().QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), sqlite.DBConfig{})
	assert.Error(t, err)
}

func TestStore_Ping(t *testing.T) {
	store := openStore(t)

	assert.NoError(t, store.Ping(context.Background()))
}
