package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/badyetly/badyetly/internal/application/auth"
	"github.com/badyetly/badyetly/internal/application/dues"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite implementation of the repository interfaces, meant
// for single-user installs and tests.
type Store struct {
	db *sql.DB
	q  querier
	tx *sql.Tx
}

var (
	_ auth.Repository         = (*Store)(nil)
	_ dues.Repository         = (*Store)(nil)
	_ dues.ScheduleOperations = (*Store)(nil)
)

// NewStore wraps an open database. The schema must already exist.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping verifies that the database file can be reached.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// executeInTransaction runs fn against a transaction-bound store. A store
// that is already inside a transaction joins it.
func (s *Store) executeInTransaction(ctx context.Context, operationName string, fn func(txStore *Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.ErrorContext(ctx, "rollback failed",
					"operation", operationName,
					"original_error", err,
					"rollback_error", rbErr)
			}
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(&Store{db: s.db, q: tx, tx: tx})
}

// Atomic executes fn within a transaction.
func (s *Store) Atomic(ctx context.Context, fn func(repo dues.Repository) error) error {
	return s.executeInTransaction(ctx, "atomic", func(txStore *Store) error {
		return fn(txStore)
	})
}

// AtomicSchedule executes the writes of a schedule regeneration in one transaction.
func (s *Store) AtomicSchedule(ctx context.Context, fn func(ops dues.ScheduleOperations) error) error {
	return s.executeInTransaction(ctx, "atomic_schedule", func(txStore *Store) error {
		return fn(txStore)
	})
}
