package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// pragmas are applied to every connection the driver opens.
var pragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// DBConfig holds SQLite connection configuration.
type DBConfig struct {
	Path           string // database file; created with its directory if missing
	SkipMigrations bool   // Do not apply embedded migrations on open
}

// dsn appends the connection pragmas to path.
func dsn(path string) string {
	var b strings.Builder
	b.WriteString(path)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// Open opens (and by default migrates) a SQLite database file.
//
// SQLite allows one writer at a time, so the pool is limited to a single
// connection and transactions serialize.
func Open(ctx context.Context, cfg DBConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." && !strings.HasPrefix(cfg.Path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if !cfg.SkipMigrations {
		if err := runMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return NewStore(db), nil
}

// runMigrations applies the embedded migrations with goose's sqlite3 dialect.
func runMigrations(ctx context.Context, db *sql.DB) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetBaseFS(embedMigrations)

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
