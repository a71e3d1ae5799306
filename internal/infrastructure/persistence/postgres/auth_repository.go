package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/badyetly/badyetly/internal/domain"
)

// === Auth Repository Implementation ===

// isUniqueViolation reports a PostgreSQL unique_violation (23505), optionally
// restricted to a constraint whose name contains column.
func isUniqueViolation(err error, column string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return column == "" || strings.Contains(pgErr.ConstraintName, column)
	}
	return false
}

// FindByShortToken retrieves an API key by its short token for validation.
func (s *Store) FindByShortToken(ctx context.Context, shortToken string) (*domain.APIKey, error) {
	var (
		id         pgtype.UUID
		createdAt  pgtype.Timestamptz
		lastUsedAt pgtype.Timestamptz
		expiresAt  pgtype.Timestamptz
		key        domain.APIKey
	)

	err := s.db.QueryRow(ctx, `
		SELECT id, owner_id, key_type, service, version, short_token, long_secret_hash,
		       name, is_active, created_at, last_used_at, expires_at
		FROM api_keys WHERE short_token = $1`, shortToken).
		Scan(&id, &key.OwnerID, &key.KeyType, &key.Service, &key.Version, &key.ShortToken,
			&key.LongSecretHash, &key.Name, &key.IsActive, &createdAt, &lastUsedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: API key", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}

	key.ID = pgtypeToUUIDString(id)
	key.CreatedAt = pgtypeToTime(createdAt)
	key.LastUsedAt = pgtypeToTimePtr(lastUsedAt)
	key.ExpiresAt = pgtypeToTimePtr(expiresAt)
	return &key, nil
}

// UpdateLastUsed moves last_used_at forward. An older timestamp is accepted
// and ignored; ErrNotFound is returned only when the key does not exist.
func (s *Store) UpdateLastUsed(ctx context.Context, keyID string, timestamp time.Time) error {
	id, err := parseID("api key", keyID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE api_keys SET last_used_at = $2
		WHERE id = $1 AND (last_used_at IS NULL OR last_used_at < $2)`,
		id, timeToPgtype(timestamp))
	if err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM api_keys WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check key existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: API key", domain.ErrNotFound)
	}
	return nil
}

// Create stores a new API key.
func (s *Store) Create(ctx context.Context, key *domain.APIKey) error {
	id, err := parseID("api key", key.ID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO api_keys (id, owner_id, key_type, service, version, short_token,
		                      long_secret_hash, name, is_active, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, key.OwnerID, key.KeyType, key.Service, key.Version, key.ShortToken,
		key.LongSecretHash, key.Name, key.IsActive, timeToPgtype(key.CreatedAt),
		timePtrToPgtype(key.ExpiresAt))
	if err != nil {
		if isUniqueViolation(err, "short_token") {
			return fmt.Errorf("failed to create API key: short token already exists: %w", err)
		}
		return fmt.Errorf("failed to create API key: %w", err)
	}
	return nil
}
