package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/badyetly/badyetly/internal/domain"
)

// FindByShortToken retrieves an API key by its short token.
func (s *Store) FindByShortToken(ctx context.Context, shortToken string) (*domain.APIKey, error) {
	var (
		key        domain.APIKey
		createdAt  string
		lastUsedAt sql.NullString
		expiresAt  sql.NullString
	)

	err := s.q.QueryRowContext(ctx, `
		SELECT id, owner_id, key_type, service, version, short_token, long_secret_hash,
		       name, is_active, created_at, last_used_at, expires_at
		FROM api_keys WHERE short_token = ?`, shortToken).
		Scan(&key.ID, &key.OwnerID, &key.KeyType, &key.Service, &key.Version, &key.ShortToken,
			&key.LongSecretHash, &key.Name, &key.IsActive, &createdAt, &lastUsedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: API key", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}

	if key.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if key.LastUsedAt, err = parseTimePtr(lastUsedAt); err != nil {
		return nil, err
	}
	if key.ExpiresAt, err = parseTimePtr(expiresAt); err != nil {
		return nil, err
	}
	return &key, nil
}

// UpdateLastUsed moves last_used_at forward; older timestamps are ignored.
func (s *Store) UpdateLastUsed(ctx context.Context, keyID string, timestamp time.Time) error {
	if err := checkID("api key", keyID); err != nil {
		return err
	}

	ts := formatTime(timestamp)
	res, err := s.q.ExecContext(ctx, `
		UPDATE api_keys SET last_used_at = ?2
		WHERE id = ?1 AND (last_used_at IS NULL OR last_used_at < ?2)`, keyID, ts)
	if err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	var exists bool
	if err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM api_keys WHERE id = ?)`, keyID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check key existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: API key", domain.ErrNotFound)
	}
	return nil
}

// Create stores a new API key.
func (s *Store) Create(ctx context.Context, key *domain.APIKey) error {
	if err := checkID("api key", key.ID); err != nil {
		return err
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO api_keys (id, owner_id, key_type, service, version, short_token,
		                      long_secret_hash, name, is_active, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.ID, key.OwnerID, key.KeyType, key.Service, key.Version, key.ShortToken,
		key.LongSecretHash, key.Name, key.IsActive, formatTime(key.CreatedAt),
		formatTimePtr(key.ExpiresAt))
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	return nil
}
