package auth

import (
	"context"
	"time"

	"github.com/badyetly/badyetly/internal/domain"
)

// Repository defines storage operations for API keys.
type Repository interface {
	// FindByShortToken returns the active or inactive key with the given short token.
	// Returns domain.ErrNotFound if no key matches.
	FindByShortToken(ctx context.Context, shortToken string) (*domain.APIKey, error)

	// UpdateLastUsed records when a key was last presented.
	UpdateLastUsed(ctx context.Context, keyID string, timestamp time.Time) error

	// Create stores a new key. Fails if the short token already exists.
	Create(ctx context.Context, key *domain.APIKey) error
}
