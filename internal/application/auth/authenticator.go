package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/badyetly/badyetly/internal/domain"
	"github.com/badyetly/badyetly/internal/infrastructure/keygen"
)

// Default configuration values.
const (
	DefaultOperationTimeout = 5 * time.Second
	DefaultUpdateQueueSize  = 1000
)

// Config holds configuration for the Authenticator.
type Config struct {
	OperationTimeout time.Duration // Timeout for storage operations
	UpdateQueueSize  int           // Buffer size for last_used_at updates
}

type lastUsedUpdate struct {
	keyID     string
	timestamp time.Time
}

// Authenticator resolves API keys to owners.
//
// Successful validations queue a last_used_at update that a single
// background worker writes, so a burst of requests never spawns a burst of
// goroutines. Call Shutdown to drain the queue.
type Authenticator struct {
	repo             Repository
	appCtx           context.Context // cancelled on application shutdown
	lastUsedUpdates  chan lastUsedUpdate
	shutdownChan     chan struct{}
	shutdownOnce     sync.Once
	wg               sync.WaitGroup
	operationTimeout time.Duration
}

// NewAuthenticator creates an authenticator and starts its background worker.
// ctx should be the application context.
// A negative OperationTimeout gets the default; zero means no timeout.
// A non-positive UpdateQueueSize gets the default.
func NewAuthenticator(ctx context.Context, repo Repository, config Config) *Authenticator {
	if config.OperationTimeout < 0 {
		config.OperationTimeout = DefaultOperationTimeout
	}
	if config.UpdateQueueSize <= 0 {
		config.UpdateQueueSize = DefaultUpdateQueueSize
	}

	a := &Authenticator{
		repo:             repo,
		appCtx:           ctx,
		lastUsedUpdates:  make(chan lastUsedUpdate, config.UpdateQueueSize),
		shutdownChan:     make(chan struct{}),
		operationTimeout: config.OperationTimeout,
	}

	a.wg.Add(1)
	go a.processLastUsedUpdates()

	return a
}

// withTimeout applies the operation timeout; zero leaves ctx unbounded.
func (a *Authenticator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.operationTimeout == 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.operationTimeout)
}

func (a *Authenticator) processLastUsedUpdates() {
	defer a.wg.Done()

	for {
		select {
		case update := <-a.lastUsedUpdates:
			// cancel is called per iteration; a defer would pile up until return.
			ctx, cancel := a.withTimeout(a.appCtx)
			if err := a.repo.UpdateLastUsed(ctx, update.keyID, update.timestamp); err != nil {
				slog.WarnContext(ctx, "failed to update API key last_used_at",
					slog.String("key_id", update.keyID),
					slog.String("error", err.Error()))
			}
			cancel()

		case <-a.shutdownChan:
			// Drain with a fresh context: appCtx is usually cancelled by now.
			for {
				select {
				case update := <-a.lastUsedUpdates:
					ctx, cancel := a.withTimeout(context.Background())
					_ = a.repo.UpdateLastUsed(ctx, update.keyID, update.timestamp)
					cancel()
				default:
					return
				}
			}
		}
	}
}

// Shutdown stops the worker after it drains pending updates, or when ctx
// expires. It is idempotent and safe for concurrent use.
func (a *Authenticator) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.shutdownOnce.Do(func() {
		close(a.shutdownChan)

		done := make(chan struct{})
		go func() {
			a.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			shutdownErr = fmt.Errorf("shutdown timeout: %w", ctx.Err())
		}
	})
	return shutdownErr
}

// ValidateAPIKey checks a presented key and returns the stored key, which
// carries the owner. Any failure is reported as domain.ErrUnauthorized.
func (a *Authenticator) ValidateAPIKey(ctx context.Context, apiKey string) (*domain.APIKey, error) {
	parts, err := keygen.Parse(apiKey)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	opCtx, cancel := a.withTimeout(ctx)
	defer cancel()

	key, err := a.repo.FindByShortToken(opCtx, parts.ShortToken)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	providedHash := keygen.HashSecret(parts.Secret)
	if subtle.ConstantTimeCompare([]byte(key.LongSecretHash), []byte(providedHash)) != 1 {
		return nil, domain.ErrUnauthorized
	}

	now := time.Now().UTC()
	if !key.IsActive || key.OwnerID == "" {
		return nil, domain.ErrUnauthorized
	}
	if key.ExpiresAt != nil && key.ExpiresAt.Before(now) {
		return nil, domain.ErrUnauthorized
	}

	select {
	case a.lastUsedUpdates <- lastUsedUpdate{keyID: key.ID, timestamp: now}:
	default:
		// last_used_at is advisory; drop rather than block the request.
		slog.WarnContext(ctx, "dropped last_used_at update due to full queue",
			slog.String("key_id", key.ID))
	}

	return key, nil
}

// Authenticate validates apiKey and returns the owner it belongs to.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (string, error) {
	key, err := a.ValidateAPIKey(ctx, apiKey)
	if err != nil {
		return "", err
	}
	return key.OwnerID, nil
}

// CreateAPIKey issues a key for ownerID and returns the plain key. The plain
// key is not stored and cannot be shown again.
func CreateAPIKey(ctx context.Context, repo Repository, ownerID, name string, expiresAt *time.Time) (string, error) {
	if ownerID == "" {
		return "", domain.ErrOwnerRequired
	}

	parts, err := keygen.Generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}

	keyID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate key ID: %w", err)
	}

	if expiresAt != nil {
		utc := expiresAt.UTC()
		expiresAt = &utc
	}

	err = repo.Create(ctx, &domain.APIKey{
		ID:             keyID.String(),
		OwnerID:        ownerID,
		KeyType:        parts.KeyType,
		Service:        parts.Service,
		Version:        parts.Version,
		ShortToken:     parts.ShortToken,
		LongSecretHash: keygen.HashSecret(parts.Secret),
		Name:           name,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create API key: %w", err)
	}

	return parts.String(), nil
}
