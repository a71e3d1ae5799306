package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/badyetly/badyetly/internal/application/auth"
	"github.com/badyetly/badyetly/internal/domain"
	"github.com/badyetly/badyetly/internal/infrastructure/http/response"
)

// Authenticator resolves a presented API key to its owner.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (string, error)
}

var (
	errMissingHeader = errors.New("missing Authorization header")
	errNotBearer     = errors.New("invalid Authorization header format, expected: Bearer <token>")
)

// Auth is HTTP middleware for API key authentication.
type Auth struct {
	authenticator Authenticator
}

// NewAuth creates a new auth middleware.
func NewAuth(authenticator Authenticator) *Auth {
	return &Auth{authenticator: authenticator}
}

// Validate rejects requests without a valid "Authorization: Bearer <key>"
// header and passes the key's owner on in the request context.
func (a *Auth) Validate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		apiKey, err := bearerToken(r)
		if err != nil {
			slog.WarnContext(ctx, "authentication failed", "reason", err, "method", r.Method, "path", r.URL.Path)
			response.Unauthorized(w, err.Error())
			return
		}

		ownerID, err := a.authenticator.Authenticate(ctx, apiKey)
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			slog.WarnContext(ctx, "authentication failed", "reason", "invalid or expired API key",
				"method", r.Method, "path", r.URL.Path)
			response.Unauthorized(w, "invalid or expired API key")
			return
		case err != nil:
			// Storage trouble still answers 401 so key validity is never leaked.
			slog.ErrorContext(ctx, "authentication error", "error", err, "method", r.Method, "path", r.URL.Path)
			response.Unauthorized(w, "invalid or expired API key")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithOwner(ctx, ownerID)))
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingHeader
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", errNotBearer
	}
	return token, nil
}
