// Package keygen creates and parses Badyetly API keys.
//
// A key has the form {type}-{service}-{version}-{short_token}-{secret}, for
// example sk-badyetly-v1-a3f5d8c2b4e6-8h3k2jf9s7d6f5g4h3j2k1m0n9p8q7r6s5t4u3v2w1x.
// The short token is the lookup handle stored in clear; only a BLAKE2b-256
// hash of the secret is ever stored.
package keygen

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/badyetly/badyetly/internal/domain"
)

const (
	KeyTypeSecret  = "sk"
	ServiceName    = "badyetly"
	CurrentVersion = "v1"

	shortTokenBytes = 6  // 12 hex chars
	secretBytes     = 32 // 43 base64url chars
)

// Parts holds the components of an API key.
type Parts struct {
	KeyType    string
	Service    string
	Version    string
	ShortToken string
	Secret     string
}

// String assembles the full key.
func (p Parts) String() string {
	return strings.Join([]string{p.KeyType, p.Service, p.Version, p.ShortToken, p.Secret}, "-")
}

// Display returns the key with the secret hidden, safe to show in listings.
func (p Parts) Display() string {
	return strings.Join([]string{p.KeyType, p.Service, p.Version, p.ShortToken, "****"}, "-")
}

// Generate creates a new secret key for the current version.
// The short token is derived from a hash of the secret, so it inherits the
// secret's randomness and stays unique under rapid generation.
func Generate() (Parts, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return Parts{}, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)

	sum := blake2b.Sum256([]byte(secret))

	return Parts{
		KeyType:    KeyTypeSecret,
		Service:    ServiceName,
		Version:    CurrentVersion,
		ShortToken: hex.EncodeToString(sum[:shortTokenBytes]),
		Secret:     secret,
	}, nil
}

// Parse splits a key into its parts. The secret is base64url and may itself
// contain hyphens, so only the first four separators are significant.
func Parse(key string) (Parts, error) {
	fields := strings.SplitN(strings.TrimSpace(key), "-", 5)
	if len(fields) != 5 {
		return Parts{}, fmt.Errorf("%w: expected 5 parts, got %d", domain.ErrInvalidAPIKeyFormat, len(fields))
	}

	p := Parts{
		KeyType:    fields[0],
		Service:    fields[1],
		Version:    fields[2],
		ShortToken: fields[3],
		Secret:     fields[4],
	}

	switch {
	case p.KeyType != KeyTypeSecret:
		return Parts{}, fmt.Errorf("%w: unsupported key type %q", domain.ErrInvalidAPIKeyFormat, p.KeyType)
	case p.Service != ServiceName:
		return Parts{}, fmt.Errorf("%w: key issued for %q", domain.ErrInvalidAPIKeyFormat, p.Service)
	case p.Version != CurrentVersion:
		return Parts{}, fmt.Errorf("%w: unsupported version %q", domain.ErrInvalidAPIKeyFormat, p.Version)
	case len(p.ShortToken) != 2*shortTokenBytes:
		return Parts{}, fmt.Errorf("%w: malformed short token", domain.ErrInvalidAPIKeyFormat)
	case p.Secret == "":
		return Parts{}, fmt.Errorf("%w: empty secret", domain.ErrInvalidAPIKeyFormat)
	}

	if _, err := hex.DecodeString(p.ShortToken); err != nil {
		return Parts{}, fmt.Errorf("%w: malformed short token", domain.ErrInvalidAPIKeyFormat)
	}

	return p, nil
}

// HashSecret returns the hex-encoded BLAKE2b-256 hash of secret.
func HashSecret(secret string) string {
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Mask returns a log-safe form of a presented key: only the type survives.
func Mask(key string) string {
	p, err := Parse(key)
	if err != nil {
		return "***"
	}
	return p.KeyType + "-***"
}
