package config

import (
	"errors"
	"fmt"

	"github.com/badyetly/badyetly/internal/env"
)

// APIKeyGenConfig holds all configuration for the apikey binary. Owner,
// Name and DaysValid come from flags; the database from the environment.
type APIKeyGenConfig struct {
	Database DatabaseConfig

	Owner     string
	Name      string
	DaysValid int
}

// LoadAPIKeyGenConfig loads and validates apikey generation configuration.
func LoadAPIKeyGenConfig(owner, name string, daysValid int) (*APIKeyGenConfig, error) {
	cfg := &APIKeyGenConfig{
		Owner:     owner,
		Name:      name,
		DaysValid: daysValid,
	}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load apikey config: %w", err)
	}

	return cfg, nil
}

// Validate validates the flag values.
func (c *APIKeyGenConfig) Validate() error {
	if c.Owner == "" {
		return errors.New("owner is required (use -owner flag)")
	}
	if c.Name == "" {
		return errors.New("name is required (use -name flag)")
	}
	if c.DaysValid < 0 {
		return errors.New("days must be >= 0 (0 = never expires)")
	}
	return nil
}
