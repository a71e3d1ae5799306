// Package config defines the environment-driven configuration of the
// badyetly binaries.
package config

import (
	"fmt"
	"time"

	"github.com/badyetly/badyetly/internal/env"
)

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	Database        DatabaseConfig
	HTTP            HTTPConfig
	Auth            AuthConfig
	Schedule        ScheduleConfig
	Messaging       MessagingConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"BADYETLY_SHUTDOWN_TIMEOUT" default:"30s"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host              string        `env:"BADYETLY_HTTP_HOST"`
	Port              string        `env:"BADYETLY_HTTP_PORT"`
	ReadTimeout       time.Duration `env:"BADYETLY_HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `env:"BADYETLY_HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `env:"BADYETLY_HTTP_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `env:"BADYETLY_HTTP_READ_HEADER_TIMEOUT"`
	MaxHeaderBytes    int           `env:"BADYETLY_HTTP_MAX_HEADER_BYTES"`
	MaxBodyBytes      int64         `env:"BADYETLY_HTTP_MAX_BODY_BYTES"`
}

// AuthConfig holds authenticator configuration.
type AuthConfig struct {
	OperationTimeout time.Duration `env:"BADYETLY_AUTH_OPERATION_TIMEOUT"`
	UpdateQueueSize  int           `env:"BADYETLY_AUTH_UPDATE_QUEUE_SIZE"`
}

// MessagingConfig holds the optional event publisher settings. Events are
// dropped when AMQPURL is empty.
type MessagingConfig struct {
	AMQPURL  string `env:"BADYETLY_AMQP_URL"`
	Exchange string `env:"BADYETLY_AMQP_EXCHANGE" default:"badyetly.events"`
}

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"BADYETLY_OTEL_ENABLED"`
	ServiceName string `env:"OTEL_SERVICE_NAME"`
	LogLevel    string `env:"BADYETLY_LOG_LEVEL" default:"info"`
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return cfg, nil
}
