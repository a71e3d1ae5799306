package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/badyetly/badyetly/internal/application/auth"
	"github.com/badyetly/badyetly/internal/application/dues"
	"github.com/badyetly/badyetly/internal/config"
	httpserver "github.com/badyetly/badyetly/internal/infrastructure/http"
	"github.com/badyetly/badyetly/internal/infrastructure/http/handler"
	"github.com/badyetly/badyetly/internal/infrastructure/messaging/amqp"
	"github.com/badyetly/badyetly/internal/infrastructure/observability"
	"github.com/badyetly/badyetly/internal/infrastructure/persistence/storage"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	providers, err := observability.Setup(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		Version:     version,
		Level:       parseLevel(cfg.Observability.LogLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}
	defer func() {
		// Bounded so an unreachable collector cannot hang exit.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to shut down telemetry: %v\n", err)
		}
	}()
	slog.SetDefault(providers.Log)

	slog.InfoContext(ctx, "starting badyetly", "version", version)

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "storage initialized",
		"driver", cfg.Database.Driver,
		"dsn", cfg.Database.RedactedDSN())

	publisher, closePublisher, err := newPublisher(cfg.Messaging)
	if err != nil {
		_ = store.Close()
		return err
	}

	service := dues.NewService(store, dues.Config{
		InstanceCap:  cfg.Schedule.InstanceCap,
		PreviewCount: cfg.Schedule.PreviewCount,
		StrictDates:  cfg.Schedule.StrictDates,
		Location:     cfg.Schedule.Location(),
		Publisher:    publisher,
		Meter:        providers.Meter.Meter("github.com/badyetly/badyetly"),
	})

	authenticator := auth.NewAuthenticator(ctx, store, auth.Config{
		OperationTimeout: cfg.Auth.OperationTimeout,
		UpdateQueueSize:  cfg.Auth.UpdateQueueSize,
	})

	server := httpserver.NewAPIServer(handler.NewRouter(service), authenticator, httpserver.ServerConfig{
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
		Ready:             store.Ping,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		// The main context is already cancelled; shutdown gets its own window.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		newCleanup(shutdownCtx,
			namedCloser{"authenticator", func() error { return authenticator.Shutdown(shutdownCtx) }},
			namedCloser{"event publisher", closePublisher},
			namedCloser{"store", store.Close},
		)()
		return err
	})

	return g.Wait()
}

// newPublisher connects to the broker when one is configured. The returned
// close function is safe to call in either case.
func newPublisher(cfg config.MessagingConfig) (dues.Publisher, func() error, error) {
	if cfg.AMQPURL == "" {
		slog.Info("event publishing disabled")
		return dues.NopPublisher{}, func() error { return nil }, nil
	}

	publisher, err := amqp.NewPublisher(cfg.AMQPURL, cfg.Exchange)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}
	slog.Info("event publishing enabled", "exchange", cfg.Exchange)
	return publisher, publisher.Close, nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
