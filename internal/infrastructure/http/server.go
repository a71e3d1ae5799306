// Package http assembles the HTTP server: global middleware, health checks and the
// authenticated /api/v1 tree.
package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	mw "github.com/badyetly/badyetly/internal/infrastructure/http/middleware"
	"github.com/badyetly/badyetly/internal/infrastructure/http/response"
)

// Defaults for zero ServerConfig fields.
const (
	DefaultHost              = "" // all interfaces
	DefaultPort              = "8080"
	DefaultReadTimeout       = 15 * time.Second
	DefaultWriteTimeout      = 15 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultMaxHeaderBytes    = 1 << 20
	DefaultMaxBodyBytes      = 1 << 20
)

// ServerConfig holds configuration for the HTTP server and router.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	MaxHeaderBytes    int
	MaxBodyBytes      int64

	// Ready backs GET /ready. Nil reports ready whenever the process is up.
	Ready func(ctx context.Context) error
}

func (cfg *ServerConfig) applyDefaults() {
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	cfg.ReadTimeout = positive(cfg.ReadTimeout, DefaultReadTimeout)
	cfg.WriteTimeout = positive(cfg.WriteTimeout, DefaultWriteTimeout)
	cfg.IdleTimeout = positive(cfg.IdleTimeout, DefaultIdleTimeout)
	cfg.ReadHeaderTimeout = positive(cfg.ReadHeaderTimeout, DefaultReadHeaderTimeout)
	cfg.MaxHeaderBytes = positive(cfg.MaxHeaderBytes, DefaultMaxHeaderBytes)
	cfg.MaxBodyBytes = positive(cfg.MaxBodyBytes, DefaultMaxBodyBytes)
}

func positive[T int | int64 | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

// APIServer serves the badyetly API.
type APIServer struct {
	server *http.Server
}

// NewAPIServer mounts apiHandler under /api/v1 behind API key
// authentication. Zero config values take the package defaults.
func NewAPIServer(apiHandler http.Handler, authenticator mw.Authenticator, cfg ServerConfig) *APIServer {
	cfg.applyDefaults()

	return &APIServer{
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:           otelhttp.NewHandler(newRouter(apiHandler, authenticator, cfg), "badyetly.http"),
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
		},
	}
}

func newRouter(apiHandler http.Handler, authenticator mw.Authenticator, cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(mw.MaxBodyBytes(cfg.MaxBodyBytes))

	// Health checks are unauthenticated.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})
	r.Get("/ready", readyHandler(cfg.Ready))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.NewAuth(authenticator).Validate)
		r.Mount("/", apiHandler)
	})

	return r
}

// readyHandler reports 503 while check fails. The cause is logged only.
func readyHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				slog.WarnContext(r.Context(), "readiness check failed", "error", err)
				response.Error(w, "NOT_READY", "service not ready", http.StatusServiceUnavailable)
				return
			}
		}
		response.OK(w, map[string]string{"status": "ready"})
	}
}

// Start listens until Shutdown; it then returns http.ErrServerClosed.
func (s *APIServer) Start() error {
	slog.Info("HTTP server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *APIServer) Shutdown(ctx context.Context) error {
	slog.InfoContext(ctx, "HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

// Handler returns the fully wrapped handler, for tests.
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}
