package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/badyetly/badyetly/internal/application/auth"
	"github.com/badyetly/badyetly/internal/domain"
)

func TestServerConfig_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServerConfig
		want ServerConfig
	}{
		{
			name: "zero config",
			want: ServerConfig{
				Port:              DefaultPort,
				ReadTimeout:       DefaultReadTimeout,
				WriteTimeout:      DefaultWriteTimeout,
				IdleTimeout:       DefaultIdleTimeout,
				ReadHeaderTimeout: DefaultReadHeaderTimeout,
				MaxHeaderBytes:    DefaultMaxHeaderBytes,
				MaxBodyBytes:      DefaultMaxBodyBytes,
			},
		},
		{
			name: "set values survive, negatives are replaced",
			cfg:  ServerConfig{Host: "127.0.0.1", Port: "9000", MaxHeaderBytes: 2048, MaxBodyBytes: 4096, ReadTimeout: -time.Second},
			want: ServerConfig{
				Host:              "127.0.0.1",
				Port:              "9000",
				ReadTimeout:       DefaultReadTimeout,
				WriteTimeout:      DefaultWriteTimeout,
				IdleTimeout:       DefaultIdleTimeout,
				ReadHeaderTimeout: DefaultReadHeaderTimeout,
				MaxHeaderBytes:    2048,
				MaxBodyBytes:      4096,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.applyDefaults()
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestNewAPIServer_HTTPServerSettings(t *testing.T) {
	server := NewAPIServer(http.NotFoundHandler(), keyAuthenticator{}, ServerConfig{
		Host:           "127.0.0.1",
		Port:           "9090",
		MaxHeaderBytes: 4096,
		WriteTimeout:   3 * time.Second,
	})

	assert.Equal(t, "127.0.0.1:9090", server.server.Addr)
	assert.Equal(t, 4096, server.server.MaxHeaderBytes)
	assert.Equal(t, 3*time.Second, server.server.WriteTimeout)
	assert.Equal(t, DefaultReadHeaderTimeout, server.server.ReadHeaderTimeout)
}

type keyAuthenticator map[string]string

func (k keyAuthenticator) Authenticate(_ context.Context, apiKey string) (string, error) {
	if owner, ok := k[apiKey]; ok {
		return owner, nil
	}
	return "", domain.ErrUnauthorized
}

func newTestServer(ready func(context.Context) error) *APIServer {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, _ := auth.OwnerFromContext(r.Context())
		_, _ = w.Write([]byte(owner + " " + r.URL.Path))
	})
	return NewAPIServer(api, keyAuthenticator{"key-1": "owner-1"}, ServerConfig{Ready: ready})
}

func TestAPIServer_Routes(t *testing.T) {
	server := newTestServer(nil)

	tests := []struct {
		name       string
		path       string
		apiKey     string
		wantStatus int
		wantBody   string
	}{
		{name: "health needs no key", path: "/health", wantStatus: http.StatusOK, wantBody: `{"status":"ok"}`},
		{name: "ready needs no key", path: "/ready", wantStatus: http.StatusOK},
		{name: "api rejects missing key", path: "/api/v1/dues", wantStatus: http.StatusUnauthorized},
		{name: "api rejects unknown key", path: "/api/v1/dues", apiKey: "nope", wantStatus: http.StatusUnauthorized},
		{name: "api passes owner through", path: "/api/v1/dues", apiKey: "key-1",
			wantStatus: http.StatusOK, wantBody: "owner-1 /api/v1/dues"},
		{name: "unversioned path is not routed", path: "/api/dues", apiKey: "key-1", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set("Authorization", "Bearer "+tt.apiKey)
			}
			w := httptest.NewRecorder()

			server.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, strings.TrimSpace(w.Body.String()))
			}
		})
	}
}

func TestAPIServer_ReadyReportsStorageFailure(t *testing.T) {
	server := newTestServer(func(context.Context) error { return errors.New("connection refused") })

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestAPIServer_RejectsOversizedBody(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	server := NewAPIServer(api, keyAuthenticator{"key-1": "owner-1"}, ServerConfig{MaxBodyBytes: 8})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dues", strings.NewReader(`{"title":"too long"}`))
	req.Header.Set("Authorization", "Bearer key-1")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
