package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newServer(t *testing.T, checks []server.HealthCheck, routes func(*gin.Engine)) *server.Server {
	t.Helper()
	return server.New(server.Options{
		Config:       server.Config{ServiceName: "content-mirror", ServiceVersion: "1.2.3"},
		Logger:       logger.NewNop(),
		HealthChecks: checks,
		Routes:       routes,
	})
}

func serve(s *server.Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func signedToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, server.Claims{
		Sub: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checks     []server.HealthCheck
		wantStatus server.HealthStatus
		wantCode   int
	}{
		{
			name:       "no checks",
			wantStatus: server.HealthStatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name: "non-critical failure degrades",
			checks: []server.HealthCheck{
				{Name: "redis", Ping: func(context.Context) error { return errors.New("down") }},
			},
			wantStatus: server.HealthStatusDegraded,
			wantCode:   http.StatusOK,
		},
		{
			name: "critical failure",
			checks: []server.HealthCheck{
				{Name: "database", Critical: true, Ping: func(context.Context) error { return errors.New("down") }},
				{Name: "redis", Ping: func(context.Context) error { return nil }},
			},
			wantStatus: server.HealthStatusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newServer(t, tt.checks, nil)

			w := serve(s, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
			require.Equal(t, tt.wantCode, w.Code)

			var resp server.HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, "content-mirror", resp.Service)
			assert.Equal(t, "1.2.3", resp.Version)
			assert.Len(t, resp.Checks, len(tt.checks))
		})
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var scoped bool
	s := newServer(t, nil, func(r *gin.Engine) {
		r.GET("/ping", func(c *gin.Context) {
			scoped = logger.FromContext(c.Request.Context(), nil) != nil
			c.String(http.StatusOK, "pong")
		})
	})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))
	assert.Len(t, w.Header().Get("X-Request-ID"), 32)
	assert.True(t, scoped)

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set("X-Request-ID", "upstream-1")
	w = serve(s, req)
	assert.Equal(t, "upstream-1", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	w = serve(s, req)
	assert.Len(t, w.Header().Get("X-Request-ID"), 32)
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	s := newServer(t, nil, func(r *gin.Engine) {
		r.GET("/boom", func(*gin.Context) { panic("boom") })
	})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	s := server.New(server.Options{
		Config: server.Config{CORSOrigins: []string{"https://site.test"}},
		Logger: logger.NewNop(),
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/pages", http.NoBody)
	req.Header.Set("Origin", "https://site.test")
	w := serve(s, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://site.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/pages", http.NoBody)
	req.Header.Set("Origin", "https://other.test")
	w = serve(s, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDisabledByDefault(t *testing.T) {
	t.Parallel()

	s := newServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("Origin", "https://site.test")
	w := serve(s, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestJWTMiddleware(t *testing.T) {
	t.Parallel()

	s := newServer(t, nil, func(r *gin.Engine) {
		admin := server.ProtectedGroup(r, "/admin", testSecret)
		admin.GET("/me", func(c *gin.Context) {
			claims, ok := server.GetClaims(c)
			if !ok {
				c.Status(http.StatusInternalServerError)
				return
			}
			c.String(http.StatusOK, claims.Sub)
		})
	})

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{name: "missing header", header: "", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantCode: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signedToken(t, "other", time.Now().Add(time.Hour)), wantCode: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signedToken(t, testSecret, time.Now().Add(-time.Hour)), wantCode: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + signedToken(t, testSecret, time.Now().Add(time.Hour)), wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/admin/me", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(s, req)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "admin", w.Body.String())
			}
		})
	}
}

func TestProtectedGroup_OpenWithoutSecret(t *testing.T) {
	t.Parallel()

	s := newServer(t, nil, func(r *gin.Engine) {
		server.ProtectedGroup(r, "/admin", "").GET("/open", func(c *gin.Context) { c.Status(http.StatusOK) })
	})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/admin/open", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
}
