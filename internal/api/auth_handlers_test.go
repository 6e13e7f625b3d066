package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagevault/imagevault-server/internal/auth"
	"github.com/imagevault/imagevault-server/internal/ratelimit"
	"github.com/imagevault/imagevault-server/internal/service"
)

func TestLogin_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/auth/login", map[string]any{
		"email":    "Me@Example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[service.Session](t, resp.Body.Bytes())
	assert.True(t, envelope.Success)
	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.Equal(t, auth.Identity{Email: testEmail, Name: "Me"}, envelope.Data.User)

	claims, err := ts.tokens.Verify(envelope.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, testEmail, claims.Email)
}

func TestLogin_Failures(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"unknown email", map[string]any{"email": "who@example.com", "password": testPassword}, http.StatusNotFound, "NOT_FOUND"},
		{"wrong password", map[string]any{"email": testEmail, "password": "nope"}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"missing password", map[string]any{"email": testEmail}, http.StatusBadRequest, "VALIDATION"},
		{"malformed email", map[string]any{"email": "me", "password": testPassword}, http.StatusBadRequest, "VALIDATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/auth/login", tt.body)
			assert.Equal(t, tt.status, resp.Code, resp.Body.String())

			envelope := decodeEnvelope[any](t, resp.Body.Bytes())
			assert.False(t, envelope.Success)
			assert.Equal(t, tt.code, envelope.Code)
			assert.NotEmpty(t, envelope.Error)
		})
	}
}

func TestAuthGate(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.login(t)
	token := strings.TrimPrefix(header, "Authorization: Bearer ")

	tests := []struct {
		name   string
		header []any
		status int
		code   string
	}{
		{"no token", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"bearer token", []any{header}, http.StatusOK, ""},
		{"access token header", []any{AccessTokenHeader + ": " + token}, http.StatusOK, ""},
		{"lowercase scheme", []any{"Authorization: bearer " + token}, http.StatusOK, ""},
		{"tampered token", []any{header + "x"}, http.StatusUnauthorized, "TOKEN_INVALID"},
		{"garbage token", []any{AccessTokenHeader + ": v4.local.nope"}, http.StatusUnauthorized, "TOKEN_INVALID"},
		{"wrong scheme", []any{"Authorization: Basic " + token}, http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/tags", tt.header...)
			assert.Equal(t, tt.status, resp.Code, resp.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeEnvelope[any](t, resp.Body.Bytes()).Code)
			}
		})
	}
}

func TestGetSession_ReissuesToken(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.login(t)

	resp := ts.api.Get("/auth/session", header)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[service.Session](t, resp.Body.Bytes())
	assert.Equal(t, testEmail, envelope.Data.User.Email)
	assert.Equal(t, "Me", envelope.Data.User.Name)

	claims, err := ts.tokens.Verify(envelope.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, "Me", claims.Name)
}

func TestGetSession_RequiresToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/auth/session")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	limiter := ratelimit.PerMinute(1, 2)
	t.Cleanup(limiter.Stop)
	ts := setupTestServer(t, func(c *testServerConfig) { c.loginLimiter = limiter })

	body := map[string]any{"email": testEmail, "password": "wrong"}
	for range 2 {
		resp := ts.api.Post("/auth/login", body)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	}

	resp := ts.api.Post("/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))

	envelope := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.Equal(t, "RATE_LIMITED", envelope.Code)

	// Other routes are not throttled.
	assert.Equal(t, http.StatusOK, ts.api.Get("/health").Code)
}

func TestLogin_RateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	limiter := ratelimit.PerMinute(1, 2)
	t.Cleanup(limiter.Stop)
	ts := setupTestServer(t, func(c *testServerConfig) { c.loginLimiter = limiter })

	body := map[string]any{"email": testEmail, "password": "wrong"}
	throttled := 0
	for i := range 20 {
		resp := ts.api.Post("/auth/login", fmt.Sprintf("X-Forwarded-For: 10.0.0.%d", i), body)
		if resp.Code == http.StatusTooManyRequests {
			throttled++
			continue
		}
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	}
	assert.Equal(t, 18, throttled)
}

func TestLogin_RateLimitTrustedProxy(t *testing.T) {
	limiter := ratelimit.PerMinute(1, 2)
	t.Cleanup(limiter.Stop)
	// humatest requests come from 192.0.2.1.
	ts := setupTestServer(t, func(c *testServerConfig) {
		c.loginLimiter = limiter
		c.trustedProxies = []string{"192.0.2.0/24"}
	})

	body := map[string]any{"email": testEmail, "password": "wrong"}
	for i := range 5 {
		resp := ts.api.Post("/auth/login", fmt.Sprintf("X-Forwarded-For: 203.0.113.%d", i), body)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, "client %d has its own bucket", i)
	}

	for range 2 {
		ts.api.Post("/auth/login", "X-Forwarded-For: 198.51.100.1", body)
	}
	resp := ts.api.Post("/auth/login", "X-Forwarded-For: 198.51.100.1", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
}

func TestAuthDisabled(t *testing.T) {
	ts := setupTestServer(t, func(c *testServerConfig) { c.authDisabled = true })

	resp := ts.api.Get("/tags")
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/auth/session")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	envelope := decodeEnvelope[service.Session](t, resp.Body.Bytes())
	assert.Equal(t, auth.Anonymous, envelope.Data.User)
}
