package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	// Public route.
	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[HealthResponse](t, resp.Body.Bytes())
	assert.True(t, envelope.Success)
	assert.Equal(t, "ok", envelope.Data.Status)
	assert.Equal(t, "badger", envelope.Data.Backend)
	assert.Equal(t, "local", envelope.Data.Storage)
}

func TestHealthCheck_StoreDown(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.False(t, decodeEnvelope[any](t, resp.Body.Bytes()).Success)
}

func TestOpenAPIDocument(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/openapi.json")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "/image/db")
	assert.Contains(t, resp.Body.String(), "/tags")
}
