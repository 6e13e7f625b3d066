package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagevault/imagevault-server/internal/domain"
	"github.com/imagevault/imagevault-server/internal/service"
)

func TestTags_CreateAndList(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.login(t)

	resp := ts.api.Get("/tags", header)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decodeEnvelope[[]domain.Tag](t, resp.Body.Bytes()).Data)

	for _, name := range []string{"landscape", "  portrait "} {
		resp = ts.api.Post("/tags", header, map[string]any{"name": name})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	resp = ts.api.Get("/tags", header)
	require.Equal(t, http.StatusOK, resp.Code)
	tags := decodeEnvelope[[]domain.Tag](t, resp.Body.Bytes()).Data
	require.Len(t, tags, 2)
	assert.Equal(t, "landscape", tags[0].Name)
	assert.Equal(t, "portrait", tags[1].Name)
	assert.NotEmpty(t, tags[0].ID)
}

func TestTags_CreateBlankName(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.login(t)

	resp := ts.api.Post("/tags", header, map[string]any{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	envelope := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Equal(t, map[string]any{"name": "is required"}, envelope.Details)
}

func TestTags_DeleteIsNoOp(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.login(t)

	resp := ts.api.Post("/tags", header, map[string]any{"name": "keep"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/tags", header)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, service.TagDeletionMessage, decodeEnvelope[MessageResponse](t, resp.Body.Bytes()).Data.Message)

	resp = ts.api.Get("/tags", header)
	assert.Len(t, decodeEnvelope[[]domain.Tag](t, resp.Body.Bytes()).Data, 1)
}
