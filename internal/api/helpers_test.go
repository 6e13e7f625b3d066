package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/imagevault/imagevault-server/internal/auth"
	"github.com/imagevault/imagevault-server/internal/ratelimit"
	"github.com/imagevault/imagevault-server/internal/service"
	"github.com/imagevault/imagevault-server/internal/storage"
	"github.com/imagevault/imagevault-server/internal/store"
	"github.com/imagevault/imagevault-server/internal/store/badgerstore"
	"github.com/imagevault/imagevault-server/internal/validation"
)

const (
	testEmail    = "me@example.com"
	testPassword = "correct horse battery"
)

// testEnvelope mirrors response.Envelope with a typed payload.
type testEnvelope[T any] struct {
	Version int            `json:"v"`
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope), "body: %s", body)
	return envelope
}

type testServerConfig struct {
	authDisabled   bool
	loginLimiter   *ratelimit.KeyedRateLimiter
	maxUploadBytes int64
	publicBaseURL  string
	trustedProxies []string
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api        humatest.TestAPI
	store      store.Store
	tokens     *auth.TokenService
	storageDir string
}

// setupTestServer builds the full handler stack on an in-memory badger
// store and a temp directory for files.
func setupTestServer(t *testing.T, opts ...func(*testServerConfig)) *testServer {
	t.Helper()

	cfg := testServerConfig{maxUploadBytes: 1 << 20}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := badgerstore.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key, err := auth.DeriveKey("api test secret")
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 7*24*time.Hour)
	require.NoError(t, err)

	storageDir := t.TempDir()
	backend, err := storage.NewLocal(storageDir)
	require.NoError(t, err)
	namer, err := storage.NewNamer(storage.NamingNanoID)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	validator := validation.New()

	services := &Services{
		Auth:  service.NewAuthService(st, tokens, validator, !cfg.authDisabled, logger),
		Image: service.NewImageService(st, validator, logger),
		Tag:   service.NewTagService(st, logger),
		Storage: service.NewStorageService(backend, namer, service.StorageOptions{
			URLPrefix:      "/images",
			PublicBaseURL:  cfg.publicBaseURL,
			MaxUploadBytes: cfg.maxUploadBytes,
		}, logger),
	}

	_, err = services.Auth.BootstrapAccount(context.Background(), testEmail, "Me", testPassword)
	require.NoError(t, err)

	server := NewServer(st, services, cfg.loginLimiter, Options{Version: "test", TrustedProxies: cfg.trustedProxies}, logger)

	return &testServer{
		Server:     server,
		api:        humatest.Wrap(t, server.API()),
		store:      st,
		tokens:     tokens,
		storageDir: storageDir,
	}
}

// login returns an Authorization header for the test account.
func (ts *testServer) login(t *testing.T) string {
	t.Helper()

	resp := ts.api.Post("/auth/login", map[string]any{
		"email":    testEmail,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.Code, "login failed: %s", resp.Body.String())

	envelope := decodeEnvelope[service.Session](t, resp.Body.Bytes())
	require.NotEmpty(t, envelope.Data.Token)
	return "Authorization: Bearer " + envelope.Data.Token
}
