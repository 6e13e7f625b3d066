// Package api provides the HTTP API server and handlers for ImageVault.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/imagevault/imagevault-server/internal/ratelimit"
	"github.com/imagevault/imagevault-server/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	// Version is reported in the OpenAPI document.
	Version        string
	CORSOrigins    []string
	// TrustedProxies are addresses or CIDR ranges whose forwarding headers
	// identify the client. Empty means the socket peer is always the client.
	TrustedProxies []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        store.Store
	services     *Services
	router       *chi.Mux
	api          huma.API
	loginLimiter *ratelimit.KeyedRateLimiter
	proxies      trustedProxies
	logger       *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// loginLimiter may be nil to disable login throttling.
func NewServer(
	st store.Store,
	services *Services,
	loginLimiter *ratelimit.KeyedRateLimiter,
	opts Options,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	s := &Server{
		store:        st,
		services:     services,
		router:       chi.NewRouter(),
		loginLimiter: loginLimiter,
		logger:       logger,
	}

	proxies, err := parseTrustedProxies(opts.TrustedProxies)
	if err != nil {
		logger.Warn("Ignoring trusted proxies", "error", err)
	}
	s.proxies = proxies

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("ImageVault API", opts.Version)
	humaConfig.Info.Description = "Image metadata, tags and file storage for a single-user collection."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
		"accessToken": {
			Type: "apiKey",
			In:   "header",
			Name: AccessTokenHeader,
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(accessLog(s.logger, s.proxies))
	s.router.Use(recoverer(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", AccessTokenHeader},
		ExposedHeaders: []string{"Retry-After", "X-Request-Id"},
		MaxAge:         300,
	}))
	s.router.Use(s.authMiddleware)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerImageRoutes()
	s.registerTagRoutes()
	s.registerStorageRoutes()

	// Multipart uploads and file serving stream bodies, so they bypass huma.
	s.router.With(s.requireAuthHTTP).Post("/image/storage", s.handleUpload)

	prefix := "/" + strings.Trim(s.services.Storage.URLPrefix(), "/")
	s.router.Get(prefix+"/{filename}", s.handleServeFile)
	s.router.Head(prefix+"/{filename}", s.handleServeFile)
}

// gated is the operation config shared by routes that need a token.
func (s *Server) gated(op huma.Operation) huma.Operation {
	op.Security = []map[string][]string{{"bearer": {}}, {"accessToken": {}}}
	op.Middlewares = append(op.Middlewares, s.requireAuth)
	return op
}
