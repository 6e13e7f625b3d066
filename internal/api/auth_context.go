package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/imagevault/imagevault-server/internal/auth"
	domainerrors "github.com/imagevault/imagevault-server/internal/errors"
	"github.com/imagevault/imagevault-server/internal/http/response"
)

// AccessTokenHeader carries the token for clients that cannot set Authorization.
const AccessTokenHeader = "X-Access-Token"

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	identityKey ctxKey = "identity"
	authErrKey  ctxKey = "authErr"
)

// GetIdentity returns the authenticated identity from context.
// Returns a 401 error when the request carried no usable token.
func GetIdentity(ctx context.Context) (auth.Identity, error) {
	if identity, ok := ctx.Value(identityKey).(auth.Identity); ok {
		return identity, nil
	}
	if err, ok := ctx.Value(authErrKey).(error); ok {
		return auth.Identity{}, err
	}
	return auth.Identity{}, domainerrors.Unauthorized("authentication required")
}

func setIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// tokenFromHeaders reads X-Access-Token, then Authorization: Bearer.
func tokenFromHeaders(header func(string) string) string {
	if token := strings.TrimSpace(header(AccessTokenHeader)); token != "" {
		return token
	}
	authHeader := header("Authorization")
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// authMiddleware verifies any presented token and stores the identity in
// context. A failed verification is stored too, so gated routes can report
// why. Public routes ignore both.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromHeaders(r.Header.Get)
		if token == "" && s.services.Auth.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		identity, err := s.services.Auth.Authenticate(token)
		if err != nil {
			ctx = context.WithValue(ctx, authErrKey, err)
		} else {
			ctx = setIdentity(ctx, identity)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth rejects a huma operation when no identity is attached.
func (s *Server) requireAuth(ctx huma.Context, next func(huma.Context)) {
	if _, err := GetIdentity(ctx.Context()); err != nil {
		_ = huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "authentication required", err)
		return
	}
	next(ctx)
}

// requireAuthHTTP is requireAuth for the raw chi routes.
func (s *Server) requireAuthHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := GetIdentity(r.Context()); err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}
