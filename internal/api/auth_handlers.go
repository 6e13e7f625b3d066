package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/imagevault/imagevault-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:  "login",
		Method:       http.MethodPost,
		Path:         "/auth/login",
		Summary:      "Login",
		Description:  "Checks the account credentials and issues an access token",
		Tags:         []string{"Auth"},
		MaxBodyBytes: maxJSONBodyBytes,
		Middlewares:  huma.Middlewares{s.rateLimitLogin},
	}, s.handleLogin)

	huma.Register(s.api, s.gated(huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/auth/session",
		Summary:     "Refresh session",
		Description: "Issues a fresh token for the identity in the presented token",
		Tags:        []string{"Auth"},
	}), s.handleGetSession)
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body service.LoginRequest
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	Body service.Session
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
	session, err := s.services.Auth.Login(ctx, input.Body)
	if err != nil {
		return nil, s.handleErr(err)
	}
	return &SessionOutput{Body: *session}, nil
}

func (s *Server) handleGetSession(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	identity, err := GetIdentity(ctx)
	if err != nil {
		return nil, s.handleErr(err)
	}

	session, err := s.services.Auth.Refresh(ctx, identity)
	if err != nil {
		return nil, s.handleErr(err)
	}
	return &SessionOutput{Body: *session}, nil
}
