package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/imagevault/imagevault-server/internal/auth"
	"github.com/imagevault/imagevault-server/internal/domain"
	domainerrors "github.com/imagevault/imagevault-server/internal/errors"
	"github.com/imagevault/imagevault-server/internal/id"
	"github.com/imagevault/imagevault-server/internal/store"
	"github.com/imagevault/imagevault-server/internal/validation"
)

// AuthService handles login, token reissue and token verification for the
// single account.
type AuthService struct {
	store     store.Store
	tokens    *auth.TokenService
	validator *validation.Validator
	enabled   bool
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service. When enabled is false
// every request authenticates as auth.Anonymous.
func NewAuthService(
	store store.Store,
	tokens *auth.TokenService,
	validator *validation.Validator,
	enabled bool,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		validator: validator,
		enabled:   enabled,
		logger:    logger,
	}
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=1024"`
}

// Session is an issued access token and the identity it carries.
type Session struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      auth.Identity `json:"user"`
}

// Enabled reports whether requests must present a token.
func (s *AuthService) Enabled() bool {
	return s.enabled
}

// Login checks the credentials and issues a token. An unknown email is
// NOT_FOUND and a wrong password is INVALID_CREDENTIALS.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		if s.logger != nil {
			s.logger.Warn("Login failed", "email", user.Email)
		}
		return nil, domainerrors.InvalidCredentials("incorrect password")
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, req.Password)
	}

	session, err := s.issue(auth.Identity{Email: user.Email, Name: user.Name})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("User logged in", "email", user.Email)
	}
	return session, nil
}

// Refresh issues a fresh token for an already authenticated identity.
func (s *AuthService) Refresh(_ context.Context, identity auth.Identity) (*Session, error) {
	if identity.Email == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	return s.issue(identity)
}

// Authenticate verifies a presented token and returns its identity.
func (s *AuthService) Authenticate(token string) (auth.Identity, error) {
	if !s.enabled {
		return auth.Anonymous, nil
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Identity{}, err
	}
	return claims.Identity(), nil
}

// BootstrapAccount creates the single account or updates its name and
// password. Running it again with the same values is harmless.
func (s *AuthService) BootstrapAccount(ctx context.Context, email, name, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if err := s.validator.Validate(LoginRequest{Email: email, Password: password}); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		ID:           userID,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	user.InitTimestamps()

	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Account ready", "email", email)
	}
	return user, nil
}

// VerifyAccount checks credentials without issuing a token.
func (s *AuthService) VerifyAccount(ctx context.Context, email, password string) (bool, error) {
	user, err := s.store.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, domainerrors.NotFound("user not found")
		}
		return false, err
	}
	return auth.VerifyPassword(user.PasswordHash, password)
}

func (s *AuthService) issue(identity auth.Identity) (*Session, error) {
	token, claims, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
		User:      identity,
	}, nil
}

// upgradeHash replaces a legacy hash after a successful login. Failure is
// logged and does not fail the login.
func (s *AuthService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		user.PasswordHash = hash
		user.Touch()
		err = s.store.SaveUser(ctx, user)
	}
	if err != nil && s.logger != nil {
		s.logger.Warn("Failed to upgrade password hash", "email", user.Email, "error", err)
	}
}
