package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/imagevault/imagevault-server/internal/errors"
	"github.com/imagevault/imagevault-server/internal/id"
)

const (
	tokenIssuer   = "imagevault-server"
	tokenAudience = "imagevault-client"

	claimEmail = "email"
	claimName  = "name"
)

// TokenService handles PASETO v4.local token generation and verification.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
	now          func() time.Time
}

// NewTokenService creates a token service from a 32-byte key.
func NewTokenService(key []byte, duration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	if duration <= 0 {
		return nil, fmt.Errorf("token duration must be positive")
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey: symmetricKey,
		duration:     duration,
		now:          time.Now,
	}, nil
}

// Duration returns the configured token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}

// Issue creates an encrypted token for the identity.
func (s *TokenService) Issue(identity Identity) (string, *Claims, error) {
	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(s.duration)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(identity.Email)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(exp)

	tokenID, err := id.Generate("tok")
	if err != nil {
		return "", nil, fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)
	token.SetString(claimEmail, identity.Email)
	token.SetString(claimName, identity.Name)

	claims := &Claims{
		Email:     identity.Email,
		Name:      identity.Name,
		IssuedAt:  now,
		ExpiresAt: exp,
	}
	return token.V4Encrypt(s.symmetricKey, nil), claims, nil
}

// Verify decrypts and validates a token. Expired tokens fail with
// TOKEN_EXPIRED; anything else that is wrong fails with TOKEN_INVALID.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.Unauthorized("missing access token")
	}

	// Expiry is checked below so it can be reported separately.
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, errors.TokenInvalid("invalid access token").WithCause(err)
	}

	exp, err := token.GetExpiration()
	if err != nil {
		return nil, errors.TokenInvalid("invalid access token").WithCause(err)
	}
	now := s.now()
	if !now.Before(exp) {
		return nil, errors.TokenExpired("access token expired")
	}
	if nbf, err := token.GetNotBefore(); err == nil && now.Before(nbf) {
		return nil, errors.TokenInvalid("access token not yet valid")
	}

	email, err := token.GetString(claimEmail)
	if err != nil || email == "" {
		return nil, errors.TokenInvalid("access token has no identity")
	}
	name, _ := token.GetString(claimName)
	iat, _ := token.GetIssuedAt()

	return &Claims{
		Email:     email,
		Name:      name,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}, nil
}
