package providers

import (
	"github.com/samber/do/v2"

	"github.com/imagevault/imagevault-server/internal/auth"
	"github.com/imagevault/imagevault-server/internal/config"
	"github.com/imagevault/imagevault-server/internal/logger"
	"github.com/imagevault/imagevault-server/internal/ratelimit"
)

// AuthKey wraps the token key bytes.
type AuthKey []byte

// ProvideAuthKey derives the key from SESSION_SECRET, or loads or generates
// the key file under the data path.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.ResolveKey(cfg.Auth.Secret, cfg.App.DataPath)
	if err != nil {
		return nil, err
	}

	source := "key file"
	if cfg.Auth.Secret != "" {
		source = "SESSION_SECRET"
	}
	log.Info("Authentication key loaded",
		"source", source,
		"token_duration", cfg.Auth.TokenDuration,
		"auth_enabled", cfg.Auth.Enabled,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.TokenDuration)
}

// ProvideLoginLimiter provides the per-IP login rate limiter.
func ProvideLoginLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.PerMinute(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst), nil
}
