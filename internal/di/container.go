// Package di provides dependency injection configuration for the ImageVault server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/imagevault/imagevault-server/internal/auth"
	"github.com/imagevault/imagevault-server/internal/config"
	"github.com/imagevault/imagevault-server/internal/di/providers"
	"github.com/imagevault/imagevault-server/internal/logger"
	"github.com/imagevault/imagevault-server/internal/ratelimit"
	"github.com/imagevault/imagevault-server/internal/service"
	"github.com/imagevault/imagevault-server/internal/storage"
	"github.com/imagevault/imagevault-server/internal/validation"
)

// NewContainer creates the DI container with configuration loaded from the
// process arguments and environment.
func NewContainer() *do.RootScope {
	injector := do.New()
	do.Provide(injector, providers.ProvideConfig)
	registerProviders(injector)
	return injector
}

// NewContainerWithConfig creates the DI container around an already loaded
// configuration. Command line tools use it after parsing their own flags.
func NewContainerWithConfig(cfg *config.Config) *do.RootScope {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	registerProviders(injector)
	return injector
}

func registerProviders(injector do.Injector) {
	// Core infrastructure
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Persistence
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideStorageBackend)
	do.Provide(injector, providers.ProvideNamer)

	// Auth layer
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideLoginLimiter)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideImageService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideStorageService)
	do.Provide(injector, providers.ProvideAccountBootstrap)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of every provider in dependency order.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StorageHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*storage.Namer](injector); err != nil {
		return err
	}

	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*ratelimit.KeyedRateLimiter](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.ImageService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.StorageService](injector)
	if _, err := do.Invoke[*providers.AccountBootstrap](injector); err != nil {
		return err
	}

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
