package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/imagevault/imagevault-server/internal/auth"
	"github.com/imagevault/imagevault-server/internal/config"
	"github.com/imagevault/imagevault-server/internal/logger"
	"github.com/imagevault/imagevault-server/internal/service"
	"github.com/imagevault/imagevault-server/internal/storage"
	"github.com/imagevault/imagevault-server/internal/validation"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, validator, cfg.Auth.Enabled, log.Logger), nil
}

// ProvideImageService provides the image document service.
func ProvideImageService(i do.Injector) (*service.ImageService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewImageService(storeHandle.Store, validator, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideStorageService provides the upload and file service.
func ProvideStorageService(i do.Injector) (*service.StorageService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storageHandle := do.MustInvoke[*StorageHandle](i)
	namer := do.MustInvoke[*storage.Namer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStorageService(storageHandle.Backend, namer, service.StorageOptions{
		URLPrefix:      cfg.Storage.URLPrefix,
		PublicBaseURL:  cfg.Server.PublicBaseURL(),
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	}, log.Logger), nil
}

// AccountBootstrap records whether the account was seeded from configuration.
type AccountBootstrap struct {
	Email  string
	Seeded bool
}

// ProvideAccountBootstrap creates or updates the single account from
// ACCOUNT_* settings. Without them the stored account is used as is.
func ProvideAccountBootstrap(i do.Injector) (*AccountBootstrap, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authService := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*logger.Logger](i)

	account := cfg.Auth.Account
	if account.Email == "" || account.Password == "" {
		log.Debug("No account configured; using stored account")
		return &AccountBootstrap{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	user, err := authService.BootstrapAccount(ctx, account.Email, account.Name, account.Password)
	if err != nil {
		return nil, fmt.Errorf("bootstrap account: %w", err)
	}
	return &AccountBootstrap{Email: user.Email, Seeded: true}, nil
}
