// Package providers contains dependency injection providers for the ImageVault server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/imagevault/imagevault-server/internal/config"
	"github.com/imagevault/imagevault-server/internal/logger"
	"github.com/imagevault/imagevault-server/internal/validation"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(_ do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   !cfg.App.IsProduction(),
		Environment: cfg.App.Environment,
	})

	log.Info("Starting ImageVault Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.App.DataPath,
		"db_backend", cfg.Database.Backend,
		"storage_backend", cfg.Storage.Backend,
	)

	return log, nil
}

// ProvideValidator provides the request validator shared by services.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
