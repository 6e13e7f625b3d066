package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/imagevault/imagevault-server/internal/config"
	"github.com/imagevault/imagevault-server/internal/logger"
	"github.com/imagevault/imagevault-server/internal/store"
	"github.com/imagevault/imagevault-server/internal/store/badgerstore"
	"github.com/imagevault/imagevault-server/internal/store/mongostore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured document store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Database.Backend {
	case config.BackendBadger:
		db, err := badgerstore.New(cfg.Database.Path, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		log.Info("Database initialized", "backend", db.Backend(), "path", cfg.Database.Path)
		return &StoreHandle{Store: db}, nil

	case config.BackendMongo:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		db, err := mongostore.New(ctx, mongostore.Options{
			URI:            cfg.Database.MongoURI(),
			Database:       cfg.Database.Name,
			ConnectTimeout: connectTimeout,
		}, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("connect mongo store: %w", err)
		}
		log.Info("Database initialized", "backend", db.Backend(), "database", cfg.Database.Name)
		return &StoreHandle{Store: db}, nil

	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}
}
