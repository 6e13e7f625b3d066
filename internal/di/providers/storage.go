package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/imagevault/imagevault-server/internal/config"
	"github.com/imagevault/imagevault-server/internal/logger"
	"github.com/imagevault/imagevault-server/internal/storage"
)

// StorageHandle wraps the file storage backend with shutdown capability.
type StorageHandle struct {
	storage.Backend
}

// Shutdown implements do.Shutdownable.
func (h *StorageHandle) Shutdown() error {
	return h.Backend.Shutdown()
}

// ProvideStorageBackend provides the configured file store.
func ProvideStorageBackend(i do.Injector) (*StorageHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Storage.Backend {
	case config.StorageLocal:
		local, err := storage.NewLocal(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		log.Info("File storage initialized", "backend", local.Name(), "path", cfg.Storage.Path)
		return &StorageHandle{Backend: local}, nil

	case config.StorageMinio:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		s3 := cfg.Storage.S3
		bucket, err := storage.NewMinio(ctx, storage.MinioConfig{
			Endpoint:  s3.Endpoint,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Bucket:    s3.Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("minio storage: %w", err)
		}
		log.Info("File storage initialized", "backend", bucket.Name(), "bucket", s3.Bucket)
		return &StorageHandle{Backend: bucket}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// ProvideNamer provides the upload naming strategy.
func ProvideNamer(i do.Injector) (*storage.Namer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return storage.NewNamer(cfg.Storage.Naming)
}
