package api

import (
	"github.com/imagevault/imagevault-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth    *service.AuthService
	Image   *service.ImageService
	Tag     *service.TagService
	Storage *service.StorageService
}
