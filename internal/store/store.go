// Package store defines persistence for images, tags, and the user account.
//
// Two implementations exist: mongostore for MongoDB and badgerstore for an
// embedded database. Both return ErrNotFound and ErrAlreadyExists and list
// images in domain.CompareImages order.
package store

import (
	"context"

	"github.com/imagevault/imagevault-server/internal/domain"
)

// Collection names shared by every backend.
const (
	CollectionImages = "images"
	CollectionTags   = "tags"
	CollectionUsers  = "users"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Backend() string
	Ping(ctx context.Context) error
	Close() error

	// Images
	GetImage(ctx context.Context, id string) (*domain.Image, error)
	ListImages(ctx context.Context, q domain.ImageQuery, page domain.Page) ([]*domain.Image, error)
	CountImages(ctx context.Context, q domain.ImageQuery) (int64, error)
	CreateImage(ctx context.Context, img *domain.Image) error
	// ReplaceImage overwrites the image with img.ID; ErrNotFound if absent.
	ReplaceImage(ctx context.Context, img *domain.Image) error
	// DeleteImage removes the image; ErrNotFound if nothing was deleted.
	DeleteImage(ctx context.Context, id string) error

	// Tags
	ListTags(ctx context.Context) ([]*domain.Tag, error)
	CreateTag(ctx context.Context, tag *domain.Tag) error

	// Users
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// SaveUser inserts the user or replaces the one with the same email,
	// keeping the stored ID.
	SaveUser(ctx context.Context, user *domain.User) error
}
