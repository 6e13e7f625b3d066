package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/imagevault/imagevault-server/internal/domain"
	domainerrors "github.com/imagevault/imagevault-server/internal/errors"
	"github.com/imagevault/imagevault-server/internal/id"
	"github.com/imagevault/imagevault-server/internal/store"
)

// TagService manages the tag vocabulary.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{store: store, logger: logger}
}

// TagDeletionMessage is returned by the tag delete route, which changes nothing.
const TagDeletionMessage = "tag deletion is not supported"

// ListTags returns every tag, oldest first.
func (s *TagService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// CreateTag normalises name and stores a new tag. Names are not unique.
func (s *TagService) CreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	name = domain.NormalizeTagName(name)
	if name == "" {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"name": "is required"})
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	tag := &domain.Tag{
		ID:        tagID,
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("Tag created", "tag_id", tag.ID, "name", tag.Name)
	}
	return tag, nil
}
