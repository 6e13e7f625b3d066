package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/imagevault/imagevault-server/internal/domain"
	domainerrors "github.com/imagevault/imagevault-server/internal/errors"
	"github.com/imagevault/imagevault-server/internal/id"
	"github.com/imagevault/imagevault-server/internal/store"
	"github.com/imagevault/imagevault-server/internal/validation"
)

// ImageService manages image metadata documents.
type ImageService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewImageService creates a new image service.
func NewImageService(store store.Store, validator *validation.Validator, logger *slog.Logger) *ImageService {
	return &ImageService{store: store, validator: validator, logger: logger}
}

// ImageInput is the writable part of an image document.
type ImageInput struct {
	ID          string   `json:"id,omitempty" validate:"omitempty,max=128"`
	Title       string   `json:"title" validate:"max=500"`
	Description string   `json:"description" validate:"max=10000"`
	URL         string   `json:"url" validate:"max=2048"`
	Tags        []string `json:"tags" validate:"omitempty,max=100,dive,max=64"`
}

func (in ImageInput) toImage() *domain.Image {
	img := &domain.Image{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		URL:         in.URL,
		Tags:        in.Tags,
	}
	img.Normalize()
	return img
}

// PageInfo describes how a filtered listing splits into pages.
type PageInfo struct {
	Pages int64 `json:"pages"`
	Total int64 `json:"total"`
}

// GetImage returns the image with the given ID.
func (s *ImageService) GetImage(ctx context.Context, imageID string) (*domain.Image, error) {
	if imageID == "" {
		return nil, domainerrors.Validation("id is required")
	}
	img, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return nil, s.translate(err, imageID)
	}
	return img, nil
}

// ListImages returns one page of images matching q.
func (s *ImageService) ListImages(ctx context.Context, q domain.ImageQuery, page domain.Page) ([]*domain.Image, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	images, err := s.store.ListImages(ctx, q, page)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return images, nil
}

// CountPages returns the number of pages of pageSize images matching q.
func (s *ImageService) CountPages(ctx context.Context, q domain.ImageQuery, pageSize int) (*PageInfo, error) {
	if err := (domain.Page{Size: pageSize, Number: 1}).Validate(); err != nil {
		return nil, err
	}
	total, err := s.store.CountImages(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count images: %w", err)
	}
	return &PageInfo{Pages: domain.PageCount(total, pageSize), Total: total}, nil
}

// CreateImage inserts a new image. A missing ID is generated.
func (s *ImageService) CreateImage(ctx context.Context, in ImageInput) (*domain.Image, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	img := in.toImage()
	if img.ID == "" {
		imageID, err := id.Generate("img")
		if err != nil {
			return nil, fmt.Errorf("generate image ID: %w", err)
		}
		img.ID = imageID
	}
	img.InitTimestamps()

	if err := s.store.CreateImage(ctx, img); err != nil {
		return nil, s.translate(err, img.ID)
	}

	if s.logger != nil {
		s.logger.Info("Image created", "image_id", img.ID, "tags", len(img.Tags))
	}
	return img, nil
}

// ReplaceImage overwrites the image with in.ID. The original creation time
// is kept.
func (s *ImageService) ReplaceImage(ctx context.Context, in ImageInput) (*domain.Image, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	img := in.toImage()
	if img.ID == "" {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"id": "is required"})
	}

	existing, err := s.store.GetImage(ctx, img.ID)
	if err != nil {
		return nil, s.translate(err, img.ID)
	}
	img.CreatedAt = existing.CreatedAt
	img.Touch()

	if err := s.store.ReplaceImage(ctx, img); err != nil {
		return nil, s.translate(err, img.ID)
	}

	if s.logger != nil {
		s.logger.Info("Image replaced", "image_id", img.ID)
	}
	return img, nil
}

// DeleteImage removes the image document. The stored file is left alone.
func (s *ImageService) DeleteImage(ctx context.Context, imageID string) error {
	if imageID == "" {
		return domainerrors.ValidationWithDetails("validation failed", map[string]string{"id": "is required"})
	}
	if err := s.store.DeleteImage(ctx, imageID); err != nil {
		return s.translate(err, imageID)
	}

	if s.logger != nil {
		s.logger.Info("Image deleted", "image_id", imageID)
	}
	return nil
}

func (s *ImageService) translate(err error, imageID string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("image %q not found", imageID)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExistsf("image %q already exists", imageID)
	default:
		return fmt.Errorf("image %s: %w", imageID, err)
	}
}
