package mongostore

import (
	"context"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/imagevault/imagevault-server/internal/domain"
	"github.com/imagevault/imagevault-server/internal/store"
)

// GetImage implements store.Store.
func (s *Store) GetImage(ctx context.Context, id string) (*domain.Image, error) {
	var img domain.Image
	if err := s.images.FindOne(ctx, bson.M{"_id": id}).Decode(&img); err != nil {
		return nil, translate(err, fmt.Sprintf("image %q", id))
	}
	return &img, nil
}

// ListImages implements store.Store.
func (s *Store) ListImages(ctx context.Context, q domain.ImageQuery, page domain.Page) ([]*domain.Image, error) {
	// A saturated skip lies past any collection.
	if page.Skip() == math.MaxInt64 {
		return []*domain.Image{}, nil
	}

	opts := options.Find().
		SetSort(imageSort).
		SetSkip(page.Skip()).
		SetLimit(page.Limit())

	cursor, err := s.images.Find(ctx, ImageFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find images: %w", err)
	}

	var images []*domain.Image
	if err := cursor.All(ctx, &images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if images == nil {
		images = []*domain.Image{}
	}
	return images, nil
}

// CountImages implements store.Store.
func (s *Store) CountImages(ctx context.Context, q domain.ImageQuery) (int64, error) {
	n, err := s.images.CountDocuments(ctx, ImageFilter(q))
	if err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return n, nil
}

// CreateImage implements store.Store.
func (s *Store) CreateImage(ctx context.Context, img *domain.Image) error {
	_, err := s.images.InsertOne(ctx, img)
	return translate(err, fmt.Sprintf("image %q", img.ID))
}

// ReplaceImage implements store.Store.
func (s *Store) ReplaceImage(ctx context.Context, img *domain.Image) error {
	res, err := s.images.ReplaceOne(ctx, bson.M{"_id": img.ID}, img)
	if err != nil {
		return translate(err, fmt.Sprintf("image %q", img.ID))
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("image %q not found", img.ID))
	}
	return nil
}

// DeleteImage implements store.Store.
func (s *Store) DeleteImage(ctx context.Context, id string) error {
	res, err := s.images.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, fmt.Sprintf("image %q", id))
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("image %q not found", id))
	}
	return nil
}
