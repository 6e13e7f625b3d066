package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/imagevault/imagevault-server/internal/domain"
)

// ListTags implements store.Store.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	cursor, err := s.tags.Find(ctx, bson.D{}, options.Find().SetSort(tagSort))
	if err != nil {
		return nil, fmt.Errorf("find tags: %w", err)
	}

	tags := []*domain.Tag{}
	if err := cursor.All(ctx, &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

// CreateTag implements store.Store.
func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	_, err := s.tags.InsertOne(ctx, tag)
	return translate(err, fmt.Sprintf("tag %q", tag.ID))
}
