package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/imagevault/imagevault-server/internal/domain"
	"github.com/imagevault/imagevault-server/internal/store"
)

// GetUserByEmail implements store.Store.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := s.users.FindOne(ctx, bson.M{"email": domain.NormalizeEmail(email)}).Decode(&user)
	if err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// SaveUser implements store.Store.
func (s *Store) SaveUser(ctx context.Context, user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)

	existing, err := s.GetUserByEmail(ctx, user.Email)
	switch {
	case err == nil:
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		_, err = s.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
		return translate(err, "user")
	case errors.Is(err, store.ErrNotFound):
		_, err = s.users.InsertOne(ctx, user)
		return translate(err, "user")
	default:
		return err
	}
}
