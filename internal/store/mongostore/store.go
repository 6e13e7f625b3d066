// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/imagevault/imagevault-server/internal/store"
)

// Backend is the name reported by Store.Backend.
const Backend = "mongo"

const (
	defaultConnectTimeout = 10 * time.Second
	disconnectTimeout     = 10 * time.Second
)

// Options configures the connection.
type Options struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Store is a store.Store backed by one MongoDB database.
type Store struct {
	client *mongo.Client
	logger *slog.Logger

	images *mongo.Collection
	tags   *mongo.Collection
	users  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// New connects, verifies the server is reachable, and ensures indexes exist.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}

	client, err := mongo.Connect(options.Client().
		ApplyURI(opts.URI).
		SetAppName("imagevault").
		SetServerSelectionTimeout(opts.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	db := client.Database(opts.Database)
	s := &Store{
		client: client,
		logger: logger,
		images: db.Collection(store.CollectionImages),
		tags:   db.Collection(store.CollectionTags),
		users:  db.Collection(store.CollectionUsers),
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		_ = s.Close()
		return nil, err
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("MongoDB connected", "database", opts.Database)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	}); err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	if _, err := s.images.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tags", Value: 1}}, Options: options.Index().SetName("tags")},
		{Keys: imageSort, Options: options.Index().SetName("listing_order")},
	}); err != nil {
		return fmt.Errorf("create images indexes: %w", err)
	}
	return nil
}

// Backend implements store.Store.
func (s *Store) Backend() string { return Backend }

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}
	return nil
}

// Close disconnects from the server.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// translate maps driver errors onto store sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound.WithMessage(what + " not found")
	case mongo.IsDuplicateKeyError(err):
		return store.ErrAlreadyExists.WithMessage(what + " already exists").WithCause(err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
