// Package badgerstore implements store.Store on an embedded Badger database.
//
// Filtering and ordering happen in process, using the same domain rules the
// MongoDB backend expresses as queries.
package badgerstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/imagevault/imagevault-server/internal/domain"
	"github.com/imagevault/imagevault-server/internal/store"
)

// Backend is the name reported by Store.Backend.
const Backend = "badger"

const (
	prefixImage = store.CollectionImages + ":"
	prefixTag   = store.CollectionTags + ":"
	prefixUser  = store.CollectionUsers + ":"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	images *entity[domain.Image]
	tags   *entity[domain.Tag]
	users  *entity[domain.User]
}

var _ store.Store = (*Store)(nil)

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Badger's internal logging is too chatty
	opts.SyncWrites = true       // Survive crashes without corruption
	opts.CompactL0OnClose = true // Faster startup

	return open(opts, logger)
}

// NewInMemory opens a database that lives only in memory. Used by tests and
// the vaultctl dry runs.
func NewInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
		images: newEntity[domain.Image](db, prefixImage),
		tags:   newEntity[domain.Tag](db, prefixTag),
		users: newEntity[domain.User](db, prefixUser).withIndex("email",
			func(u *domain.User) []string { return []string{domain.NormalizeEmail(u.Email)} },
			domain.NormalizeEmail),
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", opts.Dir, "in_memory", opts.InMemory)
	}
	return s, nil
}

// Backend implements store.Store.
func (s *Store) Backend() string { return Backend }

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return fmt.Errorf("badger db is closed")
	}
	return nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// GetImage implements store.Store.
func (s *Store) GetImage(ctx context.Context, id string) (*domain.Image, error) {
	return s.images.get(ctx, id)
}

// ListImages implements store.Store.
func (s *Store) ListImages(ctx context.Context, q domain.ImageQuery, page domain.Page) ([]*domain.Image, error) {
	matched, err := s.matchImages(ctx, q)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matched, domain.CompareImages)

	total := int64(len(matched))
	skip := min(max(page.Skip(), 0), total)
	end := min(skip+max(page.Limit(), 0), total)
	return matched[skip:end], nil
}

// CountImages implements store.Store.
func (s *Store) CountImages(ctx context.Context, q domain.ImageQuery) (int64, error) {
	matched, err := s.matchImages(ctx, q)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (s *Store) matchImages(ctx context.Context, q domain.ImageQuery) ([]*domain.Image, error) {
	match := q.Matcher()
	matched := []*domain.Image{}
	for img, err := range s.images.list(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list images: %w", err)
		}
		if match(img) {
			matched = append(matched, img)
		}
	}
	return matched, nil
}

// CreateImage implements store.Store.
func (s *Store) CreateImage(ctx context.Context, img *domain.Image) error {
	return s.images.create(ctx, img.ID, img)
}

// ReplaceImage implements store.Store.
func (s *Store) ReplaceImage(ctx context.Context, img *domain.Image) error {
	return s.images.update(ctx, img.ID, img)
}

// DeleteImage implements store.Store.
func (s *Store) DeleteImage(ctx context.Context, id string) error {
	return s.images.delete(ctx, id)
}

// ListTags implements store.Store.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	tags := []*domain.Tag{}
	for tag, err := range s.tags.list(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		tags = append(tags, tag)
	}

	slices.SortFunc(tags, func(a, b *domain.Tag) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return tags, nil
}

// CreateTag implements store.Store.
func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	return s.tags.create(ctx, tag.ID, tag)
}

// GetUserByEmail implements store.Store.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.getByIndex(ctx, "email", email)
}

// SaveUser implements store.Store.
func (s *Store) SaveUser(ctx context.Context, user *domain.User) error {
	existing, err := s.GetUserByEmail(ctx, user.Email)
	switch {
	case err == nil:
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		return s.users.update(ctx, user.ID, user)
	case errors.Is(err, store.ErrNotFound):
		return s.users.create(ctx, user.ID, user)
	default:
		return err
	}
}
