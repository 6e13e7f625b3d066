// Package storetest holds the behavioural suite every store.Store backend must pass.
package storetest

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagevault/imagevault-server/internal/domain"
	"github.com/imagevault/imagevault-server/internal/store"
)

// Factory returns an empty store. Cleanup is the factory's responsibility.
type Factory func(t *testing.T) store.Store

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(context.Background()))
	})
	t.Run("CreateAndGetImage", func(t *testing.T) { testCreateAndGetImage(t, newStore(t)) })
	t.Run("DuplicateImage", func(t *testing.T) { testDuplicateImage(t, newStore(t)) })
	t.Run("ReplaceImage", func(t *testing.T) { testReplaceImage(t, newStore(t)) })
	t.Run("DeleteImage", func(t *testing.T) { testDeleteImage(t, newStore(t)) })
	t.Run("ListImages", func(t *testing.T) { testListImages(t, newStore(t)) })
	t.Run("Tags", func(t *testing.T) { testTags(t, newStore(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
}

// NewImage builds an image created minutesAgo minutes before a fixed instant.
func NewImage(id, title, description string, minutesAgo int, tags ...string) *domain.Image {
	created := base.Add(-time.Duration(minutesAgo) * time.Minute)
	return &domain.Image{
		ID:          id,
		Title:       title,
		Description: description,
		URL:         "/images/" + id + ".png",
		Tags:        domain.NormalizeTags(tags),
		Timestamps:  domain.Timestamps{CreatedAt: created, UpdatedAt: created},
	}
}

func assertSameImage(t *testing.T, want, got *domain.Image) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Description, got.Description)
	assert.Equal(t, want.URL, got.URL)
	assert.Equal(t, want.Tags, got.Tags)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at %v != %v", want.UpdatedAt, got.UpdatedAt)
}

func ids(images []*domain.Image) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img.ID
	}
	return out
}

func testCreateAndGetImage(t *testing.T, s store.Store) {
	ctx := context.Background()
	img := NewImage("img-1", "Sunset", "Over the bay", 0, "beach", "summer")

	require.NoError(t, s.CreateImage(ctx, img))

	got, err := s.GetImage(ctx, "img-1")
	require.NoError(t, err)
	assertSameImage(t, img, got)

	_, err = s.GetImage(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicateImage(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.CreateImage(ctx, NewImage("dup", "First", "", 0)))
	err := s.CreateImage(ctx, NewImage("dup", "Second", "", 0))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	count, err := s.CountImages(ctx, domain.ImageQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := s.GetImage(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)
}

func testReplaceImage(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateImage(ctx, NewImage("img-1", "Old", "", 5, "a")))

	replacement := NewImage("img-1", "New", "Updated", 5, "b", "c")
	replacement.UpdatedAt = base
	require.NoError(t, s.ReplaceImage(ctx, replacement))

	got, err := s.GetImage(ctx, "img-1")
	require.NoError(t, err)
	assertSameImage(t, replacement, got)

	err = s.ReplaceImage(ctx, NewImage("missing", "x", "", 0))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDeleteImage(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateImage(ctx, NewImage("img-1", "Doomed", "", 0)))

	require.NoError(t, s.DeleteImage(ctx, "img-1"))

	_, err := s.GetImage(ctx, "img-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.DeleteImage(ctx, "img-1"), store.ErrNotFound)
}

func testListImages(t *testing.T, s store.Store) {
	ctx := context.Background()

	fixtures := []*domain.Image{
		NewImage("a", "Sunset beach", "", 1, "beach", "summer"),
		NewImage("b", "Mountain", "sunny hike", 2, "hiking", "summer"),
		NewImage("c", "City", "night lights", 3, "night"),
		NewImage("d", "Harbour", "", 4, "beach"),
		NewImage("e", "Forest", "", 5, "hiking"),
		NewImage("f", "Snow", "", 6),
		NewImage("g", "Desert SUN", "", 7, "summer", "beach"),
	}
	for _, img := range fixtures {
		require.NoError(t, s.CreateImage(ctx, img))
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := s.ListImages(ctx, domain.ImageQuery{}, domain.Page{Size: 15, Number: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g"}, ids(got))
	})

	t.Run("pages are windows of the ordering", func(t *testing.T) {
		for number, want := range map[int][]string{
			1: {"a", "b", "c"},
			2: {"d", "e", "f"},
			3: {"g"},
			4: {},
		} {
			got, err := s.ListImages(ctx, domain.ImageQuery{}, domain.Page{Size: 3, Number: number})
			require.NoError(t, err)
			assert.Equal(t, want, ids(got), "page %d", number)
		}
	})

	t.Run("page far past the end is empty", func(t *testing.T) {
		for _, number := range []int{1000, math.MaxInt/2 + 2, math.MaxInt} {
			got, err := s.ListImages(ctx, domain.ImageQuery{}, domain.Page{Size: 2, Number: number})
			require.NoError(t, err)
			assert.Empty(t, got, "page %d", number)
		}
	})

	t.Run("tags are a logical AND", func(t *testing.T) {
		got, err := s.ListImages(ctx, domain.ImageQuery{Tags: []string{"beach", "summer"}}, domain.DefaultPage())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "g"}, ids(got))

		count, err := s.CountImages(ctx, domain.ImageQuery{Tags: []string{"beach", "summer"}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("search matches title or description", func(t *testing.T) {
		got, err := s.ListImages(ctx, domain.ImageQuery{Search: "sun"}, domain.DefaultPage())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "g"}, ids(got))
	})

	t.Run("search and tags combine", func(t *testing.T) {
		q := domain.ImageQuery{Search: "sun", Tags: []string{"hiking"}}
		got, err := s.ListImages(ctx, q, domain.DefaultPage())
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids(got))
	})

	t.Run("count feeds page math", func(t *testing.T) {
		count, err := s.CountImages(ctx, domain.ImageQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(len(fixtures)), count)
		assert.Equal(t, int64(3), domain.PageCount(count, 3))
	})
}

func testTags(t *testing.T, s store.Store) {
	ctx := context.Background()

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)

	for i, name := range []string{"beach", "night", "beach"} {
		require.NoError(t, s.CreateTag(ctx, &domain.Tag{
			ID:        fmt.Sprintf("tag-%d", i),
			Name:      name,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	tags, err = s.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "tag-0", tags[0].ID)
	assert.Equal(t, "night", tags[1].Name)
	assert.Equal(t, "beach", tags[2].Name)

	err = s.CreateTag(ctx, &domain.Tag{ID: "tag-0", Name: "again", CreatedAt: base})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	user := &domain.User{
		ID:           "user-1",
		Email:        "owner@example.com",
		Name:         "Owner",
		PasswordHash: "hash-1",
		Timestamps:   domain.Timestamps{CreatedAt: base, UpdatedAt: base},
	}
	require.NoError(t, s.SaveUser(ctx, user))

	got, err := s.GetUserByEmail(ctx, "Owner@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)
	assert.Equal(t, "hash-1", got.PasswordHash)

	again := &domain.User{
		ID:           "user-2",
		Email:        "owner@example.com",
		Name:         "Renamed",
		PasswordHash: "hash-2",
		Timestamps:   domain.Timestamps{CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
	}
	require.NoError(t, s.SaveUser(ctx, again))
	assert.Equal(t, "user-1", again.ID)

	got, err = s.GetUserByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "hash-2", got.PasswordHash)
	assert.True(t, base.Equal(got.CreatedAt))
}
