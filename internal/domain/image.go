package domain

import (
	"cmp"
	"strings"
	"time"
)

// Image is the metadata document for one picture in the collection.
// URL points at a stored file; the two lifecycles are independent.
type Image struct {
	ID          string   `json:"id" bson:"_id"`
	Title       string   `json:"title" bson:"title"`
	Description string   `json:"description" bson:"description"`
	URL         string   `json:"url" bson:"url"`
	Tags        []string `json:"tags" bson:"tags"`
	Timestamps  `bson:",inline"`
}

// Normalize trims text fields and canonicalises the tag list.
func (i *Image) Normalize() {
	i.ID = strings.TrimSpace(i.ID)
	i.Title = strings.TrimSpace(i.Title)
	i.Description = strings.TrimSpace(i.Description)
	i.URL = strings.TrimSpace(i.URL)
	i.Tags = NormalizeTags(i.Tags)
}

// HasAllTags reports whether the image carries every tag in want.
func (i *Image) HasAllTags(want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(i.Tags))
	for _, t := range i.Tags {
		have[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}

// CompareImages orders images newest first, breaking ties by ID.
// Every store backend lists images in this order.
func CompareImages(a, b *Image) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Timestamps holds creation and modification times.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (t *Timestamps) InitTimestamps() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	t.CreatedAt = now
	t.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp to the current time.
func (t *Timestamps) Touch() {
	t.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
}
