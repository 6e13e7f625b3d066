package domain

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Tag is an entry in the tag vocabulary. Names are not unique.
type Tag struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// NormalizeTagName trims whitespace and applies Unicode NFC so that visually
// identical names compare equal.
func NormalizeTagName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// NormalizeTags normalises every name, dropping empties and repeats while
// keeping the first occurrence's position. The result is never nil.
func NormalizeTags(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = NormalizeTagName(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ParseTagList expands query values that may be repeated or comma separated
// ("a,b" and "a&tags=b" are equivalent) into a normalised tag list.
func ParseTagList(values []string) []string {
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, ",")...)
	}
	return NormalizeTags(parts)
}
