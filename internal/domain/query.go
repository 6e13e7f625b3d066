package domain

import (
	"math"
	"regexp"
	"strings"

	"github.com/imagevault/imagevault-server/internal/errors"
)

// Pagination bounds for image listings.
const (
	DefaultPageSize = 15
	MaxPageSize     = 1000
)

// ImageQuery filters image listings. Tags is a logical AND; Search matches
// title or description case-insensitively. The zero value matches everything.
type ImageQuery struct {
	Search string
	Tags   []string
}

// NewImageQuery builds a query from raw request values.
func NewImageQuery(search string, tags []string) ImageQuery {
	return ImageQuery{
		Search: strings.TrimSpace(search),
		Tags:   ParseTagList(tags),
	}
}

// SearchPattern returns the regular expression applied to title and
// description, without case flags. Input that is not a valid expression is
// escaped and matched literally. Returns "" when there is no search.
func (q ImageQuery) SearchPattern() string {
	if q.Search == "" {
		return ""
	}
	if _, err := regexp.Compile(q.Search); err != nil {
		return regexp.QuoteMeta(q.Search)
	}
	return q.Search
}

// Matcher compiles the query into a predicate for stores that filter in
// process.
func (q ImageQuery) Matcher() func(*Image) bool {
	var re *regexp.Regexp
	if pattern := q.SearchPattern(); pattern != "" {
		re = regexp.MustCompile("(?i)" + pattern)
	}
	tags := q.Tags

	return func(img *Image) bool {
		if !img.HasAllTags(tags) {
			return false
		}
		if re == nil {
			return true
		}
		return re.MatchString(img.Title) || re.MatchString(img.Description)
	}
}

// Page selects a window of a listing. Number is 1-based.
type Page struct {
	Size   int
	Number int
}

// DefaultPage is the first page of DefaultPageSize items.
func DefaultPage() Page {
	return Page{Size: DefaultPageSize, Number: 1}
}

// Validate checks the page bounds.
func (p Page) Validate() error {
	if p.Size < 1 || p.Size > MaxPageSize {
		return errors.Validationf("pageSize must be between 1 and %d", MaxPageSize)
	}
	if p.Number < 1 {
		return errors.Validation("pageNum must be at least 1")
	}
	return nil
}

// Skip is the number of matching documents before the page. It saturates at
// math.MaxInt64 instead of overflowing for huge page numbers.
func (p Page) Skip() int64 {
	if p.Size <= 0 || p.Number <= 1 {
		return 0
	}
	before := int64(p.Number - 1)
	if before > math.MaxInt64/int64(p.Size) {
		return math.MaxInt64
	}
	return int64(p.Size) * before
}

// Limit is the maximum number of documents on the page.
func (p Page) Limit() int64 {
	return int64(p.Size)
}

// PageCount returns ceil(total / size).
func PageCount(total int64, size int) int64 {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + int64(size) - 1) / int64(size)
}
