package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/imagevault/imagevault-server/internal/errors"
	"github.com/imagevault/imagevault-server/internal/id"
)

// Naming strategies for stored files.
const (
	NamingNanoID   = "nanoid"
	NamingUUID     = "uuid"
	NamingOriginal = "original"
)

// imageIDField matches a multipart field name carrying a client image id.
// Any other field name, such as "file" or "photo", is ignored for naming.
var imageIDField = regexp.MustCompile(`^img-[A-Za-z0-9_-]{1,64}$`)

// SanitizeName reduces raw to a bare file name. Full URLs and paths are
// accepted and reduced to their last element. Dot files are rejected so
// in-flight uploads and other hidden entries are never addressable.
func SanitizeName(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, "?#"); i >= 0 && strings.Contains(raw, "://") {
		raw = raw[:i]
	}
	raw = strings.ReplaceAll(raw, "\\", "/")
	name := path.Base(raw)

	switch {
	case raw == "", name == "/", strings.HasPrefix(name, "."):
		return "", errors.BadRequest("invalid file name")
	case strings.ContainsAny(name, "/\\"), strings.ContainsRune(name, filepath.Separator):
		return "", errors.BadRequest("invalid file name")
	case strings.ContainsFunc(name, unicode.IsControl):
		return "", errors.BadRequest("invalid file name")
	}
	return name, nil
}

// Namer picks the stored name of an upload.
type Namer struct {
	strategy string
}

// NewNamer returns a Namer for the given strategy. An empty strategy means nanoid.
func NewNamer(strategy string) (*Namer, error) {
	switch strategy {
	case "":
		strategy = NamingNanoID
	case NamingNanoID, NamingUUID, NamingOriginal:
	default:
		return nil, fmt.Errorf("unknown naming strategy %q", strategy)
	}
	return &Namer{strategy: strategy}, nil
}

// Strategy returns the configured strategy.
func (n *Namer) Strategy() string {
	return n.strategy
}

// Name returns the stored file name for an upload. requested is the ?name=
// query value, field the multipart form field name and original the client's
// file name. The extension of original is kept, lower-cased.
func (n *Namer) Name(requested, field, original string) (string, error) {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(original, "\\", "/"))))
	if ext == "." {
		ext = ""
	}

	stem, err := n.stem(requested, field, original, ext)
	if err != nil {
		return "", err
	}
	return SanitizeName(stem + ext)
}

func (n *Namer) stem(requested, field, original, ext string) (string, error) {
	if requested = strings.TrimSpace(requested); requested != "" {
		return cleanStem(requested, ext)
	}
	if imageIDField.MatchString(field) {
		return field, nil
	}

	switch n.strategy {
	case NamingUUID:
		return id.TimeOrdered()
	case NamingOriginal:
		if original != "" {
			if stem, err := cleanStem(original, ext); err == nil && stem != "" {
				return stem, nil
			}
		}
	}
	return id.FileStem()
}

// cleanStem sanitises a client supplied name and drops a trailing extension
// that matches ext, so "photo.PNG" with ext ".png" becomes "photo".
func cleanStem(raw, ext string) (string, error) {
	name, err := SanitizeName(raw)
	if err != nil {
		return "", err
	}
	if ext != "" && strings.EqualFold(path.Ext(name), ext) {
		name = name[:len(name)-len(ext)]
	}
	if name == "" {
		return "", errors.BadRequest("invalid file name")
	}
	return name, nil
}
