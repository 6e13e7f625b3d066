// Package storage keeps uploaded image files on the local filesystem or in a
// MinIO/S3 bucket.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/imagevault/imagevault-server/internal/errors"
)

// Backend stores named files. Names are flat: callers pass names that have
// already been through SanitizeName.
type Backend interface {
	// Name identifies the backend in logs and health output.
	Name() string

	// Save streams r into the file called name, replacing any existing file,
	// and returns the number of bytes written. A failed save leaves nothing
	// behind.
	Save(ctx context.Context, name string, r io.Reader, contentType string) (int64, error)

	// Open returns the stored file. The caller closes Object.Content.
	Open(ctx context.Context, name string) (*Object, error)

	// Delete removes the file. Returns a NOT_FOUND error when it does not exist.
	Delete(ctx context.Context, name string) error

	// Exists reports whether the file is stored.
	Exists(ctx context.Context, name string) (bool, error)

	// Shutdown releases any held resources.
	Shutdown() error
}

// Object is an opened stored file.
type Object struct {
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string
	Content     io.ReadSeekCloser
}

func notFound(name string) error {
	return errors.NotFoundf("file %q not found", name)
}
