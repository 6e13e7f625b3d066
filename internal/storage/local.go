package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// Local stores files in a single directory on disk.
// Thread-safe for concurrent operations.
type Local struct {
	basePath string
	mu       sync.RWMutex // Protects rename and remove
}

// NewLocal creates the directory if needed and returns a Local backend rooted at it.
func NewLocal(basePath string) (*Local, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Local{basePath: basePath}, nil
}

// Name implements Backend.
func (l *Local) Name() string { return "local" }

// Path returns the full filesystem path for a stored file.
func (l *Local) Path(name string) string {
	return filepath.Join(l.basePath, name)
}

// Save writes to a temporary file next to the target and renames it into
// place once the copy has finished. Temporary names start with a dot, which
// SanitizeName never lets through.
func (l *Local) Save(ctx context.Context, name string, r io.Reader, _ string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("name cannot be empty")
	}

	tmp, err := os.CreateTemp(l.basePath, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // gone after a successful rename

	n, err := io.Copy(tmp, contextReader{ctx: ctx, r: r})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return n, fmt.Errorf("failed to set file mode: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Rename(tmpPath, l.Path(name)); err != nil {
		return n, fmt.Errorf("failed to move file into place: %w", err)
	}
	return n, nil
}

// Open implements Backend.
func (l *Local) Open(_ context.Context, name string) (*Object, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	f, err := os.Open(l.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(name)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		f.Close() //nolint:errcheck // not a file
		return nil, notFound(name)
	}

	contentType, err := sniff(f, name)
	if err != nil {
		f.Close() //nolint:errcheck // already failing
		return nil, err
	}

	return &Object{
		Name:        name,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: contentType,
		Content:     f,
	}, nil
}

// Delete implements Backend.
func (l *Local) Delete(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(l.Path(name)); err != nil {
		if os.IsNotExist(err) {
			return notFound(name)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists implements Backend.
func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	info, err := os.Stat(l.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// Shutdown implements Backend. Nothing is held open.
func (l *Local) Shutdown() error { return nil }

// sniff guesses the content type from the extension and falls back to the
// file's leading bytes. The reader is rewound afterwards.
func sniff(f io.ReadSeeker, name string) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct, nil
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind file: %w", err)
	}
	return mt.String(), nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
