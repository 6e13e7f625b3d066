package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainerrors "github.com/imagevault/imagevault-server/internal/errors"
	"github.com/imagevault/imagevault-server/internal/media/images"
	"github.com/imagevault/imagevault-server/internal/storage"
)

// StorageOptions configures how stored files are addressed.
type StorageOptions struct {
	// URLPrefix is the path files are served under, e.g. "/images".
	URLPrefix string
	// PublicBaseURL makes returned URLs absolute when set.
	PublicBaseURL  string
	MaxUploadBytes int64
}

// StorageService stores uploaded files and builds their public URLs.
type StorageService struct {
	backend storage.Backend
	namer   *storage.Namer
	opts    StorageOptions
	logger  *slog.Logger
}

// NewStorageService creates a new storage service.
func NewStorageService(backend storage.Backend, namer *storage.Namer, opts StorageOptions, logger *slog.Logger) *StorageService {
	opts.URLPrefix = "/" + strings.Trim(opts.URLPrefix, "/")
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &StorageService{backend: backend, namer: namer, opts: opts, logger: logger}
}

// UploadRequest is one file part of a multipart upload.
type UploadRequest struct {
	// RequestedName is the ?name= query value.
	RequestedName string
	// FieldName is the multipart form field the file arrived in.
	FieldName string
	// FileName is the client's original file name.
	FileName string
	// ContentType is the part's declared content type.
	ContentType string
	Body        io.Reader
}

// UploadResult describes a stored file.
type UploadResult struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	BlurHash    string `json:"blur_hash,omitempty"`
}

// Backend returns the name of the storage backend.
func (s *StorageService) Backend() string {
	return s.backend.Name()
}

// MaxUploadBytes returns the upload size limit.
func (s *StorageService) MaxUploadBytes() int64 {
	return s.opts.MaxUploadBytes
}

// URLPrefix returns the path files are served under.
func (s *StorageService) URLPrefix() string {
	return s.opts.URLPrefix
}

// Upload streams the file into the backend. Images are decoded on the way
// through for their dimensions and BlurHash.
func (s *StorageService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	name, err := s.namer.Name(req.RequestedName, req.FieldName, req.FileName)
	if err != nil {
		return nil, err
	}

	body, contentType := images.Sniff(req.Body, req.ContentType)

	var (
		size int64
		info *images.Info
	)
	if images.IsImage(contentType) {
		tee, inspection := images.Inspect(body)
		size, err = s.backend.Save(ctx, name, tee, contentType)
		info = inspection.Finish(err)
	} else {
		size, err = s.backend.Save(ctx, name, body, contentType)
	}
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, domainerrors.PayloadTooLarge(fmt.Sprintf("file exceeds the %d byte upload limit", maxBytesErr.Limit))
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to store file")
	}

	result := &UploadResult{
		Filename:    name,
		URL:         s.URL(name),
		Size:        size,
		ContentType: contentType,
	}
	if info != nil {
		result.Width = info.Width
		result.Height = info.Height
		result.BlurHash = info.BlurHash
	}

	if s.logger != nil {
		s.logger.Info("File stored",
			"filename", name,
			"size", size,
			"content_type", contentType,
			"backend", s.backend.Name(),
		)
	}
	return result, nil
}

// Open returns a stored file for serving. raw may be a bare name or a URL.
func (s *StorageService) Open(ctx context.Context, raw string) (*storage.Object, error) {
	name, err := storage.SanitizeName(raw)
	if err != nil {
		return nil, err
	}
	return s.backend.Open(ctx, name)
}

// Delete removes a stored file. raw may be a bare name or a URL.
func (s *StorageService) Delete(ctx context.Context, raw string) (string, error) {
	name, err := storage.SanitizeName(raw)
	if err != nil {
		return "", err
	}
	if err := s.backend.Delete(ctx, name); err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return "", err
		}
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to delete file")
	}

	if s.logger != nil {
		s.logger.Info("File deleted", "filename", name, "backend", s.backend.Name())
	}
	return name, nil
}

// URL returns the address a stored file is served from.
func (s *StorageService) URL(name string) string {
	return s.opts.PublicBaseURL + s.opts.URLPrefix + "/" + url.PathEscape(name)
}
