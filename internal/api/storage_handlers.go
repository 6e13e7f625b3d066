package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/imagevault/imagevault-server/internal/http/response"
	"github.com/imagevault/imagevault-server/internal/service"
)

func (s *Server) registerStorageRoutes() {
	huma.Register(s.api, s.gated(huma.Operation{
		OperationID: "deleteFile",
		Method:      http.MethodDelete,
		Path:        "/image/storage",
		Summary:     "Delete stored file",
		Description: "Deletes a stored file by name or by its full URL",
		Tags:        []string{"Storage"},
	}), s.handleDeleteFile)
}

// DeleteFileInput contains parameters for deleting a stored file.
type DeleteFileInput struct {
	File string `query:"file" doc:"File name or URL"`
}

// DeleteFileResponse names the removed file.
type DeleteFileResponse struct {
	Filename string `json:"filename" doc:"Deleted file name"`
}

// DeleteFileOutput wraps the delete response for Huma.
type DeleteFileOutput struct {
	Body DeleteFileResponse
}

func (s *Server) handleDeleteFile(ctx context.Context, input *DeleteFileInput) (*DeleteFileOutput, error) {
	name, err := s.services.Storage.Delete(ctx, input.File)
	if err != nil {
		return nil, s.handleErr(err)
	}
	return &DeleteFileOutput{Body: DeleteFileResponse{Filename: name}}, nil
}

// handleUpload streams the first file part of a multipart body into storage.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if limit := s.services.Storage.MaxUploadBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		response.BadRequest(w, "expected a multipart/form-data body", s.logger)
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			response.BadRequest(w, "no file uploaded", s.logger)
			return
		}
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				response.HandleError(w, err, s.logger)
				return
			}
			response.BadRequest(w, "malformed multipart body", s.logger)
			return
		}

		if part.FileName() == "" {
			_ = part.Close()
			continue
		}

		result, err := s.services.Storage.Upload(r.Context(), service.UploadRequest{
			RequestedName: r.URL.Query().Get("name"),
			FieldName:     part.FormName(),
			FileName:      part.FileName(),
			ContentType:   part.Header.Get("Content-Type"),
			Body:          part,
		})
		_ = part.Close()
		if err != nil {
			response.HandleError(w, err, s.logger)
			return
		}

		response.Success(w, result, s.logger)
		return
	}
}

// handleServeFile streams a stored file with Range and conditional request
// support.
func (s *Server) handleServeFile(w http.ResponseWriter, r *http.Request) {
	obj, err := s.services.Storage.Open(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	defer obj.Content.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("Cache-Control", CacheOneDay)
	w.Header().Set("X-Content-Type-Options", "nosniff")

	http.ServeContent(w, r, obj.Name, obj.ModTime, obj.Content)
}
