package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/imagevault/imagevault-server/internal/domain"
	"github.com/imagevault/imagevault-server/internal/service"
)

func (s *Server) registerImageRoutes() {
	huma.Register(s.api, s.gated(huma.Operation{
		OperationID: "getImages",
		Method:      http.MethodGet,
		Path:        "/image/db",
		Summary:     "Get or list images",
		Description: "Returns the image with ?id=, otherwise one page of images filtered by search and tags",
		Tags:        []string{"Images"},
	}), s.handleGetImages)

	huma.Register(s.api, s.gated(huma.Operation{
		OperationID: "countImagePages",
		Method:      http.MethodGet,
		Path:        "/image/db/pages",
		Summary:     "Count image pages",
		Description: "Returns how many pages the filtered listing has",
		Tags:        []string{"Images"},
	}), s.handleCountImagePages)

	huma.Register(s.api, s.gated(huma.Operation{
		OperationID:  "createImage",
		Method:       http.MethodPost,
		Path:         "/image/db",
		Summary:      "Create image",
		Description:  "Inserts an image document; a missing id is generated",
		Tags:         []string{"Images"},
		MaxBodyBytes: maxJSONBodyBytes,
	}), s.handleCreateImage)

	huma.Register(s.api, s.gated(huma.Operation{
		OperationID:  "replaceImage",
		Method:       http.MethodPut,
		Path:         "/image/db",
		Summary:      "Replace image",
		Description:  "Replaces the image with the body's id, keeping its creation time",
		Tags:         []string{"Images"},
		MaxBodyBytes: maxJSONBodyBytes,
	}), s.handleReplaceImage)

	huma.Register(s.api, s.gated(huma.Operation{
		OperationID:  "deleteImage",
		Method:       http.MethodDelete,
		Path:         "/image/db",
		Summary:      "Delete image",
		Description:  "Deletes the image document. The stored file is left in place.",
		Tags:         []string{"Images"},
		MaxBodyBytes: maxJSONBodyBytes,
	}), s.handleDeleteImage)
}

// === DTOs ===

// ImageFilter holds the listing query shared by the list and pages routes.
type ImageFilter struct {
	Search string   `query:"search" doc:"Case-insensitive regular expression matched against title or description"`
	Tags   []string `query:"tags,explode" doc:"Required tags; repeat the parameter or separate with commas"`
}

func (f ImageFilter) query() domain.ImageQuery {
	return domain.NewImageQuery(f.Search, f.Tags)
}

// GetImagesInput contains parameters for getting or listing images.
type GetImagesInput struct {
	ImageFilter
	ID       string `query:"id" doc:"Return only this image"`
	PageSize int    `query:"pageSize" default:"15" doc:"Images per page (1-1000)"`
	PageNum  int    `query:"pageNum" default:"1" doc:"1-based page number"`
}

// GetImagesOutput carries either one image or a list of images.
type GetImagesOutput struct {
	Body any
}

// CountPagesInput contains parameters for counting pages.
type CountPagesInput struct {
	ImageFilter
	PageSize int `query:"pageSize" default:"15" doc:"Images per page (1-1000)"`
}

// CountPagesOutput wraps the page count for Huma.
type CountPagesOutput struct {
	Body service.PageInfo
}

// ImageRequest is the request body for creating or replacing an image.
// Stored fields such as created_at may be sent back and are ignored.
type ImageRequest struct {
	_           struct{} `json:"-" additionalProperties:"true"`
	ID          string   `json:"id,omitempty" maxLength:"128" doc:"Image ID; generated when empty on create"`
	Title       string   `json:"title,omitempty" doc:"Title"`
	Description string   `json:"description,omitempty" doc:"Description"`
	URL         string   `json:"url,omitempty" doc:"Address of the stored file"`
	Tags        []string `json:"tags,omitempty" doc:"Tag names"`
}

func (r ImageRequest) toInput() service.ImageInput {
	return service.ImageInput{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		URL:         r.URL,
		Tags:        r.Tags,
	}
}

// ImageInput wraps an image body for Huma.
type ImageInput struct {
	Body ImageRequest
}

// ImageIDResponse echoes the affected image id.
type ImageIDResponse struct {
	ID string `json:"id" doc:"Image ID"`
}

// ImageIDOutput wraps the id response for Huma.
type ImageIDOutput struct {
	Body ImageIDResponse
}

// ImageOutput wraps an image document for Huma.
type ImageOutput struct {
	Body *domain.Image
}

// DeleteImageRequest is the request body for deleting an image.
type DeleteImageRequest struct {
	ID string `json:"id" doc:"Image ID"`
}

// DeleteImageInput wraps the delete request for Huma.
type DeleteImageInput struct {
	Body DeleteImageRequest
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message" doc:"Result description"`
}

// MessageOutput wraps a confirmation for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleGetImages(ctx context.Context, input *GetImagesInput) (*GetImagesOutput, error) {
	if input.ID != "" {
		img, err := s.services.Image.GetImage(ctx, input.ID)
		if err != nil {
			return nil, s.handleErr(err)
		}
		return &GetImagesOutput{Body: img}, nil
	}

	page := domain.Page{Size: input.PageSize, Number: input.PageNum}
	images, err := s.services.Image.ListImages(ctx, input.query(), page)
	if err != nil {
		return nil, s.handleErr(err)
	}
	if images == nil {
		images = []*domain.Image{}
	}
	return &GetImagesOutput{Body: images}, nil
}

func (s *Server) handleCountImagePages(ctx context.Context, input *CountPagesInput) (*CountPagesOutput, error) {
	info, err := s.services.Image.CountPages(ctx, input.query(), input.PageSize)
	if err != nil {
		return nil, s.handleErr(err)
	}
	return &CountPagesOutput{Body: *info}, nil
}

func (s *Server) handleCreateImage(ctx context.Context, input *ImageInput) (*ImageIDOutput, error) {
	img, err := s.services.Image.CreateImage(ctx, input.Body.toInput())
	if err != nil {
		return nil, s.handleErr(err)
	}
	return &ImageIDOutput{Body: ImageIDResponse{ID: img.ID}}, nil
}

func (s *Server) handleReplaceImage(ctx context.Context, input *ImageInput) (*ImageOutput, error) {
	img, err := s.services.Image.ReplaceImage(ctx, input.Body.toInput())
	if err != nil {
		return nil, s.handleErr(err)
	}
	return &ImageOutput{Body: img}, nil
}

func (s *Server) handleDeleteImage(ctx context.Context, input *DeleteImageInput) (*MessageOutput, error) {
	if err := s.services.Image.DeleteImage(ctx, input.Body.ID); err != nil {
		return nil, s.handleErr(err)
	}
	return &MessageOutput{Body: MessageResponse{Message: "image deleted"}}, nil
}
