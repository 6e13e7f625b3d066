package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/imagevault/imagevault-server/internal/domain"
	"github.com/imagevault/imagevault-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, s.gated(huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/tags",
		Summary:     "List tags",
		Description: "Returns every tag, oldest first",
		Tags:        []string{"Tags"},
	}), s.handleListTags)

	huma.Register(s.api, s.gated(huma.Operation{
		OperationID:  "createTag",
		Method:       http.MethodPost,
		Path:         "/tags",
		Summary:      "Create tag",
		Description:  "Creates a new tag",
		Tags:         []string{"Tags"},
		MaxBodyBytes: maxJSONBodyBytes,
	}), s.handleCreateTag)

	huma.Register(s.api, s.gated(huma.Operation{
		OperationID: "deleteTags",
		Method:      http.MethodDelete,
		Path:        "/tags",
		Summary:     "Delete tags",
		Description: "Accepted for compatibility; tags are never deleted",
		Tags:        []string{"Tags"},
	}), s.handleDeleteTags)
}

// === DTOs ===

// ListTagsOutput wraps the tag list for Huma.
type ListTagsOutput struct {
	Body []*domain.Tag
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name string `json:"name" maxLength:"64" doc:"Tag name"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Body CreateTagRequest
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body *domain.Tag
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	tags, err := s.services.Tag.ListTags(ctx)
	if err != nil {
		return nil, s.handleErr(err)
	}
	if tags == nil {
		tags = []*domain.Tag{}
	}
	return &ListTagsOutput{Body: tags}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	tag, err := s.services.Tag.CreateTag(ctx, input.Body.Name)
	if err != nil {
		return nil, s.handleErr(err)
	}
	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleDeleteTags(_ context.Context, _ *struct{}) (*MessageOutput, error) {
	return &MessageOutput{Body: MessageResponse{Message: service.TagDeletionMessage}}, nil
}
