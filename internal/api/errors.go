package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/imagevault/imagevault-server/internal/errors"
	"github.com/imagevault/imagevault-server/internal/http/response"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var fields map[string]string
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return toAPIError(domainErr)
			}

			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				if fields == nil {
					fields = make(map[string]string)
				}
				fields[detail.Location] = detail.Message
			}
		}

		// Request validation failures are reported as 400 like every other
		// validation error.
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		apiErr := &APIError{
			status:  status,
			Code:    string(domainerrors.CodeForStatus(status)),
			Message: message,
		}
		if fields != nil {
			apiErr.Details = fields
		}
		return apiErr
	}
}

// toAPIError classifies err. Anything unrecognised becomes a generic 500.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	p := response.Classify(err)
	return &APIError{
		status:  p.Status,
		Code:    string(p.Code),
		Message: p.Message,
		Details: p.Details,
	}
}

// handleErr converts a service error for huma and logs server-side failures.
func (s *Server) handleErr(err error) error {
	apiErr := toAPIError(err)
	if apiErr.status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err)
	}
	return apiErr
}
