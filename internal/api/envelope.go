package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/imagevault/imagevault-server/internal/errors"
	"github.com/imagevault/imagevault-server/internal/http/response"
)

// EnvelopeVersion is the envelope version written by every route.
const EnvelopeVersion = response.EnvelopeVersion

// EnvelopeTransformer wraps huma response bodies in response.Envelope so
// typed operations and the raw chi routes produce the same shape.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)

	switch body := v.(type) {
	case response.Envelope:
		return body, nil
	case *APIError:
		return response.Envelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   body.Message,
			Code:    body.Code,
			Details: body.Details,
		}, nil
	case error:
		return response.Envelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   body.Error(),
			Code:    string(domainerrors.CodeForStatus(code)),
		}, nil
	}

	return response.Envelope{
		Version: EnvelopeVersion,
		Success: code < 400,
		Data:    v,
	}, nil
}
