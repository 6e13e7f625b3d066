// Package response writes the JSON envelope shared by every API response and
// maps errors onto it.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/imagevault/imagevault-server/internal/errors"
	"github.com/imagevault/imagevault-server/internal/store"
)

// EnvelopeVersion is bumped when the envelope shape changes.
const EnvelopeVersion = 1

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Problem is an error reduced to what a client is shown.
type Problem struct {
	Status  int
	Code    errors.Code
	Message string
	Details any
}

// Classify maps an error onto a status, code and client-safe message.
// Unknown errors become a generic 500 so internals never leak.
func Classify(err error) Problem {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		return Problem{
			Status:  domainErr.HTTPStatus(),
			Code:    domainErr.Code,
			Message: domainErr.Message,
			Details: domainErr.Details,
		}
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		code := errors.CodeForStatus(storeErr.HTTPCode())
		if errors.Is(err, store.ErrAlreadyExists) {
			code = errors.CodeAlreadyExists
		}
		return Problem{Status: storeErr.HTTPCode(), Code: code, Message: storeErr.Message}
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return Problem{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    errors.CodePayloadTooLarge,
			Message: "request body too large",
		}
	}

	return Problem{
		Status:  http.StatusInternalServerError,
		Code:    errors.CodeInternal,
		Message: "internal server error",
	}
}

// JSON writes data inside a success envelope, or an empty failure envelope
// for statuses of 400 and above.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Envelope{
		Version: EnvelopeVersion,
		Success: status < 400,
		Data:    data,
	}, logger)
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Created writes a created response (201 Created).
func Created(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusCreated, data, logger)
}

// Error writes a failure envelope.
func Error(w http.ResponseWriter, status int, code errors.Code, message string, details any, logger *slog.Logger) {
	write(w, status, Envelope{
		Version: EnvelopeVersion,
		Success: false,
		Error:   message,
		Code:    string(code),
		Details: details,
	}, logger)
}

// BadRequest writes a 400 Bad Request response.
func BadRequest(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusBadRequest, errors.CodeBadRequest, message, nil, logger)
}

// Unauthorized writes a 401 Unauthorized response.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusUnauthorized, errors.CodeUnauthorized, message, nil, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, errors.CodeNotFound, message, nil, logger)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, errors.CodeRateLimited, message, nil, logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, errors.CodeInternal, message, nil, logger)
}

// HandleError writes the envelope for err. Server-side failures are logged
// with the full error; the client only sees the classified message.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	p := Classify(err)
	if p.Status >= http.StatusInternalServerError && logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	Error(w, p.Status, p.Code, p.Message, p.Details, logger)
}

func write(w http.ResponseWriter, status int, envelope Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}
