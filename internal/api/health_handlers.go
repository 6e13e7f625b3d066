package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/imagevault/imagevault-server/internal/errors"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Pings the document store and reports the configured backends",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status  string `json:"status" doc:"ok when the document store answers"`
	Backend string `json:"backend" doc:"Document store backend"`
	Storage string `json:"storage" doc:"File storage backend"`
	Latency string `json:"latency" doc:"Store ping time"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("Health check failed", "backend", s.store.Backend(), "error", err)
		return nil, &APIError{
			status:  http.StatusServiceUnavailable,
			Code:    string(domainerrors.CodeInternal),
			Message: "document store unreachable",
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:  "ok",
			Backend: s.store.Backend(),
			Storage: s.services.Storage.Backend(),
			Latency: time.Since(start).String(),
		},
	}, nil
}
