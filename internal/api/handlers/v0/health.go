package v0

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	apiv0 "github.com/modelcontextprotocol/crawler/pkg/api/v0"
)

// RegisterHealthEndpoint registers the liveness endpoint
func RegisterHealthEndpoint(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/v0/health",
		Summary:     "Health check",
		Tags:        []string{"health"},
	}, func(ctx context.Context, _ *struct{}) (*Response[apiv0.HealthResponse], error) {
		return &Response[apiv0.HealthResponse]{
			Body: apiv0.HealthResponse{Status: "ok"},
		}, nil
	})
}
