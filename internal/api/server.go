package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"go.uber.org/zap"

	v0 "github.com/modelcontextprotocol/crawler/internal/api/handlers/v0"
	"github.com/modelcontextprotocol/crawler/internal/config"
	"github.com/modelcontextprotocol/crawler/internal/service"
)

// Server wraps the read-only catalog HTTP API
type Server struct {
	server *http.Server
	log    *zap.Logger
}

// NewServer mounts the catalog endpoints plus health and metrics on a
// fresh mux.
func NewServer(cfg *config.Config, catalog service.CatalogService, metricsHandler http.Handler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	mux := http.NewServeMux()
	humaConfig := huma.DefaultConfig("MCP Crawler Catalog API", "1.0.0")
	humaConfig.Info.Description = "Read API over entries cataloged by the directory crawler"
	api := humago.New(mux, humaConfig)

	v0.RegisterEntriesEndpoints(api, catalog)
	v0.RegisterHealthEndpoint(api)

	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	return &Server{
		server: &http.Server{
			Addr:              cfg.ServerAddress,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start begins listening; it blocks until the server stops
func (s *Server) Start() error {
	s.log.Info("http server starting", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
