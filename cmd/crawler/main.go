// Command crawler scrapes MCP server directories, catalogs what it finds
// and mirrors the linked GitHub repositories.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/modelcontextprotocol/crawler/internal/config"
	"github.com/modelcontextprotocol/crawler/internal/database"
	"github.com/modelcontextprotocol/crawler/internal/logging"
	"github.com/modelcontextprotocol/crawler/internal/mirror"
	"github.com/modelcontextprotocol/crawler/internal/service"
	"github.com/modelcontextprotocol/crawler/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:           "crawler",
	Short:         "MCP directory crawler and repository mirror",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app bundles the wired components every subcommand needs
type app struct {
	cfg            *config.Config
	log            *zap.Logger
	metrics        *telemetry.Metrics
	metricsHandler http.Handler
	db             database.Database
	catalog        service.CatalogService
	fetcher        *mirror.Fetcher
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	metrics, metricsHandler, err := telemetry.New()
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	var db database.Database
	if cfg.DatabaseURL != "" {
		db, err = database.NewPostgreSQL(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect catalog database: %w", err)
		}
		log.Info("catalog backed by postgres")
	} else {
		db = database.NewMemoryDB()
		log.Info("catalog running in-memory; set CRAWLER_DATABASE_URL to persist")
	}

	fetcher := mirror.NewFetcher(cfg.GithubToken,
		mirror.RetryPolicy{MaxRetries: cfg.MaxRetries, RetryDelay: cfg.RetryDelay},
		log, metrics)
	if !fetcher.HasToken() {
		log.Warn("GITHUB_TOKEN not set; file downloads will be skipped")
	}

	return &app{
		cfg:            cfg,
		log:            log,
		metrics:        metrics,
		metricsHandler: metricsHandler,
		db:             db,
		catalog:        service.NewCatalogService(db, log),
		fetcher:        fetcher,
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Error("closing catalog database", zap.Error(err))
	}
	_ = a.log.Sync()
}
