package service

import (
	"context"

	"github.com/modelcontextprotocol/crawler/internal/database"
	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// CatalogService is the business-logic layer between the crawler engine /
// API handlers and catalog storage.
type CatalogService interface {
	// RecordEntry upserts a scraped entry keyed by (source, name). The
	// returned entry carries the catalog ID and first-seen timestamp.
	RecordEntry(ctx context.Context, entry *model.ServerEntry) (*model.ServerEntry, error)
	// List retrieves cataloged entries with cursor-based pagination
	List(ctx context.Context, filter *database.EntryFilter, cursor string, limit int) ([]*model.ServerEntry, string, error)
	// GetByName retrieves the entry scraped from source under name
	GetByName(ctx context.Context, source, name string) (*model.ServerEntry, error)
}
