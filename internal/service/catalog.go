package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modelcontextprotocol/crawler/internal/database"
	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// catalogService is the database-backed CatalogService implementation
type catalogService struct {
	db  database.Database
	log *zap.Logger
}

func NewCatalogService(db database.Database, log *zap.Logger) CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &catalogService{db: db, log: log}
}

// RecordEntry upserts on the (source, name) identity. A re-crawled entry
// keeps its catalog ID and first-seen time; the stored payload is only
// replaced when the incoming version is not older than the stored one.
func (s *catalogService) RecordEntry(ctx context.Context, entry *model.ServerEntry) (*model.ServerEntry, error) {
	existing, err := s.db.GetByName(ctx, entry.Source, entry.Name)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
		fresh := *entry
		fresh.ID = uuid.New().String()
		if fresh.FirstSeenAt.IsZero() {
			fresh.FirstSeenAt = time.Now().UTC()
		}
		return s.db.CreateEntry(ctx, &fresh)
	}

	if CompareVersions(entry.Version, existing.Version, entry.CrawledAt, existing.CrawledAt) < 0 {
		s.log.Debug("keeping newer cataloged version",
			zap.String("source", entry.Source),
			zap.String("name", entry.Name),
			zap.String("stored", existing.Version),
			zap.String("incoming", entry.Version))
		return existing, nil
	}

	updated := *entry
	updated.ID = existing.ID
	updated.FirstSeenAt = existing.FirstSeenAt
	return s.db.UpdateEntry(ctx, existing.ID, &updated)
}

func (s *catalogService) List(ctx context.Context, filter *database.EntryFilter, cursor string, limit int) ([]*model.ServerEntry, string, error) {
	return s.db.List(ctx, filter, cursor, limit)
}

func (s *catalogService) GetByName(ctx context.Context, source, name string) (*model.ServerEntry, error) {
	return s.db.GetByName(ctx, source, name)
}
