package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/crawler/internal/config"
	"github.com/modelcontextprotocol/crawler/internal/database"
	"github.com/modelcontextprotocol/crawler/internal/mirror"
	"github.com/modelcontextprotocol/crawler/internal/service"
	"github.com/modelcontextprotocol/crawler/internal/sources"
	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// fakeSource serves pre-built pages in order
type fakeSource struct {
	name  string
	pages []*sources.Page
	calls int
	err   error
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) FetchPage(_ context.Context, _ string) (*sources.Page, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.calls >= len(s.pages) {
		return nil, nil
	}
	page := s.pages[s.calls]
	s.calls++
	return page, nil
}

func entry(name, version string) model.ServerEntry {
	return model.ServerEntry{
		Name:      name,
		Source:    "fake",
		Version:   version,
		CrawledAt: time.Now().UTC(),
		Repository: model.Repository{
			URL:    "https://github.com/acme/" + name,
			Source: "github",
		},
	}
}

func newTestEngine(t *testing.T) (*Engine, *config.Config, service.CatalogService) {
	t.Helper()
	cfg := &config.Config{
		OutputRoot:            t.TempDir(),
		SourceRootMarker:      "src",
		MirrorConcurrency:     2,
		MirrorContinueOnError: true,
		EnableEntryValidation: true,
	}
	catalog := service.NewCatalogService(database.NewMemoryDB(), nil)
	fetcher := mirror.NewFetcher("", mirror.RetryPolicy{MaxRetries: 2, RetryDelay: time.Millisecond}, nil, nil)
	return NewEngine(cfg, catalog, fetcher, nil, nil), cfg, catalog
}

func TestCrawlSourceCatalogsEntries(t *testing.T) {
	engine, cfg, catalog := newTestEngine(t)
	src := &fakeSource{
		name: "fake",
		pages: []*sources.Page{
			{Entries: []model.ServerEntry{entry("alpha", "1.0.0"), entry("beta", "2.0.0")}, NextCursor: "next"},
			{Entries: []model.ServerEntry{entry("gamma", "0.1.0")}},
		},
	}

	report, err := engine.CrawlSource(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 3, report.Found)
	assert.Equal(t, 3, report.Cataloged)
	assert.Equal(t, 0, report.Invalid)

	stored, err := catalog.GetByName(context.Background(), "fake", "alpha")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)

	// Per-entry snapshot next to where the repo mirror would land
	snap := filepath.Join(cfg.OutputRoot, "fake", "alpha", "alpha.fake.json")
	data, err := os.ReadFile(snap)
	require.NoError(t, err)
	var got model.ServerEntry
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "alpha", got.Name)
}

func TestCrawlSourceWritesSummary(t *testing.T) {
	engine, cfg, _ := newTestEngine(t)
	src := &fakeSource{
		name:  "fake",
		pages: []*sources.Page{{Entries: []model.ServerEntry{entry("alpha", "1.0.0")}}},
	}

	_, err := engine.CrawlSource(context.Background(), src)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.OutputRoot, "all_servers.fake.json"))
	require.NoError(t, err)

	var summary struct {
		Source     string              `json:"source"`
		TotalCount int                 `json:"total_count"`
		Servers    []model.ServerEntry `json:"servers"`
	}
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, "fake", summary.Source)
	assert.Equal(t, 1, summary.TotalCount)
	require.Len(t, summary.Servers, 1)
	assert.Equal(t, "alpha", summary.Servers[0].Name)
}

func TestCrawlSourceSkipsInvalidEntries(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	bad := entry("", "1.0.0")
	src := &fakeSource{
		name:  "fake",
		pages: []*sources.Page{{Entries: []model.ServerEntry{bad, entry("alpha", "1.0.0")}}},
	}

	report, err := engine.CrawlSource(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Invalid)
	assert.Equal(t, 1, report.Cataloged)
}

func TestCrawlSourcePageFailureAborts(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	src := &fakeSource{name: "fake", err: errors.New("boom")}

	_, err := engine.CrawlSource(context.Background(), src)
	require.Error(t, err)
}

func TestMirrorEntriesSkipsNonGitHub(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	e := entry("alpha", "1.0.0")
	e.Repository.URL = "https://example.com/not/github"

	report, err := engine.MirrorEntries(context.Background(), []*model.ServerEntry{&e})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.NonGitHub)
	assert.Equal(t, 0, report.Mirrored)
}

func TestMirrorEntriesSkipsPopulatedDestination(t *testing.T) {
	engine, cfg, _ := newTestEngine(t)
	e := entry("alpha", "1.0.0")

	dest := filepath.Join(cfg.OutputRoot, "fake", "alpha")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "leftover.json"), []byte("{}"), 0o644))

	report, err := engine.MirrorEntries(context.Background(), []*model.ServerEntry{&e})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
}
