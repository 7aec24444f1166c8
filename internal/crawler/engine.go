// Package crawler drives directory crawls end to end: page through a
// source, validate and catalog each entry, persist per-entry snapshots,
// and optionally mirror the linked repositories.
package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/modelcontextprotocol/crawler/internal/config"
	"github.com/modelcontextprotocol/crawler/internal/mirror"
	"github.com/modelcontextprotocol/crawler/internal/service"
	"github.com/modelcontextprotocol/crawler/internal/sources"
	"github.com/modelcontextprotocol/crawler/internal/telemetry"
	"github.com/modelcontextprotocol/crawler/internal/validators"
	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// SourceReport tallies one crawl of one directory
type SourceReport struct {
	Source     string    `json:"source"`
	Pages      int       `json:"pages"`
	Found      int       `json:"found"`
	Cataloged  int       `json:"cataloged"`
	Invalid    int       `json:"invalid"`
	Failed     int       `json:"failed"`
	FinishedAt time.Time `json:"finishedAt"`
}

// MirrorReport tallies one mirroring pass over cataloged entries
type MirrorReport struct {
	Attempted  int
	Mirrored   int
	Skipped    int
	NonGitHub  int
	Failed     int
	FailedRepo []string
}

// Engine orchestrates crawling and mirroring
type Engine struct {
	cfg     *config.Config
	catalog service.CatalogService
	fetcher *mirror.Fetcher
	log     *zap.Logger
	metrics *telemetry.Metrics
}

func NewEngine(cfg *config.Config, catalog service.CatalogService, fetcher *mirror.Fetcher, log *zap.Logger, metrics *telemetry.Metrics) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, catalog: catalog, fetcher: fetcher, log: log, metrics: metrics}
}

// sourceSummary is the aggregate file written next to the per-entry
// snapshots after a crawl.
type sourceSummary struct {
	Source     string              `json:"source"`
	TotalCount int                 `json:"total_count"`
	CrawledAt  time.Time           `json:"crawled_at"`
	Servers    []model.ServerEntry `json:"servers"`
}

// CrawlSource pages through src until exhaustion, cataloging every valid
// entry and writing snapshots under OutputRoot/<source>/. A failing page
// fetch aborts the crawl; a single invalid or uncatalogable entry does
// not.
func (e *Engine) CrawlSource(ctx context.Context, src sources.Source) (*SourceReport, error) {
	report := &SourceReport{Source: src.Name()}
	var cataloged []model.ServerEntry

	cursor := ""
	for {
		page, err := src.FetchPage(ctx, cursor)
		if err != nil {
			return report, fmt.Errorf("crawl %s: %w", src.Name(), err)
		}
		if page == nil {
			break
		}
		report.Pages++
		report.Found += len(page.Entries)

		for i := range page.Entries {
			entry := &page.Entries[i]
			if e.cfg.EnableEntryValidation {
				if err := validators.ValidateEntry(entry); err != nil {
					report.Invalid++
					e.log.Warn("skipping invalid entry",
						zap.String("source", src.Name()),
						zap.String("name", entry.Name),
						zap.Error(err))
					continue
				}
			}

			stored, err := e.catalog.RecordEntry(ctx, entry)
			if err != nil {
				report.Failed++
				e.log.Error("cataloging entry failed",
					zap.String("source", src.Name()),
					zap.String("name", entry.Name),
					zap.Error(err))
				continue
			}
			report.Cataloged++
			e.metrics.EntryCataloged(ctx)
			cataloged = append(cataloged, *stored)

			if err := e.writeEntrySnapshot(stored); err != nil {
				e.log.Error("entry snapshot write failed",
					zap.String("name", stored.Name), zap.Error(err))
			}
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	report.FinishedAt = time.Now().UTC()
	if err := e.writeSourceSummary(src.Name(), cataloged, report.FinishedAt); err != nil {
		e.log.Error("source summary write failed",
			zap.String("source", src.Name()), zap.Error(err))
	}

	e.log.Info("crawl finished",
		zap.String("source", report.Source),
		zap.Int("pages", report.Pages),
		zap.Int("found", report.Found),
		zap.Int("cataloged", report.Cataloged),
		zap.Int("invalid", report.Invalid),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (e *Engine) writeEntrySnapshot(entry *model.ServerEntry) error {
	name := normalizeEntryName(entry.Name)
	if name == "" {
		name = entry.ID
	}
	dir := filepath.Join(e.cfg.OutputRoot, entry.Source, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.%s.json", name, entry.Source))
	return os.WriteFile(path, data, 0o644)
}

func (e *Engine) writeSourceSummary(source string, entries []model.ServerEntry, at time.Time) error {
	if entries == nil {
		entries = []model.ServerEntry{}
	}
	summary := sourceSummary{
		Source:     source,
		TotalCount: len(entries),
		CrawledAt:  at,
		Servers:    entries,
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(e.cfg.OutputRoot, 0o755); err != nil {
		return err
	}
	path := filepath.Join(e.cfg.OutputRoot, fmt.Sprintf("all_servers.%s.json", source))
	return os.WriteFile(path, data, 0o644)
}

// MirrorEntries mirrors the GitHub repositories of the given entries,
// MirrorConcurrency repos at a time. Entries without a usable GitHub link
// are counted and skipped; a repository whose destination already holds
// files is assumed mirrored and skipped.
func (e *Engine) MirrorEntries(ctx context.Context, entries []*model.ServerEntry) (*MirrorReport, error) {
	report := &MirrorReport{}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	limit := e.cfg.MirrorConcurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, entry := range entries {
		g.Go(func() error {
			mu.Lock()
			report.Attempted++
			mu.Unlock()

			ref, err := mirror.ParseRepoURL(entry.Repository.URL)
			if err != nil {
				mu.Lock()
				report.NonGitHub++
				mu.Unlock()
				e.log.Debug("entry has no github repository, skipping mirror",
					zap.String("name", entry.Name),
					zap.String("url", entry.Repository.URL))
				return nil
			}

			dest := filepath.Join(e.cfg.OutputRoot, entry.Source, normalizeEntryName(entry.Name))
			if hasContents(dest) {
				mu.Lock()
				report.Skipped++
				mu.Unlock()
				e.log.Info("destination already populated, skipping mirror",
					zap.String("name", entry.Name), zap.String("dest", dest))
				return nil
			}

			if err := e.mirrorRepo(ctx, ref, dest); err != nil {
				mu.Lock()
				report.Failed++
				report.FailedRepo = append(report.FailedRepo, ref.Owner+"/"+ref.Name)
				mu.Unlock()
				e.log.Error("repository mirror failed",
					zap.String("repo", ref.Owner+"/"+ref.Name), zap.Error(err))
				return nil
			}

			mu.Lock()
			report.Mirrored++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	e.log.Info("mirror pass finished",
		zap.Int("attempted", report.Attempted),
		zap.Int("mirrored", report.Mirrored),
		zap.Int("skipped", report.Skipped),
		zap.Int("non_github", report.NonGitHub),
		zap.Int("failed", report.Failed))
	return report, nil
}

// mirrorRepo walks one repository tree with a fresh visit tracker; visit
// state never leaks across repositories.
func (e *Engine) mirrorRepo(ctx context.Context, ref mirror.RepoRef, dest string) error {
	tracker := mirror.NewVisitTracker(e.log)
	writer := mirror.NewMetadataWriter(dest, "github", e.log)
	walker := mirror.NewWalker(
		e.fetcher,
		mirror.NewNormalizer(e.cfg.SourceRootMarker),
		tracker,
		writer,
		mirror.WalkerOptions{
			ContinueOnError: e.cfg.MirrorContinueOnError,
			IgnorePatterns:  e.cfg.MirrorIgnorePatterns,
		},
		e.log.With(zap.String("repo", ref.Owner+"/"+ref.Name)),
		e.metrics,
	)

	_, _, err := walker.Walk(ctx, ref.ContentsURL(), ref.Name)
	return err
}

func hasContents(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
