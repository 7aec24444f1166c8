package mirror

import (
	"context"
	"strings"
	"time"

	"github.com/denormal/go-gitignore"
	"go.uber.org/zap"

	"github.com/modelcontextprotocol/crawler/internal/telemetry"
	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// WalkerOptions tunes one walk session
type WalkerOptions struct {
	// ContinueOnError keeps walking siblings when a subdirectory's fetch
	// exhausts its retries; the failed subtree is dropped from the parent
	// record and tallied in the summary. When false, the first subtree
	// failure aborts the whole walk.
	ContinueOnError bool
	// IgnorePatterns are gitignore-style patterns (relative to the repo
	// root, after normalization) whose matches are not materialized.
	IgnorePatterns []string
}

// Summary tallies one walk session. Failures are enumerated here, never
// swallowed without trace.
type Summary struct {
	Directories    int
	FilesWritten   int
	FilesSkipped   int
	IgnoredPaths   int
	Duplicates     int
	FileFailures   int
	FailedSubtrees []string
}

// Walker recursively mirrors a GitHub contents-API tree to local storage,
// emitting one DirectoryRecord per directory. State lives only for the
// duration of one walk; the VisitTracker must not be reused across
// sessions.
type Walker struct {
	fetcher         *Fetcher
	norm            Normalizer
	tracker         *VisitTracker
	writer          *MetadataWriter
	ignore          gitignore.GitIgnore
	continueOnError bool
	log             *zap.Logger
	metrics         *telemetry.Metrics
}

// NewWalker wires a walk session together
func NewWalker(fetcher *Fetcher, norm Normalizer, tracker *VisitTracker, writer *MetadataWriter, opts WalkerOptions, log *zap.Logger, metrics *telemetry.Metrics) *Walker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Walker{
		fetcher:         fetcher,
		norm:            norm,
		tracker:         tracker,
		writer:          writer,
		ignore:          compileIgnore(opts.IgnorePatterns),
		continueOnError: opts.ContinueOnError,
		log:             log,
		metrics:         metrics,
	}
}

// compileIgnore turns the configured patterns into a matcher. Directory
// patterns ("x/") expand to both the bare name and a glob over the
// subtree so the directory itself is skipped before recursion.
func compileIgnore(patterns []string) gitignore.GitIgnore {
	var expanded []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		if strings.HasSuffix(p, "/") {
			base := strings.TrimSuffix(p, "/")
			expanded = append(expanded, base, base+"/**")
			continue
		}
		expanded = append(expanded, p)
	}
	if len(expanded) == 0 {
		return nil
	}
	return gitignore.New(
		strings.NewReader(strings.Join(expanded, "\n")),
		"",
		func(gitignore.Error) bool { return false },
	)
}

// dirAccum collects the direct file children of the directory currently
// being aggregated, across root-marker collapses.
type dirAccum struct {
	files     []model.FileStat
	totalSize int64
}

// Walk mirrors the tree rooted at listingURL. rootName names the root's
// metadata record (typically the repository name). Returns the root
// record and the session summary; on abort the summary still reflects the
// work done so far.
func (w *Walker) Walk(ctx context.Context, listingURL, rootName string) (*model.DirectoryRecord, *Summary, error) {
	sum := &Summary{}
	w.tracker.Visit(w.norm.Normalize(""))

	rec, err := w.walkDir(ctx, listingURL, rootName, "", nil, sum)
	if err != nil {
		return nil, sum, err
	}

	w.log.Info("walk complete",
		zap.String("root", rootName),
		zap.Int("directories", sum.Directories),
		zap.Int("files_written", sum.FilesWritten),
		zap.Int("duplicates", sum.Duplicates),
		zap.Int("failed_subtrees", len(sum.FailedSubtrees)))
	return rec, sum, nil
}

// walkDir processes one directory: fetch, classify, materialize,
// recurse, then aggregate and persist its record.
func (w *Walker) walkDir(ctx context.Context, listingURL, name, rawPath string, parent *string, sum *Summary) (*model.DirectoryRecord, error) {
	norm := w.norm.Normalize(rawPath)
	acc := &dirAccum{files: make([]model.FileStat, 0)}

	if err := w.processListing(ctx, listingURL, norm, acc, sum); err != nil {
		return nil, err
	}

	subdirs := w.tracker.ChildrenOf(norm)
	if subdirs == nil {
		subdirs = []string{}
	}
	rec := &model.DirectoryRecord{
		Name:            name,
		Path:            norm,
		SourceURL:       listingURL,
		Files:           acc.files,
		ParentDirectory: parent,
		Subdirectories:  subdirs,
		Kind:            model.RecordKindDirectory,
		TotalFiles:      len(acc.files),
		TotalSizeBytes:  acc.totalSize,
		LastUpdated:     time.Now().UTC(),
	}

	if err := w.writer.WriteRecord(rec); err != nil {
		return nil, err
	}
	sum.Directories++
	return rec, nil
}

// processListing fetches one listing endpoint and folds its entries into
// the directory identified by norm. A subdirectory whose path normalizes
// to norm itself (the source-root marker) is collapsed: its children are
// processed as if they were listed here.
func (w *Walker) processListing(ctx context.Context, listingURL, norm string, acc *dirAccum, sum *Summary) error {
	entries, err := w.fetcher.FetchListing(ctx, listingURL)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		entryNorm := w.norm.Normalize(entry.Path)

		switch entry.Kind {
		case model.KindFile:
			w.processFile(ctx, entry, norm, entryNorm, acc, sum)

		case model.KindDirectory:
			if w.ignored(entryNorm, true) {
				sum.IgnoredPaths++
				w.log.Debug("directory matches ignore pattern", zap.String("path", entry.Path))
				continue
			}
			if entryNorm == norm {
				// Root marker collapses away; its children belong to the
				// current record (first-seen still wins for their paths).
				if err := w.processListing(ctx, entry.URL, norm, acc, sum); err != nil {
					if !w.continueOnError {
						return err
					}
					w.log.Error("collapsed directory listing failed",
						zap.String("path", entry.Path), zap.Error(err))
					sum.FailedSubtrees = append(sum.FailedSubtrees, entry.Path)
					w.metrics.SubtreeFailed(ctx)
				}
				continue
			}
			if !w.tracker.Visit(entryNorm) {
				sum.Duplicates++
				w.metrics.DuplicatePath(ctx)
				continue
			}
			w.tracker.RecordParent(entryNorm, norm)
			if _, err := w.walkDir(ctx, entry.URL, entry.Name, entry.Path, &norm, sum); err != nil {
				if !w.continueOnError {
					return err
				}
				w.log.Error("subdirectory walk failed, continuing with siblings",
					zap.String("path", entryNorm), zap.Error(err))
				sum.FailedSubtrees = append(sum.FailedSubtrees, entryNorm)
				w.tracker.DropSubtree(entryNorm)
				w.metrics.SubtreeFailed(ctx)
			}

		default:
			// Symlinks and submodules are not mirrored
			w.log.Debug("skipping unsupported entry type",
				zap.String("type", string(entry.Kind)), zap.String("path", entry.Path))
		}
	}
	return nil
}

func (w *Walker) processFile(ctx context.Context, entry model.DirectoryEntry, norm, entryNorm string, acc *dirAccum, sum *Summary) {
	if w.ignored(entryNorm, false) {
		sum.IgnoredPaths++
		w.log.Debug("file matches ignore pattern", zap.String("path", entry.Path))
		return
	}
	if !w.tracker.Visit(entryNorm) {
		sum.Duplicates++
		w.metrics.DuplicatePath(ctx)
		return
	}

	// The file counts toward its directory's rollups even when content
	// download is skipped; sizes come from the listing.
	acc.files = append(acc.files, model.FileStat{
		Name:      entry.Name,
		Path:      entryNorm,
		SizeBytes: entry.SizeBytes,
	})
	acc.totalSize += entry.SizeBytes

	if !w.fetcher.HasToken() {
		sum.FilesSkipped++
		w.log.Info("no auth token configured, skipping file download",
			zap.String("path", entry.Path))
		return
	}

	data, err := w.fetcher.FetchBytes(ctx, entry.DownloadURL)
	if err != nil {
		sum.FileFailures++
		w.log.Error("file download failed", zap.String("path", entry.Path), zap.Error(err))
		return
	}
	if err := w.writer.WriteFile(norm, entry.Name, data); err != nil {
		sum.FileFailures++
		w.log.Error("file write failed", zap.String("path", entry.Path), zap.Error(err))
		return
	}
	sum.FilesWritten++
	w.metrics.FileWritten(ctx)
}

func (w *Walker) ignored(relPath string, isDir bool) bool {
	if w.ignore == nil || relPath == "" {
		return false
	}
	p := relPath
	if isDir {
		p += "/"
	}
	if m := w.ignore.Match(p); m != nil {
		return m.Ignore()
	}
	if m := w.ignore.Match(relPath); m != nil {
		return m.Ignore()
	}
	return false
}
