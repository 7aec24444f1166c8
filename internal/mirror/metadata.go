package mirror

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// MetadataWriter persists directory records and file contents under one
// output root, mirroring normalized paths onto the local filesystem.
// Writes overwrite whatever is already there; there is no versioning and
// no transactional guarantee beyond the filesystem's.
type MetadataWriter struct {
	root   string
	source string
	log    *zap.Logger
}

// NewMetadataWriter creates a writer rooted at outputRoot. sourceTag names
// the data source and becomes part of every metadata file name.
func NewMetadataWriter(outputRoot, sourceTag string, log *zap.Logger) *MetadataWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &MetadataWriter{root: outputRoot, source: sourceTag, log: log}
}

// WriteRecord serializes a directory record to
// <root>/<normalized_path>/<name>.<source>.json, creating directories as
// needed.
func (w *MetadataWriter) WriteRecord(rec *model.DirectoryRecord) error {
	dir := filepath.Join(w.root, filepath.FromSlash(rec.Path))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create metadata dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record for %s: %w", rec.Path, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.%s.json", rec.Name, w.source))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata %s: %w", path, err)
	}
	w.log.Debug("wrote directory metadata", zap.String("path", path))
	return nil
}

// WriteFile writes raw file bytes to <root>/<dirPath>/<name>, overwriting
// any previous run's copy.
func (w *MetadataWriter) WriteFile(dirPath, name string, data []byte) error {
	dir := filepath.Join(w.root, filepath.FromSlash(dirPath))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write file %s: %w", path, err)
	}
	return nil
}
