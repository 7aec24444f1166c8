package mirror

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/crawler/pkg/model"
)

func TestWriteRecord(t *testing.T) {
	root := t.TempDir()
	w := NewMetadataWriter(root, "github", nil)

	parent := ""
	rec := &model.DirectoryRecord{
		Name:            "utils",
		Path:            "utils",
		SourceURL:       "http://example/utils",
		Files:           []model.FileStat{{Name: "a.go", Path: "utils/a.go", SizeBytes: 10}},
		ParentDirectory: &parent,
		Subdirectories:  []string{"utils/helpers"},
		Kind:            model.RecordKindDirectory,
		TotalFiles:      1,
		TotalSizeBytes:  10,
		LastUpdated:     time.Now().UTC(),
	}
	require.NoError(t, w.WriteRecord(rec))

	data, err := os.ReadFile(filepath.Join(root, "utils", "utils.github.json"))
	require.NoError(t, err)

	var got model.DirectoryRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.Files, got.Files)
	assert.Equal(t, "directory", got.Kind)
}

func TestWriteRecordRootHasNullParent(t *testing.T) {
	root := t.TempDir()
	w := NewMetadataWriter(root, "github", nil)

	rec := &model.DirectoryRecord{
		Name:           "server",
		Path:           "",
		Files:          []model.FileStat{},
		Subdirectories: []string{},
		Kind:           model.RecordKindDirectory,
	}
	require.NoError(t, w.WriteRecord(rec))

	data, err := os.ReadFile(filepath.Join(root, "server.github.json"))
	require.NoError(t, err)

	// JSON null, not "" — consumers distinguish roots from empty-named parents
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "null", string(raw["parentDirectory"]))
	assert.Equal(t, "[]", string(raw["files"]))
	assert.Equal(t, "[]", string(raw["subdirectories"]))
}

func TestWriteFile(t *testing.T) {
	root := t.TempDir()
	w := NewMetadataWriter(root, "github", nil)

	require.NoError(t, w.WriteFile("utils", "a.go", []byte("package utils\n")))

	data, err := os.ReadFile(filepath.Join(root, "utils", "a.go"))
	require.NoError(t, err)
	assert.Equal(t, "package utils\n", string(data))
}
