package model

import "time"

// EntryKind classifies one item of a directory listing
type EntryKind string

const (
	KindFile      EntryKind = "file"
	KindDirectory EntryKind = "dir"
)

// Repository represents a source code repository linked from a directory entry
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	ID     string `json:"id,omitempty"`
}

// EntryStats carries the popularity counters some directories expose per server
type EntryStats struct {
	ToolsCount      int `json:"toolsCount,omitempty"`
	WeeklyDownloads int `json:"weeklyDownloads,omitempty"`
	GithubStars     int `json:"githubStars,omitempty"`
}

// ServerEntry is one normalized record scraped from an MCP directory.
// ID is assigned by the catalog when the entry is first recorded.
type ServerEntry struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name" minLength:"1" maxLength:"200"`
	Description string      `json:"description,omitempty"`
	Repository  Repository  `json:"repository,omitempty"`
	Version     string      `json:"version,omitempty"`
	DetailURL   string      `json:"detailUrl,omitempty"`
	Categories  []string    `json:"categories,omitempty"`
	Stats       *EntryStats `json:"stats,omitempty"`
	Source      string      `json:"source"`
	FirstSeenAt time.Time   `json:"firstSeenAt,omitempty"`
	CrawledAt   time.Time   `json:"crawledAt"`
}

// DirectoryEntry is one decoded item of a GitHub contents-API listing.
// Ephemeral: produced per response item, never persisted directly.
type DirectoryEntry struct {
	Kind        EntryKind `json:"type"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	DownloadURL string    `json:"download_url,omitempty"`
	SizeBytes   int64     `json:"size,omitempty"`
}

// FileStat describes one direct file child of a mirrored directory
type FileStat struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"sizeBytes"`
}

// RecordKindDirectory is the fixed kind tag of a DirectoryRecord
const RecordKindDirectory = "directory"

// DirectoryRecord is the per-directory metadata persisted alongside mirrored
// file contents. ParentDirectory is nil for roots, never the empty string,
// so consumers can tell "is a root" from "has an empty-named parent".
// Rollups cover direct file children only.
type DirectoryRecord struct {
	Name            string     `json:"name"`
	Path            string     `json:"path"`
	SourceURL       string     `json:"sourceUrl"`
	Files           []FileStat `json:"files"`
	ParentDirectory *string    `json:"parentDirectory"`
	Subdirectories  []string   `json:"subdirectories"`
	Kind            string     `json:"kind"`
	TotalFiles      int        `json:"totalFiles"`
	TotalSizeBytes  int64      `json:"totalSizeBytes"`
	LastUpdated     time.Time  `json:"lastUpdated"`
}
