// Package sources adapts external MCP server directories to a common
// paginated listing interface the crawler engine can drive.
package sources

import (
	"context"

	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// Page is one batch of entries from a directory listing
type Page struct {
	Entries    []model.ServerEntry
	NextCursor string
}

// Source is one crawlable MCP directory. FetchPage returns (nil, nil)
// when the cursor points past the end of data.
type Source interface {
	// Name is the short tag entries from this directory are labeled with
	Name() string
	// FetchPage retrieves one page; an empty cursor starts from the beginning
	FetchPage(ctx context.Context, cursor string) (*Page, error)
}
