package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/modelcontextprotocol/crawler/internal/mirror"
	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// SourceNameMCPRegistry tags entries scraped from the official registry
const SourceNameMCPRegistry = "mcpregistry"

// MCPRegistry crawls the official MCP registry's /v0/servers endpoint,
// which paginates with an opaque cursor.
type MCPRegistry struct {
	baseURL string
	fetcher *mirror.Fetcher
}

func NewMCPRegistry(baseURL string, fetcher *mirror.Fetcher) *MCPRegistry {
	return &MCPRegistry{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
	}
}

func (r *MCPRegistry) Name() string {
	return SourceNameMCPRegistry
}

// registryResponse mirrors the registry's list payload. Items arrive
// either flat or wrapped in a "server" envelope depending on API
// revision, so each one is decoded leniently.
type registryResponse struct {
	Servers  []json.RawMessage `json:"servers"`
	Metadata struct {
		NextCursor      string `json:"nextCursor"`
		NextCursorSnake string `json:"next_cursor"`
	} `json:"metadata"`
}

type registryServer struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Version     string           `json:"version"`
	Repository  model.Repository `json:"repository"`
}

type registryItem struct {
	registryServer
	Server *registryServer `json:"server"`
}

func (r *MCPRegistry) FetchPage(ctx context.Context, cursor string) (*Page, error) {
	u := r.baseURL + "/v0/servers"
	if cursor != "" {
		u += "?cursor=" + url.QueryEscape(cursor)
	}

	var resp registryResponse
	ok, err := r.fetcher.FetchJSON(ctx, u, &resp)
	if err != nil {
		return nil, fmt.Errorf("registry page %q: %w", cursor, err)
	}
	if !ok || len(resp.Servers) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	page := &Page{NextCursor: resp.Metadata.NextCursor}
	if page.NextCursor == "" {
		page.NextCursor = resp.Metadata.NextCursorSnake
	}

	for _, raw := range resp.Servers {
		var item registryItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("registry page %q: %w", cursor, err)
		}
		srv := item.registryServer
		if item.Server != nil {
			srv = *item.Server
		}
		page.Entries = append(page.Entries, model.ServerEntry{
			Name:        srv.Name,
			Description: srv.Description,
			Version:     srv.Version,
			Repository:  srv.Repository,
			Source:      SourceNameMCPRegistry,
			CrawledAt:   now,
		})
	}
	return page, nil
}
