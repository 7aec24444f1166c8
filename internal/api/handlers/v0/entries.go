// Package v0 contains the catalog read API handlers
package v0

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/modelcontextprotocol/crawler/internal/database"
	"github.com/modelcontextprotocol/crawler/internal/service"
	apiv0 "github.com/modelcontextprotocol/crawler/pkg/api/v0"
	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// Response wraps a body for huma
type Response[T any] struct {
	Body T
}

// ListEntriesInput represents the input for listing cataloged entries
type ListEntriesInput struct {
	Cursor string `query:"cursor" doc:"Pagination cursor (entry ID)" required:"false"`
	Limit  int    `query:"limit" doc:"Number of items per page" minimum:"1" maximum:"100" default:"30" required:"false"`
	Source string `query:"source" doc:"Filter by directory source tag" required:"false"`
	Search string `query:"search" doc:"Substring match on entry name" required:"false"`
}

// GetEntryInput identifies one cataloged entry by source and name
type GetEntryInput struct {
	Source string `path:"source" doc:"Directory source tag"`
	Name   string `path:"name" doc:"URL-encoded entry name"`
}

// RegisterEntriesEndpoints registers the catalog read endpoints
func RegisterEntriesEndpoints(api huma.API, catalog service.CatalogService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-entries",
		Method:      http.MethodGet,
		Path:        "/v0/entries",
		Summary:     "List cataloged entries",
		Description: "Cursor-paginated listing of entries scraped from MCP directories",
		Tags:        []string{"entries"},
	}, func(ctx context.Context, input *ListEntriesInput) (*Response[apiv0.EntryListResponse], error) {
		filter := &database.EntryFilter{}
		if input.Source != "" {
			filter.Source = &input.Source
		}
		if input.Search != "" {
			filter.SubstringName = &input.Search
		}

		entries, nextCursor, err := catalog.List(ctx, filter, input.Cursor, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list entries", err)
		}

		out := make([]model.ServerEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, *e)
		}
		return &Response[apiv0.EntryListResponse]{
			Body: apiv0.EntryListResponse{
				Entries: out,
				Metadata: apiv0.Metadata{
					NextCursor: nextCursor,
					Count:      len(out),
				},
			},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-entry",
		Method:      http.MethodGet,
		Path:        "/v0/entries/{source}/{name}",
		Summary:     "Get a cataloged entry",
		Tags:        []string{"entries"},
	}, func(ctx context.Context, input *GetEntryInput) (*Response[model.ServerEntry], error) {
		name, err := url.PathUnescape(input.Name)
		if err != nil {
			return nil, huma.Error400BadRequest("Invalid entry name encoding", err)
		}

		entry, err := catalog.GetByName(ctx, input.Source, name)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, huma.Error404NotFound("Entry not found")
			}
			return nil, huma.Error500InternalServerError("Failed to get entry", err)
		}
		return &Response[model.ServerEntry]{Body: *entry}, nil
	})
}
