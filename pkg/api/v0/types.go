package v0

import (
	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// Metadata represents pagination metadata
type Metadata struct {
	NextCursor string `json:"nextCursor,omitempty"`
	Count      int    `json:"count"`
}

// EntryListResponse represents the paginated catalog entry list response
type EntryListResponse struct {
	Entries  []model.ServerEntry `json:"entries"`
	Metadata Metadata            `json:"metadata"`
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
}
