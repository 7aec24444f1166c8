package database

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// Common database errors
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabase      = errors.New("database error")
)

// EntryFilter defines filtering options for catalog queries
type EntryFilter struct {
	Name          *string    // exact entry name
	Source        *string    // entries scraped from one directory
	SubstringName *string    // substring search on name
	CrawledSince  *time.Time // incremental consumers
}

// Database defines the interface for catalog storage
type Database interface {
	// CreateEntry inserts a new crawled entry; the entry must carry an ID
	CreateEntry(ctx context.Context, entry *model.ServerEntry) (*model.ServerEntry, error)
	// UpdateEntry replaces the entry stored under id
	UpdateEntry(ctx context.Context, id string, entry *model.ServerEntry) (*model.ServerEntry, error)
	// List retrieves entries with cursor-based pagination and filtering
	List(ctx context.Context, filter *EntryFilter, cursor string, limit int) ([]*model.ServerEntry, string, error)
	// GetByName retrieves the entry scraped from source under name
	GetByName(ctx context.Context, source, name string) (*model.ServerEntry, error)
	// Close closes the underlying connection
	Close() error
}
