package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// MemoryDB is an in-memory implementation of the Database interface,
// used for tests and token-free local runs.
type MemoryDB struct {
	entries map[string]*model.ServerEntry // keyed by entry ID
	mu      sync.RWMutex
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		entries: make(map[string]*model.ServerEntry),
	}
}

func (db *MemoryDB) CreateEntry(ctx context.Context, entry *model.ServerEntry) (*model.ServerEntry, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if entry.ID == "" {
		return nil, fmt.Errorf("%w: entry must have an ID", ErrInvalidInput)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.entries[entry.ID]; exists {
		return nil, ErrAlreadyExists
	}
	entryCopy := *entry
	db.entries[entry.ID] = &entryCopy
	return entry, nil
}

func (db *MemoryDB) UpdateEntry(ctx context.Context, id string, entry *model.ServerEntry) (*model.ServerEntry, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if entry.ID != id {
		return nil, fmt.Errorf("%w: entry ID must match path id (%s)", ErrInvalidInput, id)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.entries[id]; !exists {
		return nil, ErrNotFound
	}
	entryCopy := *entry
	db.entries[id] = &entryCopy
	return entry, nil
}

func (db *MemoryDB) List(ctx context.Context, filter *EntryFilter, cursor string, limit int) ([]*model.ServerEntry, string, error) {
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	if limit <= 0 {
		limit = 10
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	var all []*model.ServerEntry
	for _, entry := range db.entries {
		if matchesFilter(entry, filter) {
			all = append(all, entry)
		}
	}

	// Sort by ID for stable cursor pagination
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	startIdx := 0
	if cursor != "" {
		for i, entry := range all {
			if entry.ID == cursor {
				startIdx = i + 1
				break
			}
		}
	}

	endIdx := min(startIdx+limit, len(all))

	result := []*model.ServerEntry{}
	if startIdx < len(all) {
		for _, entry := range all[startIdx:endIdx] {
			entryCopy := *entry
			result = append(result, &entryCopy)
		}
	}

	nextCursor := ""
	if endIdx < len(all) && len(result) > 0 {
		nextCursor = result[len(result)-1].ID
	}

	return result, nextCursor, nil
}

func (db *MemoryDB) GetByName(ctx context.Context, source, name string) (*model.ServerEntry, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, entry := range db.entries {
		if entry.Source == source && entry.Name == name {
			entryCopy := *entry
			return &entryCopy, nil
		}
	}
	return nil, ErrNotFound
}

// For an in-memory database, this is a no-op
func (db *MemoryDB) Close() error {
	return nil
}

func matchesFilter(entry *model.ServerEntry, filter *EntryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Name != nil && entry.Name != *filter.Name {
		return false
	}
	if filter.Source != nil && entry.Source != *filter.Source {
		return false
	}
	if filter.SubstringName != nil &&
		!strings.Contains(strings.ToLower(entry.Name), strings.ToLower(*filter.SubstringName)) {
		return false
	}
	if filter.CrawledSince != nil && !entry.CrawledAt.After(*filter.CrawledSince) {
		return false
	}
	return true
}
