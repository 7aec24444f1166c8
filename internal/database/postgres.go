package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// PostgreSQL is an implementation of the Database interface backed by a
// pgx connection pool. The whole entry is stored as JSONB; source and
// name are lifted into columns for the upsert identity.
type PostgreSQL struct {
	pool *pgxpool.Pool
}

const migrateSQL = `
CREATE TABLE IF NOT EXISTS crawl_entries (
	id     UUID PRIMARY KEY,
	source TEXT NOT NULL,
	name   TEXT NOT NULL,
	value  JSONB NOT NULL,
	UNIQUE (source, name)
);
CREATE INDEX IF NOT EXISTS idx_crawl_entries_source ON crawl_entries (source);
`

// NewPostgreSQL connects, verifies the connection and applies the schema
func NewPostgreSQL(ctx context.Context, connectionURI string) (*PostgreSQL, error) {
	config, err := pgxpool.ParseConfig(connectionURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL config: %w", err)
	}

	// Stability-focused pool defaults
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = 30 * time.Minute
	config.MaxConnLifetime = 2 * time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	if _, err := pool.Exec(ctx, migrateSQL); err != nil {
		return nil, fmt.Errorf("failed to run catalog migration: %w", err)
	}

	return &PostgreSQL{pool: pool}, nil
}

func (db *PostgreSQL) CreateEntry(ctx context.Context, entry *model.ServerEntry) (*model.ServerEntry, error) {
	if entry.ID == "" {
		return nil, fmt.Errorf("%w: entry must have an ID", ErrInvalidInput)
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	_, err = db.pool.Exec(ctx,
		"INSERT INTO crawl_entries (id, source, name, value) VALUES ($1, $2, $3, $4)",
		entry.ID, entry.Source, entry.Name, value)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return entry, nil
}

func (db *PostgreSQL) UpdateEntry(ctx context.Context, id string, entry *model.ServerEntry) (*model.ServerEntry, error) {
	if entry.ID != id {
		return nil, fmt.Errorf("%w: entry ID must match path id (%s)", ErrInvalidInput, id)
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	tag, err := db.pool.Exec(ctx,
		"UPDATE crawl_entries SET source = $2, name = $3, value = $4 WHERE id = $1",
		id, entry.Source, entry.Name, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return entry, nil
}

//nolint:cyclop // Filter assembly is repetitive but clear
func (db *PostgreSQL) List(ctx context.Context, filter *EntryFilter, cursor string, limit int) ([]*model.ServerEntry, string, error) {
	if limit <= 0 {
		limit = 10
	}

	var whereConditions []string
	args := []any{}
	argIndex := 1

	if filter != nil {
		if filter.Name != nil {
			whereConditions = append(whereConditions, fmt.Sprintf("name = $%d", argIndex))
			args = append(args, *filter.Name)
			argIndex++
		}
		if filter.Source != nil {
			whereConditions = append(whereConditions, fmt.Sprintf("source = $%d", argIndex))
			args = append(args, *filter.Source)
			argIndex++
		}
		if filter.SubstringName != nil {
			whereConditions = append(whereConditions, fmt.Sprintf("name ILIKE $%d", argIndex))
			args = append(args, "%"+*filter.SubstringName+"%")
			argIndex++
		}
		if filter.CrawledSince != nil {
			whereConditions = append(whereConditions, fmt.Sprintf("(value->>'crawledAt')::timestamptz > $%d", argIndex))
			args = append(args, *filter.CrawledSince)
			argIndex++
		}
	}

	if cursor != "" {
		if _, err := uuid.Parse(cursor); err != nil {
			return nil, "", fmt.Errorf("invalid cursor format: %w", err)
		}
		whereConditions = append(whereConditions, fmt.Sprintf("id > $%d", argIndex))
		args = append(args, cursor)
		argIndex++
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + strings.Join(whereConditions, " AND ")
	}

	query := fmt.Sprintf(
		"SELECT value FROM crawl_entries %s ORDER BY id LIMIT $%d",
		whereClause, argIndex)
	args = append(args, limit+1)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	defer rows.Close()

	var results []*model.ServerEntry
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrDatabase, err)
		}
		var entry model.ServerEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrDatabase, err)
		}
		results = append(results, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	nextCursor := ""
	if len(results) > limit {
		results = results[:limit]
		nextCursor = results[len(results)-1].ID
	}
	return results, nextCursor, nil
}

func (db *PostgreSQL) GetByName(ctx context.Context, source, name string) (*model.ServerEntry, error) {
	var value []byte
	err := db.pool.QueryRow(ctx,
		"SELECT value FROM crawl_entries WHERE source = $1 AND name = $2",
		source, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	var entry model.ServerEntry
	if err := json.Unmarshal(value, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return &entry, nil
}

func (db *PostgreSQL) Close() error {
	db.pool.Close()
	return nil
}
