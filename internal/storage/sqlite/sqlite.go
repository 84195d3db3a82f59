package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/FranksOps/gleaner/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS keywords (
	id TEXT PRIMARY KEY,
	keyword TEXT NOT NULL UNIQUE,
	relevance INTEGER NOT NULL,
	type TEXT NOT NULL,
	depth INTEGER NOT NULL,
	parent_keyword TEXT,
	source_query TEXT,
	discovered_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_keywords_relevance ON keywords(relevance DESC);
`

// New creates a SQLite-backed keyword store.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, kw *storage.Keyword) error {
	query := `
	INSERT INTO keywords (
		id, keyword, relevance, type, depth, parent_keyword, source_query, discovered_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(keyword) DO NOTHING
	`

	_, err := b.db.ExecContext(ctx, query,
		kw.ID,
		kw.Keyword,
		kw.Relevance,
		kw.Type,
		kw.Depth,
		kw.ParentKeyword,
		kw.SourceQuery,
		kw.DiscoveredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert keyword: %w", err)
	}
	return nil
}

func (b *sqliteBackend) SaveAll(ctx context.Context, kws []*storage.Keyword) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO keywords (
		id, keyword, relevance, type, depth, parent_keyword, source_query, discovered_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(keyword) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, kw := range kws {
		if _, err := stmt.ExecContext(ctx,
			kw.ID, kw.Keyword, kw.Relevance, kw.Type, kw.Depth,
			kw.ParentKeyword, kw.SourceQuery, kw.DiscoveredAt,
		); err != nil {
			return fmt.Errorf("failed to insert keyword %q: %w", kw.Keyword, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Keyword, error) {
	query := `SELECT id, keyword, relevance, type, depth, parent_keyword, source_query, discovered_at FROM keywords WHERE 1=1`
	args := []any{}

	if filter.KeywordPrefix != "" {
		query += ` AND keyword LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(filter.KeywordPrefix)+"%")
	}
	if filter.MinRelevance > 0 {
		query += ` AND relevance >= ?`
		args = append(args, filter.MinRelevance)
	}
	if filter.Depth != nil {
		query += ` AND depth = ?`
		args = append(args, *filter.Depth)
	}
	if filter.Parent != "" {
		query += ` AND parent_keyword = ?`
		args = append(args, filter.Parent)
	}

	// rowid preserves insertion order for equal relevance
	query += ` ORDER BY relevance DESC, rowid ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += ` LIMIT -1`
		}
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []*storage.Keyword
	for rows.Next() {
		var k storage.Keyword
		var discoveredAt time.Time
		if err := rows.Scan(
			&k.ID, &k.Keyword, &k.Relevance, &k.Type, &k.Depth,
			&k.ParentKeyword, &k.SourceQuery, &discoveredAt,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		k.DiscoveredAt = discoveredAt
		results = append(results, &k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows failed: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
