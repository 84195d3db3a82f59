package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FranksOps/gleaner/internal/storage"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS keywords (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	keyword TEXT NOT NULL UNIQUE,
	relevance INTEGER NOT NULL,
	type TEXT NOT NULL,
	depth INTEGER NOT NULL,
	parent_keyword TEXT,
	source_query TEXT,
	discovered_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_keywords_relevance ON keywords(relevance DESC, seq ASC);
`

const insertSQL = `
INSERT INTO keywords (
	id, keyword, relevance, type, depth, parent_keyword, source_query, discovered_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (keyword) DO NOTHING
`

// New creates a Postgres-backed keyword store.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, kw *storage.Keyword) error {
	_, err := b.pool.Exec(ctx, insertSQL,
		kw.ID, kw.Keyword, kw.Relevance, kw.Type, kw.Depth,
		kw.ParentKeyword, kw.SourceQuery, kw.DiscoveredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert keyword: %w", err)
	}
	return nil
}

func (b *postgresBackend) SaveAll(ctx context.Context, kws []*storage.Keyword) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, kw := range kws {
		if _, err := tx.Exec(ctx, insertSQL,
			kw.ID, kw.Keyword, kw.Relevance, kw.Type, kw.Depth,
			kw.ParentKeyword, kw.SourceQuery, kw.DiscoveredAt,
		); err != nil {
			return fmt.Errorf("failed to insert keyword %q: %w", kw.Keyword, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Keyword, error) {
	query := `SELECT id, keyword, relevance, type, depth, parent_keyword, source_query, discovered_at FROM keywords WHERE 1=1`
	args := []any{}

	if filter.KeywordPrefix != "" {
		args = append(args, filter.KeywordPrefix+"%")
		query += fmt.Sprintf(` AND keyword LIKE $%d`, len(args))
	}
	if filter.MinRelevance > 0 {
		args = append(args, filter.MinRelevance)
		query += fmt.Sprintf(` AND relevance >= $%d`, len(args))
	}
	if filter.Depth != nil {
		args = append(args, *filter.Depth)
		query += fmt.Sprintf(` AND depth = $%d`, len(args))
	}
	if filter.Parent != "" {
		args = append(args, filter.Parent)
		query += fmt.Sprintf(` AND parent_keyword = $%d`, len(args))
	}

	// seq preserves insertion order for equal relevance
	query += ` ORDER BY relevance DESC, seq ASC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []*storage.Keyword
	for rows.Next() {
		var k storage.Keyword
		if err := rows.Scan(
			&k.ID, &k.Keyword, &k.Relevance, &k.Type, &k.Depth,
			&k.ParentKeyword, &k.SourceQuery, &k.DiscoveredAt,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		results = append(results, &k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows failed: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
