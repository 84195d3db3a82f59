package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/FranksOps/gleaner/internal/storage"
)

func TestPostgresBackend(t *testing.T) {
	// Only run this test if GLEANER_TEST_PG_DSN is set
	dsn := os.Getenv("GLEANER_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres backend test: GLEANER_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	b, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create Postgres backend: %v", err)
	}
	defer b.Close()

	now := time.Now().UTC()

	kw := &storage.Keyword{
		ID:            "testpg1234",
		Keyword:       "red shoes for men pg",
		Relevance:     650,
		Type:          storage.TypeQuery,
		Depth:         1,
		ParentKeyword: "red shoes",
		SourceQuery:   "red shoes for",
		DiscoveredAt:  now,
	}

	if err := b.Save(ctx, kw); err != nil {
		t.Fatalf("Failed to save keyword: %v", err)
	}

	// Saving the same keyword again must be a no-op.
	dup := *kw
	dup.ID = "testpg5678"
	dup.Relevance = 1
	if err := b.Save(ctx, &dup); err != nil {
		t.Fatalf("Failed to save duplicate keyword: %v", err)
	}

	results, err := b.Query(ctx, storage.Filter{KeywordPrefix: "red shoes for men pg"})
	if err != nil {
		t.Fatalf("Failed to query keywords: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected exactly 1 result, got %d", len(results))
	}

	got := results[0]
	if got.ID != kw.ID {
		t.Errorf("Expected ID %s, got %s", kw.ID, got.ID)
	}
	if got.Keyword != kw.Keyword {
		t.Errorf("Expected keyword %s, got %s", kw.Keyword, got.Keyword)
	}
	if got.Relevance != kw.Relevance {
		t.Errorf("First insert should win, got relevance %d", got.Relevance)
	}
	if got.ParentKeyword != kw.ParentKeyword || got.SourceQuery != kw.SourceQuery {
		t.Errorf("Lineage fields wrong: %+v", got)
	}

	// Postgres timestamps might differ slightly in sub-millisecond precision
	// compared to Go time.Now(), checking Unix seconds is usually safe enough
	if got.DiscoveredAt.Unix() != kw.DiscoveredAt.Unix() {
		t.Errorf("Expected DiscoveredAt %v, got %v", kw.DiscoveredAt, got.DiscoveredAt)
	}

	depth1 := 1
	resultsDepth, err := b.Query(ctx, storage.Filter{KeywordPrefix: "red shoes for men pg", Depth: &depth1})
	if err != nil {
		t.Fatalf("Failed to query with depth filter: %v", err)
	}
	if len(resultsDepth) != 1 {
		t.Fatalf("Expected 1 result with depth filter, got %d", len(resultsDepth))
	}
}
