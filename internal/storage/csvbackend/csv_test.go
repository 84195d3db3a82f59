package csvbackend

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/gleaner/internal/storage"
)

func testKeyword(keyword string, relevance, depth int) *storage.Keyword {
	return &storage.Keyword{
		ID:           keyword + "-id",
		Keyword:      keyword,
		Relevance:    relevance,
		Type:         storage.TypeQuery,
		Depth:        depth,
		SourceQuery:  keyword[:1],
		DiscoveredAt: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}
}

func TestCSVBackend_HeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.csv")

	b, err := New(path)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	_ = b.Save(context.Background(), testKeyword("red shoes", 800, 0))
	b.Close()

	// Reopening an existing file must not duplicate the header.
	b, err = New(path)
	if err != nil {
		t.Fatalf("failed to reopen backend: %v", err)
	}
	_ = b.Save(context.Background(), testKeyword("blue shoes", 700, 0))
	b.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open file: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2 records", len(rows))
	}
	if rows[0][0] != "keyword" || rows[0][1] != "relevance" {
		t.Errorf("unexpected header row: %v", rows[0])
	}
	if rows[1][0] != "red shoes" || rows[2][0] != "blue shoes" {
		t.Errorf("unexpected data rows: %v / %v", rows[1], rows[2])
	}
}

func TestCSVBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.csv")
	b, err := New(path)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	want := testKeyword("red shoes for men", 650, 2)
	want.ParentKeyword = "red shoes"
	if err := b.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d keywords, want 1", len(got))
	}

	k := got[0]
	if k.Keyword != want.Keyword || k.Relevance != want.Relevance || k.Depth != want.Depth ||
		k.ParentKeyword != want.ParentKeyword || k.ID != want.ID || k.Type != want.Type {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", k, want)
	}
	if !k.DiscoveredAt.Equal(want.DiscoveredAt) {
		t.Errorf("timestamp mismatch: got %v, want %v", k.DiscoveredAt, want.DiscoveredAt)
	}
}

func TestCSVBackend_QueryOrderAndPaging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.csv")
	b, err := New(path)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	_ = b.SaveAll(ctx, []*storage.Keyword{
		testKeyword("low", 100, 0),
		testKeyword("high", 900, 0),
		testKeyword("mid", 500, 0),
	})

	got, err := b.Query(ctx, storage.Filter{Limit: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 || got[0].Keyword != "high" || got[1].Keyword != "mid" {
		t.Fatalf("order/limit wrong: %+v", got)
	}
}
