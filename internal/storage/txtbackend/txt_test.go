package txtbackend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FranksOps/gleaner/internal/storage"
)

func TestTxtBackend_PlainLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.txt")
	b, err := New(path, Options{})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	_ = b.SaveAll(context.Background(), []*storage.Keyword{
		{Keyword: "red shoes", Relevance: 800},
		{Keyword: "red shoes for men", Relevance: 600},
	})
	b.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	want := "red shoes\nred shoes for men\n"
	if string(data) != want {
		t.Errorf("file content = %q, want %q", data, want)
	}
}

func TestTxtBackend_HeaderCommented(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.txt")
	b, err := New(path, Options{Header: "language: en, country: us\ntotal keywords: 2"})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	_ = b.Save(context.Background(), &storage.Keyword{Keyword: "red shoes"})
	b.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# language: en, country: us\n# total keywords: 2\n# generated: ") {
		t.Errorf("header not commented as expected:\n%s", content)
	}
	if !strings.HasSuffix(content, "\nred shoes\n") {
		t.Errorf("keyword lines missing:\n%s", content)
	}
}

func TestTxtBackend_ScoresSuffix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.txt")
	b, err := New(path, Options{IncludeScores: true})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	_ = b.Save(ctx, &storage.Keyword{Keyword: "red shoes", Relevance: 800, Depth: 1})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(data) != "red shoes (relevance: 800, depth: 1)\n" {
		t.Errorf("file content = %q", data)
	}

	// Query strips the suffix back off.
	got, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].Keyword != "red shoes" {
		t.Fatalf("Query did not strip the score suffix: %+v", got)
	}
}

func TestTxtBackend_QuerySkipsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.txt")
	b, err := New(path, Options{Header: "run summary"})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	_ = b.SaveAll(ctx, []*storage.Keyword{
		{Keyword: "red shoes"},
		{Keyword: "blue shoes"},
	})

	got, err := b.Query(ctx, storage.Filter{KeywordPrefix: "red"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].Keyword != "red shoes" {
		t.Fatalf("unexpected query result: %+v", got)
	}
}
