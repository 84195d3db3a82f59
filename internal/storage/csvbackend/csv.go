package csvbackend

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/FranksOps/gleaner/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order.
var headers = []string{
	"keyword",
	"relevance",
	"type",
	"depth",
	"parent_keyword",
	"source_query",
	"discovered_at",
	"id",
}

// New creates a CSV-backed keyword store. A header row is written when
// the file is empty.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to flush header: %w", err)
		}
	}

	return &csvBackend{file: f}, nil
}

func record(kw *storage.Keyword) []string {
	return []string{
		kw.Keyword,
		strconv.Itoa(kw.Relevance),
		kw.Type,
		strconv.Itoa(kw.Depth),
		kw.ParentKeyword,
		kw.SourceQuery,
		kw.DiscoveredAt.Format(time.RFC3339Nano),
		kw.ID,
	}
}

func (b *csvBackend) Save(ctx context.Context, kw *storage.Keyword) error {
	return b.SaveAll(ctx, []*storage.Keyword{kw})
}

func (b *csvBackend) SaveAll(ctx context.Context, kws []*storage.Keyword) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	w := csv.NewWriter(b.file)
	for _, kw := range kws {
		if err := w.Write(record(kw)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Keyword, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek: %w", err)
	}
	defer func() {
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)

	// Header row
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return []*storage.Keyword{}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var matched []*storage.Keyword
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if len(row) != len(headers) {
			continue // skip malformed rows
		}

		relevance, _ := strconv.Atoi(row[1])
		depth, _ := strconv.Atoi(row[3])
		discoveredAt, _ := time.Parse(time.RFC3339Nano, row[6])

		k := &storage.Keyword{
			Keyword:       row[0],
			Relevance:     relevance,
			Type:          row[2],
			Depth:         depth,
			ParentKeyword: row[4],
			SourceQuery:   row[5],
			DiscoveredAt:  discoveredAt,
			ID:            row[7],
		}
		if filter.Match(k) {
			matched = append(matched, k)
		}
	}

	storage.SortByRelevance(matched)
	return filter.Page(matched), nil
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
