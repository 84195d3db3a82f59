// Package txtbackend writes keywords as plain text, one per line, for
// piping into other SEO tooling. Querying it back yields keyword-only
// records; the richer backends keep the full metadata.
package txtbackend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/FranksOps/gleaner/internal/storage"
)

// ensure txtBackend implements storage.Backend
var _ storage.Backend = (*txtBackend)(nil)

// Options controls the text output.
type Options struct {
	// Header writes a commented metadata block when the file is created.
	Header string
	// IncludeScores appends "(relevance: N, depth: D)" after each keyword.
	IncludeScores bool
}

type txtBackend struct {
	mu   sync.Mutex
	file *os.File
	opts Options
}

// New creates a plain-text keyword store.
func New(filePath string, opts Options) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	if info.Size() == 0 && opts.Header != "" {
		var sb strings.Builder
		for _, line := range strings.Split(strings.TrimRight(opts.Header, "\n"), "\n") {
			sb.WriteString("# ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("# generated: ")
		sb.WriteString(time.Now().UTC().Format(time.RFC3339))
		sb.WriteString("\n\n")
		if _, err := f.WriteString(sb.String()); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	return &txtBackend{file: f, opts: opts}, nil
}

func (b *txtBackend) Save(ctx context.Context, kw *storage.Keyword) error {
	return b.SaveAll(ctx, []*storage.Keyword{kw})
}

func (b *txtBackend) SaveAll(ctx context.Context, kws []*storage.Keyword) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	w := bufio.NewWriter(b.file)
	for _, kw := range kws {
		if b.opts.IncludeScores {
			fmt.Fprintf(w, "%s (relevance: %d, depth: %d)\n", kw.Keyword, kw.Relevance, kw.Depth)
		} else {
			fmt.Fprintln(w, kw.Keyword)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write keywords: %w", err)
	}
	return nil
}

func (b *txtBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Keyword, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek: %w", err)
	}
	defer func() {
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	var matched []*storage.Keyword
	scanner := bufio.NewScanner(b.file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Strip the optional score suffix
		if idx := strings.LastIndex(line, " (relevance:"); idx > 0 {
			line = line[:idx]
		}
		k := &storage.Keyword{Keyword: line, Type: storage.TypeQuery}
		if filter.Match(k) {
			matched = append(matched, k)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}

	return filter.Page(matched), nil
}

func (b *txtBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
