package storage

import (
	"context"
	"strings"
	"time"
)

// TypeQuery is the only suggestion type Google Autocomplete emits today.
// The column is kept in exports so downstream consumers stay stable if
// other kinds (entities, navigation) ever appear.
const TypeQuery = "QUERY"

// Keyword represents one accepted autocomplete suggestion.
type Keyword struct {
	ID            string    `json:"id"`
	Keyword       string    `json:"keyword"`
	Relevance     int       `json:"relevance"`
	Type          string    `json:"type"`
	Depth         int       `json:"depth"`
	ParentKeyword string    `json:"parent_keyword"`
	SourceQuery   string    `json:"source_query"`
	DiscoveredAt  time.Time `json:"discovered_at"`
}

// Normalize lower-cases and trims a raw keyword. Every keyword stored or
// compared for deduplication goes through this.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// WordCount returns the number of whitespace-separated words in the keyword.
func (k *Keyword) WordCount() int {
	return len(strings.Fields(k.Keyword))
}

// LongTail reports whether the keyword has three or more words.
func (k *Keyword) LongTail() bool {
	return k.WordCount() >= 3
}

// Filter allows querying for specific Keywords.
type Filter struct {
	KeywordPrefix string
	MinRelevance  int
	Depth         *int
	Parent        string
	Limit         int
	Offset        int
}

// Backend defines the interface for storing and querying harvested keywords.
// Query results are ordered by relevance descending; equal relevance keeps
// insertion order.
type Backend interface {
	Save(ctx context.Context, kw *Keyword) error
	SaveAll(ctx context.Context, kws []*Keyword) error
	Query(ctx context.Context, filter Filter) ([]*Keyword, error)
	Close() error
}

// Match reports whether the keyword passes the filter's predicate fields.
// The file-based backends filter in memory with this.
func (f Filter) Match(k *Keyword) bool {
	if f.KeywordPrefix != "" && !strings.HasPrefix(k.Keyword, f.KeywordPrefix) {
		return false
	}
	if k.Relevance < f.MinRelevance {
		return false
	}
	if f.Depth != nil && k.Depth != *f.Depth {
		return false
	}
	if f.Parent != "" && k.ParentKeyword != f.Parent {
		return false
	}
	return true
}

// Page applies offset/limit slicing to an already ordered result set.
func (f Filter) Page(kws []*Keyword) []*Keyword {
	if f.Offset > 0 {
		if f.Offset >= len(kws) {
			return []*Keyword{}
		}
		kws = kws[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(kws) {
		kws = kws[:f.Limit]
	}
	return kws
}
