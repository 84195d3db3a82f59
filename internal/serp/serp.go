// Package serp scrapes search-engine result pages into structured
// records: organic results, related searches, and "people also ask"
// questions.
package serp

import (
	"context"
	"time"
)

// Result is one organic search result.
type Result struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet,omitempty"`
}

// Page holds everything extracted from a single results page.
type Page struct {
	Keyword         string    `json:"keyword"`
	PageNumber      int       `json:"page_number"`
	Organic         []Result  `json:"organic_results"`
	RelatedSearches []string  `json:"related_keywords"`
	PeopleAlsoAsk   []string  `json:"people_also_ask"`
	Blocked         bool      `json:"blocked"`
	BlockSource     string    `json:"block_source,omitempty"`
	ScrapedAt       time.Time `json:"scraped_at"`
}

// Provider abstracts a search engine that can return result pages for a
// query. Implementations may scrape, use official APIs, or otherwise.
type Provider interface {
	Search(ctx context.Context, query string, pages int) ([]*Page, error)
}
