// Package report renders harvest output for humans and for export: a
// statistics dashboard, the full JSON export document, and the run
// configuration summary printed before a harvest starts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/template"
	"time"

	"github.com/FranksOps/gleaner/internal/harvester"
	"github.com/FranksOps/gleaner/internal/storage"
)

// Meta describes the run that produced a keyword set.
type Meta struct {
	Language    string    `json:"language"`
	Country     string    `json:"country"`
	DomainScope string    `json:"domain_specific,omitempty"`
	MaxDepth    int       `json:"max_depth"`
	Seeds       []string  `json:"seeds"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Document is the full JSON export: metadata, statistics, and every
// keyword in ranked order.
type Document struct {
	Metadata struct {
		Meta
		Statistics harvester.Stats `json:"statistics"`
	} `json:"metadata"`
	Keywords []*storage.Keyword `json:"keywords"`
}

// WriteDocument writes the full export document as indented JSON.
func WriteDocument(w io.Writer, meta Meta, stats harvester.Stats, keywords []*storage.Keyword) error {
	var doc Document
	doc.Metadata.Meta = meta
	doc.Metadata.Statistics = stats
	doc.Keywords = keywords
	if doc.Keywords == nil {
		doc.Keywords = []*storage.Keyword{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return nil
}

// WriteStatsJSON writes the statistics alone as indented JSON.
func WriteStatsJSON(w io.Writer, stats harvester.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	return nil
}

const statsTmpl = `Harvest Statistics
------------------
Total keywords:     {{.Stats.TotalKeywords}}
Unique keywords:    {{.Stats.UniqueKeywords}}
Average relevance:  {{printf "%.2f" .Stats.AverageRelevance}}
Average length:     {{printf "%.1f" .Stats.AverageLength}} chars
Average word count: {{printf "%.1f" .Stats.AverageWordCount}}
Long-tail share:    {{printf "%.1f" .Stats.LongTailPercentage}}%

Keywords by depth:
{{- range $depth := .Depths}}
  depth {{$depth}}: {{index $.Stats.DepthDistribution $depth}}
{{- else}}
  None
{{- end}}

Top keywords:
{{- range $i, $k := .Stats.TopKeywords}}
  {{printf "%2d" (inc $i)}}. {{$k.Keyword}} (relevance: {{$k.Relevance}}, depth: {{$k.Depth}})
{{- else}}
  None
{{- end}}
`

// WriteStatsText writes a human-readable statistics dashboard.
func WriteStatsText(w io.Writer, stats harvester.Stats) error {
	t, err := template.New("stats").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(statsTmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	data := struct {
		Stats  harvester.Stats
		Depths []int
	}{Stats: stats, Depths: sortedDepths(stats.DepthDistribution)}

	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render stats: %w", err)
	}
	return nil
}

// ConfigSummary is the table printed before a harvest starts.
type ConfigSummary struct {
	Seeds           int
	Language        string
	Country         string
	Site            string
	MaxDepth        int
	MinRelevance    int
	MaxPerSeed      int
	Alphabet        bool
	Numbers         bool
	Questions       bool
	Prepositions    bool
	Recursive       bool
	Delay           time.Duration
	ExportFormat    string
	OutputPath      string
	StoreConfigured bool
}

const summaryTmpl = `Harvest Configuration
---------------------
Seed keywords:   {{.Seeds}}
Language:        {{.Language}}
Country:         {{.Country}}
Site:            {{.Site}}
Max depth:       {{.MaxDepth}}
Min relevance:   {{.MinRelevance}}
Cap per seed:    {{.MaxPerSeed}}
Alphabet a-z:    {{.Alphabet}}
Numbers 0-9:     {{.Numbers}}
Questions:       {{.Questions}}
Prepositions:    {{.Prepositions}}
Recursive:       {{.Recursive}}
Request delay:   {{.Delay}}
Export:          {{.ExportFormat}} -> {{.OutputPath}}
Store:           {{if .StoreConfigured}}configured{{else}}none{{end}}
`

// WriteConfigSummary renders the run configuration table.
func WriteConfigSummary(w io.Writer, s ConfigSummary) error {
	t, err := template.New("summary").Parse(summaryTmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	if err := t.Execute(w, s); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return nil
}

// ZeroResultGuidance explains the likely causes of an empty harvest.
// An empty run is diagnosed, not treated as an error.
const ZeroResultGuidance = `No keywords were harvested. Common causes:
  - rate limiting: the autocomplete endpoint may be throttling this IP;
    raise --delay or try again later
  - connectivity: verify outbound HTTPS access and any proxy settings
  - seed quality: very niche or misspelled seeds return few suggestions;
    try broader seeds or lower --min-relevance
`

func sortedDepths(dist map[int]int) []int {
	depths := make([]int, 0, len(dist))
	for d := range dist {
		depths = append(depths, d)
	}
	sort.Ints(depths)
	return depths
}
