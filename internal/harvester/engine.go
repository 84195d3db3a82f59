// Package harvester implements the recursive keyword expansion engine: a
// bounded breadth-first search over autocomplete suggestions, seeded with
// user keywords and widened with modifier vocabularies.
package harvester

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/gleaner/internal/metrics"
	"github.com/FranksOps/gleaner/internal/storage"
	"github.com/FranksOps/gleaner/internal/suggest"
)

// Options bounds a harvest run.
type Options struct {
	// MaxDepth is the deepest BFS level that will be expanded (seeds are
	// depth 0, so 0 expands the seeds only).
	MaxDepth int
	// MaxPerSeed caps the total unique keywords at MaxPerSeed * len(seeds).
	// The cap is soft: the frontier keyword being processed when it trips
	// finishes its current suggestion batch.
	MaxPerSeed int
	// BatchSize is the number of modifier queries in flight at once
	// within a single vocabulary.
	BatchSize int
	// UseAlphabet appends a-z to depth-0 frontier keywords.
	UseAlphabet bool
	// UseNumbers appends 0-9 to depth-0 frontier keywords.
	UseNumbers bool
	// UseQuestions prepends question words at every depth.
	UseQuestions bool
	// UsePrepositions appends prepositions at every depth.
	UsePrepositions bool
	// Recursive enqueues discovered keywords for further expansion. When
	// false the run is a single pass over the seeds and MaxDepth has no
	// effect.
	Recursive bool
}

func (o Options) withDefaults() Options {
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	if o.MaxPerSeed <= 0 {
		o.MaxPerSeed = 100
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	return o
}

// Engine expands seed keywords through a suggestion source. An Engine is
// cheap and stateless between runs; all run state lives on the stack of
// Harvest, so one Engine may serve sequential runs but a single run has
// exactly one mutator and needs no locks.
type Engine struct {
	source suggest.Source
	opts   Options
	logger *slog.Logger
}

// New creates an expansion engine over the given suggestion source.
func New(source suggest.Source, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source: source,
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// entry is one frontier item awaiting expansion.
type entry struct {
	keyword string
	depth   int
}

// fetched pairs a raw candidate with the exact query that produced it.
type fetched struct {
	candidate   suggest.Candidate
	sourceQuery string
}

// Harvest runs the bounded BFS expansion and returns accepted keywords
// sorted by relevance descending (ties keep discovery order). A single
// failing query contributes zero suggestions and never aborts the run;
// the only error returned is the context's, and even then the results
// accumulated so far are returned alongside it.
func (e *Engine) Harvest(ctx context.Context, seeds []string) ([]*storage.Keyword, error) {
	seen := make(map[string]struct{})
	results := make([]*storage.Keyword, 0)
	var queue []entry

	for _, seed := range seeds {
		norm := storage.Normalize(seed)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		queue = append(queue, entry{keyword: norm, depth: 0})
	}

	limit := e.opts.MaxPerSeed * len(seeds)

	e.logger.Info("starting harvest",
		"seeds", len(queue),
		"max_depth", e.opts.MaxDepth,
		"recursive", e.opts.Recursive,
		"cap", limit,
	)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			storage.SortByRelevance(results)
			return results, err
		}

		current := queue[0]
		queue = queue[1:]

		// Entries are depth-filtered at enqueue time; this re-check is a
		// defensive invariant only.
		if current.depth > e.opts.MaxDepth {
			continue
		}

		suggestions := e.expand(ctx, current)

		tripped := false
		for _, f := range suggestions {
			norm := storage.Normalize(f.candidate.Keyword)
			if norm == "" || norm == current.keyword {
				metrics.KeywordsRejected.Inc()
				continue
			}
			if _, dup := seen[norm]; dup {
				metrics.KeywordsRejected.Inc()
				continue
			}

			results = append(results, &storage.Keyword{
				ID:            uuid.New().String(),
				Keyword:       norm,
				Relevance:     f.candidate.Relevance,
				Type:          storage.TypeQuery,
				Depth:         current.depth,
				ParentKeyword: current.keyword,
				SourceQuery:   f.sourceQuery,
				DiscoveredAt:  time.Now().UTC(),
			})
			seen[norm] = struct{}{}
			metrics.RecordAccepted(current.depth)

			if e.opts.Recursive && current.depth < e.opts.MaxDepth {
				queue = append(queue, entry{keyword: norm, depth: current.depth + 1})
			}

			if len(seen) >= limit {
				e.logger.Warn("suggestion cap reached, stopping expansion", "unique", len(seen), "cap", limit)
				metrics.BreakerTrips.Inc()
				queue = queue[:0]
				tripped = true
				break
			}
		}

		e.logger.Debug("expanded frontier keyword",
			"keyword", current.keyword,
			"depth", current.depth,
			"fetched", len(suggestions),
			"unique", len(seen),
		)

		if tripped {
			break
		}
	}

	e.logger.Info("harvest complete", "keywords", len(results), "unique", len(seen))

	storage.SortByRelevance(results)
	return results, nil
}

// expand gathers every suggestion batch for one frontier keyword: the
// base query first, then each enabled modifier vocabulary in a fixed
// order. One vocabulary's batches fully complete before the next starts
// so the source's rate limiting stays predictable.
func (e *Engine) expand(ctx context.Context, current entry) []fetched {
	out := e.fetch(ctx, current.keyword)

	// Single-letter and digit suffixes fan out 26+10 wide, so they only
	// run against the original seeds.
	if e.opts.UseAlphabet && current.depth == 0 {
		out = append(out, e.expandWithModifiers(ctx, current.keyword, suggest.Alphabet, suffix)...)
	}
	if e.opts.UseNumbers && current.depth == 0 {
		out = append(out, e.expandWithModifiers(ctx, current.keyword, suggest.Numbers, suffix)...)
	}
	if e.opts.UseQuestions {
		out = append(out, e.expandWithModifiers(ctx, current.keyword, suggest.QuestionWords, prefix)...)
	}
	if e.opts.UsePrepositions {
		out = append(out, e.expandWithModifiers(ctx, current.keyword, suggest.Prepositions, suffix)...)
	}
	return out
}

type position int

const (
	suffix position = iota
	prefix
)

// expandWithModifiers issues one query per modifier in concurrent batches
// of BatchSize, preserving modifier order in the combined result.
func (e *Engine) expandWithModifiers(ctx context.Context, keyword string, modifiers []string, pos position) []fetched {
	queries := make([]string, len(modifiers))
	for i, m := range modifiers {
		if pos == suffix {
			queries[i] = keyword + " " + m
		} else {
			queries[i] = m + " " + keyword
		}
	}

	batches := make([][]fetched, len(queries))

	for start := 0; start < len(queries); start += e.opts.BatchSize {
		end := start + e.opts.BatchSize
		if end > len(queries) {
			end = len(queries)
		}

		g, gCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				batches[i] = e.fetch(gCtx, queries[i])
				return nil
			})
		}
		// Workers never return errors; failed fetches degrade to empty
		// batches inside fetch.
		_ = g.Wait()

		if ctx.Err() != nil {
			break
		}
	}

	var out []fetched
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

// fetch wraps the suggestion source with the engine's failure policy: an
// error is logged and degrades to zero suggestions for that query.
func (e *Engine) fetch(ctx context.Context, query string) []fetched {
	candidates, err := e.source.Suggest(ctx, query)
	if err != nil {
		e.logger.Warn("suggestion fetch failed", "query", query, "err", err)
		return nil
	}
	out := make([]fetched, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, fetched{candidate: c, sourceQuery: query})
	}
	return out
}
