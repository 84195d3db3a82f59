// Package pipeline wires a harvest end to end: seed validation, the
// expansion engine, optional persistence, and statistics.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/FranksOps/gleaner/internal/harvester"
	"github.com/FranksOps/gleaner/internal/storage"
	"github.com/FranksOps/gleaner/internal/suggest"
)

// ErrNoSeeds is returned when no usable seed keyword survives
// normalization. The engine is never invoked in that case.
var ErrNoSeeds = errors.New("no seed keywords provided")

// Config assembles a harvest pipeline.
type Config struct {
	Source  suggest.Source
	Options harvester.Options
	// Backend, when set, receives every accepted keyword after the run.
	Backend storage.Backend
	Logger  *slog.Logger
}

// Result is the outcome of one harvest run.
type Result struct {
	Keywords []*storage.Keyword
	Stats    harvester.Stats
	// Seeds are the normalized, deduplicated seed keywords actually used.
	Seeds []string
}

// Pipeline runs harvests with a fixed configuration.
type Pipeline struct {
	cfg Config
}

// New validates the configuration and builds a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, errors.New("suggestion source is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{cfg: cfg}, nil
}

// Run harvests the given seeds. On cancellation the partial results are
// still persisted and returned alongside the context error.
func (p *Pipeline) Run(ctx context.Context, seeds []string) (*Result, error) {
	normalized := normalizeSeeds(seeds)
	if len(normalized) == 0 {
		return nil, ErrNoSeeds
	}

	engine := harvester.New(p.cfg.Source, p.cfg.Options, p.cfg.Logger)

	// The breaker cap scales with the raw seed count, duplicates included.
	keywords, runErr := engine.Harvest(ctx, seeds)

	// Every entry of the run's seen set is either a seed or a result.
	unique := len(keywords) + len(normalized)

	res := &Result{
		Keywords: keywords,
		Stats:    harvester.Collect(keywords, unique),
		Seeds:    normalized,
	}

	if p.cfg.Backend != nil && len(keywords) > 0 {
		// Partial results from a canceled run are still worth keeping, so
		// persistence runs detached from the harvest context.
		if err := p.cfg.Backend.SaveAll(context.WithoutCancel(ctx), keywords); err != nil {
			p.cfg.Logger.Error("failed to persist keywords", "err", err)
			if runErr == nil {
				runErr = err
			}
		}
	}

	return res, runErr
}

func normalizeSeeds(seeds []string) []string {
	seen := make(map[string]struct{}, len(seeds))
	var out []string
	for _, s := range seeds {
		norm := storage.Normalize(s)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}
