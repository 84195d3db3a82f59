package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/gleaner/internal/config"
	"github.com/FranksOps/gleaner/internal/harvester"
	"github.com/FranksOps/gleaner/internal/metrics"
	"github.com/FranksOps/gleaner/internal/pipeline"
	"github.com/FranksOps/gleaner/internal/report"
	"github.com/FranksOps/gleaner/internal/storage"
	"github.com/FranksOps/gleaner/internal/storage/csvbackend"
	"github.com/FranksOps/gleaner/internal/storage/postgres"
	"github.com/FranksOps/gleaner/internal/storage/sqlite"
	"github.com/FranksOps/gleaner/internal/storage/txtbackend"
	"github.com/FranksOps/gleaner/internal/suggest"
	"github.com/FranksOps/gleaner/pkg/keywords"
)

type harvestFlags struct {
	keywords     []string
	keywordsFile string
	sitemapURL   string
	language     string
	country      string
	site         string
	maxDepth     int
	minRelevance int
	maxPerSeed   int
	alphabet     bool
	numbers      bool
	questions    bool
	prepositions bool
	recursive    bool
	delay        time.Duration
	output       string
	format       string
	store        string
	metricsPort  int
}

func newHarvestCmd() *cobra.Command {
	var f harvestFlags

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Expand seed keywords through Google Autocomplete",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyHarvestFlags(cmd, &f, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runHarvest(cmd.Context(), &f, cfg)
		},
	}

	cmd.Flags().StringArrayVarP(&f.keywords, "keyword", "k", nil, "seed keyword (repeatable)")
	cmd.Flags().StringVarP(&f.keywordsFile, "keywords-file", "f", "", "file with seed keywords, one per line")
	cmd.Flags().StringVar(&f.sitemapURL, "sitemap", "", "local sitemap XML file to derive seeds from")
	cmd.Flags().StringVar(&f.language, "lang", "en", "language code (hl)")
	cmd.Flags().StringVar(&f.country, "country", "us", "country code (gl)")
	cmd.Flags().StringVar(&f.site, "site", "web", "search scope: web or youtube")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 2, "maximum recursive expansion depth")
	cmd.Flags().IntVar(&f.minRelevance, "min-relevance", 0, "minimum relevance score to keep")
	cmd.Flags().IntVar(&f.maxPerSeed, "max-per-seed", 100, "suggestion cap multiplier per seed")
	cmd.Flags().BoolVar(&f.alphabet, "alphabet", true, "append a-z modifiers to seeds")
	cmd.Flags().BoolVar(&f.numbers, "numbers", false, "append 0-9 modifiers to seeds")
	cmd.Flags().BoolVar(&f.questions, "questions", true, "prepend question-word modifiers")
	cmd.Flags().BoolVar(&f.prepositions, "prepositions", true, "append preposition modifiers")
	cmd.Flags().BoolVar(&f.recursive, "recursive", true, "recursively expand discovered keywords")
	cmd.Flags().DurationVar(&f.delay, "delay", 500*time.Millisecond, "delay after each autocomplete request")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output basename (without extension)")
	cmd.Flags().StringVar(&f.format, "format", "json", "export format: json, csv, txt")
	cmd.Flags().StringVar(&f.store, "store", "", "keyword store DSN (sqlite:path or postgres://...)")
	cmd.Flags().IntVar(&f.metricsPort, "metrics-port", 0, "expose Prometheus metrics on this port (0 = off)")

	return cmd
}

// applyHarvestFlags overlays explicitly set flags onto the loaded config,
// then copies the effective values back so the run uses one source of truth.
func applyHarvestFlags(cmd *cobra.Command, f *harvestFlags, cfg *config.Config) {
	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("lang", func() { cfg.Language = f.language })
	set("country", func() { cfg.Country = f.country })
	set("site", func() { cfg.Site = f.site })
	set("max-depth", func() { cfg.MaxDepth = f.maxDepth })
	set("min-relevance", func() { cfg.MinRelevance = f.minRelevance })
	set("max-per-seed", func() { cfg.MaxPerSeed = f.maxPerSeed })
	set("alphabet", func() { cfg.Alphabet = f.alphabet })
	set("numbers", func() { cfg.Numbers = f.numbers })
	set("questions", func() { cfg.Questions = f.questions })
	set("prepositions", func() { cfg.Prepositions = f.prepositions })
	set("recursive", func() { cfg.Recursive = f.recursive })
	set("delay", func() { cfg.Delay = f.delay })
	set("format", func() { cfg.Format = f.format })
	set("store", func() { cfg.Store = f.store })
	set("metrics-port", func() { cfg.MetricsPort = f.metricsPort })

	f.language = cfg.Language
	f.country = cfg.Country
	f.site = cfg.Site
	f.maxDepth = cfg.MaxDepth
	f.minRelevance = cfg.MinRelevance
	f.maxPerSeed = cfg.MaxPerSeed
	f.alphabet = cfg.Alphabet
	f.numbers = cfg.Numbers
	f.questions = cfg.Questions
	f.prepositions = cfg.Prepositions
	f.recursive = cfg.Recursive
	f.delay = cfg.Delay
	f.format = cfg.Format
	f.store = cfg.Store
	f.metricsPort = cfg.MetricsPort
}

func runHarvest(ctx context.Context, f *harvestFlags, cfg *config.Config) error {
	logger := newLogger(cfg.LogLevel)

	seeds, err := collectSeeds(f)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		return fmt.Errorf("no keywords provided: use -k, --keywords-file, or --sitemap")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsPort > 0 {
		srv := metrics.Start(cfg.MetricsPort)
		defer func() { _ = srv.Stop(context.Background()) }()
	}

	source, err := suggest.NewGoogle(suggest.GoogleConfig{
		Language:     cfg.Language,
		Country:      cfg.Country,
		DomainScope:  cfg.DomainScope(),
		MinRelevance: cfg.MinRelevance,
		Timeout:      cfg.Timeout,
		Delay:        cfg.Delay,
	}, logger)
	if err != nil {
		return err
	}

	var store storage.Backend
	if cfg.Store != "" {
		store, err = openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	outputPath, err := resolveOutputPath(cfg.OutputDir, f.output, cfg.Format)
	if err != nil {
		return err
	}

	_ = report.WriteConfigSummary(os.Stdout, report.ConfigSummary{
		Seeds:           len(seeds),
		Language:        cfg.Language,
		Country:         cfg.Country,
		Site:            cfg.Site,
		MaxDepth:        cfg.MaxDepth,
		MinRelevance:    cfg.MinRelevance,
		MaxPerSeed:      cfg.MaxPerSeed,
		Alphabet:        cfg.Alphabet,
		Numbers:         cfg.Numbers,
		Questions:       cfg.Questions,
		Prepositions:    cfg.Prepositions,
		Recursive:       cfg.Recursive,
		Delay:           cfg.Delay,
		ExportFormat:    cfg.Format,
		OutputPath:      outputPath,
		StoreConfigured: store != nil,
	})

	p, err := pipeline.New(pipeline.Config{
		Source: source,
		Options: harvester.Options{
			MaxDepth:        cfg.MaxDepth,
			MaxPerSeed:      cfg.MaxPerSeed,
			UseAlphabet:     cfg.Alphabet,
			UseNumbers:      cfg.Numbers,
			UseQuestions:    cfg.Questions,
			UsePrepositions: cfg.Prepositions,
			Recursive:       cfg.Recursive,
		},
		Backend: store,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	result, runErr := p.Run(ctx, seeds)
	if runErr != nil && result == nil {
		return runErr
	}
	if runErr != nil {
		logger.Warn("harvest interrupted, exporting partial results", "err", runErr)
	}

	fmt.Println()
	_ = report.WriteStatsText(os.Stdout, result.Stats)

	if len(result.Keywords) == 0 {
		fmt.Print(report.ZeroResultGuidance)
		return nil
	}

	meta := report.Meta{
		Language:    cfg.Language,
		Country:     cfg.Country,
		DomainScope: cfg.DomainScope(),
		MaxDepth:    cfg.MaxDepth,
		Seeds:       result.Seeds,
		GeneratedAt: time.Now().UTC(),
	}
	if err := exportKeywords(outputPath, cfg.Format, meta, result); err != nil {
		return err
	}

	fmt.Printf("\nExported %d keywords to %s\n", len(result.Keywords), outputPath)
	return nil
}

func collectSeeds(f *harvestFlags) ([]string, error) {
	seeds := append([]string(nil), f.keywords...)

	if f.keywordsFile != "" {
		fromFile, err := keywords.LoadFile(f.keywordsFile)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, fromFile...)
	}

	if f.sitemapURL != "" {
		file, err := os.Open(f.sitemapURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sitemap: %w", err)
		}
		defer file.Close()
		fromSitemap, err := keywords.FromSitemap(file)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, fromSitemap...)
	}

	return seeds, nil
}

func openStore(ctx context.Context, dsn string) (storage.Backend, error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlite.New(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "postgres:"), strings.HasPrefix(dsn, "postgresql:"):
		return postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported store DSN %q", dsn)
	}
}

func resolveOutputPath(dir, basename, format string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	if basename == "" {
		basename = "keywords_" + time.Now().Format("20060102_150405")
	}
	return filepath.Join(dir, basename+"."+format), nil
}

func exportKeywords(path, format string, meta report.Meta, result *pipeline.Result) error {
	switch format {
	case "json":
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer file.Close()
		return report.WriteDocument(file, meta, result.Stats, result.Keywords)

	case "csv":
		backend, err := csvbackend.New(path)
		if err != nil {
			return err
		}
		defer backend.Close()
		return backend.SaveAll(context.Background(), result.Keywords)

	case "txt":
		header := fmt.Sprintf("language: %s, country: %s\ntotal keywords: %d",
			meta.Language, meta.Country, len(result.Keywords))
		backend, err := txtbackend.New(path, txtbackend.Options{Header: header})
		if err != nil {
			return err
		}
		defer backend.Close()
		return backend.SaveAll(context.Background(), result.Keywords)

	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
