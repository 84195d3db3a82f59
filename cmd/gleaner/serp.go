package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/gleaner/internal/fingerprint"
	"github.com/FranksOps/gleaner/internal/scraper"
	"github.com/FranksOps/gleaner/internal/serp"
	"github.com/FranksOps/gleaner/pkg/keywords"
	"github.com/FranksOps/gleaner/pkg/proxy"
	"github.com/FranksOps/gleaner/pkg/ratelimit"
)

type serpFlags struct {
	keywords     []string
	keywordsFile string
	pages        int
	proxies      []string
	proxyFile    string
	fp           string
	rps          float64
	jitter       float64
	output       string
}

func newSerpCmd() *cobra.Command {
	var f serpFlags

	cmd := &cobra.Command{
		Use:   "serp",
		Short: "Scrape Google search result pages for keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("pages") {
				cfg.Serp.Pages = f.pages
			}
			if cmd.Flags().Changed("fingerprint") {
				cfg.Serp.Fingerprint = f.fp
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg.LogLevel)

			seeds := append([]string(nil), f.keywords...)
			if f.keywordsFile != "" {
				fromFile, err := keywords.LoadFile(f.keywordsFile)
				if err != nil {
					return err
				}
				seeds = append(seeds, fromFile...)
			}
			if len(seeds) == 0 {
				return fmt.Errorf("no keywords provided: use -k or --keywords-file")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var proxyPool *proxy.Pool
			if len(f.proxies) > 0 || f.proxyFile != "" {
				proxyPool = proxy.NewPool(proxy.Config{})
				if err := proxyPool.Add(f.proxies...); err != nil {
					return err
				}
				if f.proxyFile != "" {
					if err := proxyPool.LoadFile(f.proxyFile); err != nil {
						return err
					}
				}
			}

			limiter := ratelimit.NewLimiter(f.rps, f.jitter)
			defer limiter.Stop()

			fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
				Timeout:      cfg.Timeout,
				MaxRedirects: 3,
				UseCookieJar: true,
				ProxyPool:    proxyPool,
				Fingerprint:  fingerprint.Profile(cfg.Serp.Fingerprint),
				Limiter:      limiter,
			})
			if err != nil {
				return err
			}

			provider := serp.NewGoogle(serp.GoogleConfig{
				Domain:         cfg.Serp.Domain,
				Language:       cfg.Language,
				Country:        cfg.Country,
				ResultsPerPage: cfg.Serp.ResultsPerPage,
			}, fetcher, logger)

			var pages []*serp.Page
			for _, kw := range seeds {
				if ctx.Err() != nil {
					logger.Warn("interrupted, exporting pages collected so far")
					break
				}
				result, err := provider.Search(ctx, kw, cfg.Serp.Pages)
				if err != nil {
					logger.Warn("serp search failed", "keyword", kw, "err", err)
					continue
				}
				pages = append(pages, result...)
			}

			outputPath, err := resolveOutputPath(cfg.OutputDir, serpBasename(f.output), "json")
			if err != nil {
				return err
			}
			if err := writeSerpPages(outputPath, pages); err != nil {
				return err
			}

			organic := 0
			blocked := 0
			for _, p := range pages {
				organic += len(p.Organic)
				if p.Blocked {
					blocked++
				}
			}
			fmt.Printf("Scraped %d pages (%d organic results, %d blocked) -> %s\n",
				len(pages), organic, blocked, outputPath)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&f.keywords, "keyword", "k", nil, "search keyword (repeatable)")
	cmd.Flags().StringVarP(&f.keywordsFile, "keywords-file", "f", "", "file with keywords, one per line")
	cmd.Flags().IntVarP(&f.pages, "pages", "p", 1, "result pages per keyword")
	cmd.Flags().StringArrayVar(&f.proxies, "proxy", nil, "proxy URL (repeatable)")
	cmd.Flags().StringVar(&f.proxyFile, "proxy-file", "", "file with proxy URLs, one per line")
	cmd.Flags().StringVar(&f.fp, "fingerprint", "chrome", "TLS fingerprint: chrome, firefox, safari, random, go")
	cmd.Flags().Float64Var(&f.rps, "rps", 0.5, "max requests per second (0 = unlimited)")
	cmd.Flags().Float64Var(&f.jitter, "jitter", 0.3, "rate limiter jitter factor, 0.0 to 1.0")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output basename (without extension)")

	return cmd
}

func serpBasename(name string) string {
	if name != "" {
		return name
	}
	return "serp_results_" + time.Now().Format("20060102_150405")
}

func writeSerpPages(path string, pages []*serp.Page) error {
	if pages == nil {
		pages = []*serp.Page{}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pages); err != nil {
		return fmt.Errorf("failed to encode pages: %w", err)
	}
	return nil
}
