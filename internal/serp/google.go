package serp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/gleaner/internal/bypass"
	"github.com/FranksOps/gleaner/internal/metrics"
	"github.com/FranksOps/gleaner/internal/scraper"
)

// GoogleConfig configures the Google SERP provider.
type GoogleConfig struct {
	// Domain is the Google domain to query, default "google.com".
	Domain string
	// Language is the hl parameter.
	Language string
	// Country is the gl parameter.
	Country string
	// ResultsPerPage is the num parameter, default 10.
	ResultsPerPage int
	// BaseURL overrides the search URL entirely, for tests.
	BaseURL string
}

// Google scrapes Google result pages through the evasion fetcher.
type Google struct {
	cfg       GoogleConfig
	fetcher   *scraper.Fetcher
	detectors []bypass.Detector
	logger    *slog.Logger
}

var _ Provider = (*Google)(nil)

// NewGoogle creates a Google SERP provider on top of an existing fetcher.
func NewGoogle(cfg GoogleConfig, fetcher *scraper.Fetcher, logger *slog.Logger) *Google {
	if cfg.Domain == "" {
		cfg.Domain = "google.com"
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.ResultsPerPage <= 0 {
		cfg.ResultsPerPage = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Google{
		cfg:       cfg,
		fetcher:   fetcher,
		detectors: bypass.DefaultDetectors(),
		logger:    logger,
	}
}

// Search fetches up to pages result pages for the query. A blocked or
// failed page stops pagination (later pages would hit the same wall) but
// the pages collected so far are still returned.
func (g *Google) Search(ctx context.Context, query string, pages int) ([]*Page, error) {
	if pages <= 0 {
		pages = 1
	}

	var out []*Page
	for p := 0; p < pages; p++ {
		page, err := g.fetchPage(ctx, query, p)
		if err != nil {
			if len(out) > 0 {
				g.logger.Warn("stopping pagination", "query", query, "page", p, "err", err)
				return out, nil
			}
			return nil, err
		}
		out = append(out, page)
		if page.Blocked {
			g.logger.Warn("serp blocked, stopping pagination", "query", query, "page", p, "source", page.BlockSource)
			break
		}
	}
	return out, nil
}

func (g *Google) fetchPage(ctx context.Context, query string, pageNum int) (*Page, error) {
	target := g.buildURL(query, pageNum*g.cfg.ResultsPerPage)

	result, err := g.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	if result.Error != "" {
		metrics.RecordSerp("error", false, "", result.Duration)
		return nil, fmt.Errorf("fetch error: %s", result.Error)
	}

	blocked, blockSrc := bypass.Analyze(result, g.detectors)
	metrics.RecordSerp(strconv.Itoa(result.StatusCode), blocked, blockSrc, result.Duration)

	page := &Page{
		Keyword:     query,
		PageNumber:  pageNum + 1,
		Blocked:     blocked,
		BlockSource: blockSrc,
		ScrapedAt:   result.CreatedAt,
	}
	if !blocked {
		g.parse(page, result.Body)
	}
	return page, nil
}

func (g *Google) buildURL(query string, start int) string {
	if g.cfg.BaseURL != "" {
		return g.cfg.BaseURL + "?" + g.params(query, start).Encode()
	}
	return fmt.Sprintf("https://www.%s/search?%s", g.cfg.Domain, g.params(query, start).Encode())
}

func (g *Google) params(query string, start int) url.Values {
	params := url.Values{}
	params.Set("q", query)
	params.Set("num", strconv.Itoa(g.cfg.ResultsPerPage))
	params.Set("hl", g.cfg.Language)
	if g.cfg.Country != "" {
		params.Set("gl", g.cfg.Country)
	}
	if start > 0 {
		params.Set("start", strconv.Itoa(start))
	}
	return params
}

// parse extracts organic results, related searches, and PAA questions.
// Google rotates its class names regularly, so several selector
// generations are tried per element.
func (g *Google) parse(page *Page, body []byte) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		g.logger.Warn("failed to parse serp html", "keyword", page.Keyword, "err", err)
		return
	}

	doc.Find("div.g, div.tF2Cxc, div.Ww4FFb").Each(func(i int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h3").First().Text())
		href, _ := s.Find("a[href]").First().Attr("href")
		if title == "" || !strings.HasPrefix(href, "http") {
			return
		}
		snippet := strings.TrimSpace(s.Find(".VwiC3b, .yXK7lf, .lEBKkf").First().Text())
		page.Organic = append(page.Organic, Result{
			Position: len(page.Organic) + 1,
			Title:    title,
			URL:      href,
			Snippet:  snippet,
		})
	})

	seenRelated := make(map[string]struct{})
	doc.Find("#botstuff a, #brs a, a.k8XOCe").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		key := strings.ToLower(text)
		if _, dup := seenRelated[key]; dup {
			return
		}
		seenRelated[key] = struct{}{}
		page.RelatedSearches = append(page.RelatedSearches, text)
	})

	doc.Find(".related-question-pair, div[data-sgrd] div[role=heading]").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			page.PeopleAlsoAsk = append(page.PeopleAlsoAsk, text)
		}
	})
}
