package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FranksOps/gleaner/internal/metrics"
	"github.com/FranksOps/gleaner/pkg/httpclient"
	"github.com/FranksOps/gleaner/pkg/ratelimit"
	"github.com/FranksOps/gleaner/pkg/useragent"
)

// DefaultBaseURL is the Google Autocomplete endpoint.
const DefaultBaseURL = "https://suggestqueries.google.com/complete/search"

// GoogleConfig configures the autocomplete client.
type GoogleConfig struct {
	// BaseURL overrides the autocomplete endpoint, mainly for tests.
	BaseURL string
	// Language is the hl parameter, e.g. "en".
	Language string
	// Country is the gl parameter, e.g. "us". Sent upper-cased.
	Country string
	// DomainScope is the optional ds parameter ("yt" scopes to YouTube).
	DomainScope string
	// MinRelevance drops candidates scoring below this floor.
	MinRelevance int
	Timeout      time.Duration
	// Delay is slept after every physical request, success or failure,
	// to stay under the endpoint's abuse thresholds.
	Delay  time.Duration
	UAPool *useragent.Pool
}

// Google fetches suggestions from the Google Autocomplete endpoint.
// It implements Source.
type Google struct {
	cfg    GoogleConfig
	client *httpclient.Client
	logger *slog.Logger
}

var _ Source = (*Google)(nil)

// NewGoogle creates an autocomplete client. Zero config fields get
// reasonable defaults.
func NewGoogle(cfg GoogleConfig, logger *slog.Logger) (*Google, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Country == "" {
		cfg.Country = "us"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Delay == 0 {
		cfg.Delay = 500 * time.Millisecond
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Google{cfg: cfg, client: client, logger: logger}, nil
}

// Suggest fetches one batch of autocomplete candidates for the query.
// The configured delay is honored even when the request fails.
func (g *Google) Suggest(ctx context.Context, query string) ([]Candidate, error) {
	defer func() {
		_ = ratelimit.Sleep(ctx, g.cfg.Delay)
	}()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.buildURL(query), nil)
	if err != nil {
		metrics.RecordSuggest("error", time.Since(start))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", g.cfg.UAPool.GetSequential())
	req.Header.Set("Accept-Language", g.cfg.Language)

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		metrics.RecordSuggest("error", time.Since(start))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.RecordSuggest(fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for query %q", resp.StatusCode, query)
	}

	// Google serves text/javascript, so ignore the content type and
	// parse the body as JSON directly.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	candidates, err := parseResponse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response for query %q: %w", query, err)
	}

	filtered := candidates[:0]
	for _, c := range candidates {
		if c.Relevance >= g.cfg.MinRelevance {
			filtered = append(filtered, c)
		}
	}

	g.logger.Debug("fetched suggestions", "query", query, "count", len(filtered))
	return filtered, nil
}

func (g *Google) buildURL(query string) string {
	params := url.Values{}
	params.Set("client", "chrome")
	params.Set("hl", g.cfg.Language)
	params.Set("gl", strings.ToUpper(g.cfg.Country))
	params.Set("q", query)
	if g.cfg.DomainScope != "" {
		params.Set("ds", g.cfg.DomainScope)
	}
	return g.cfg.BaseURL + "?" + params.Encode()
}

// parseResponse decodes the autocomplete wire format:
//
//	[echoed_query, [suggestions...], [descriptions...], ..., {"google:suggestrelevance": [...]}]
//
// The relevance object sits at index 4 for client=chrome responses, but
// other clients omit the description array, so trailing elements are
// scanned for the key instead of hard-coding an index. Suggestions with
// no matching score default to relevance 0.
func parseResponse(body []byte) ([]Candidate, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil, err
	}
	if len(elems) < 2 {
		return nil, nil
	}

	var phrases []string
	if err := json.Unmarshal(elems[1], &phrases); err != nil {
		return nil, fmt.Errorf("malformed suggestion list: %w", err)
	}

	var scores []int
	for i := len(elems) - 1; i >= 2; i-- {
		var meta struct {
			Relevance []int `json:"google:suggestrelevance"`
		}
		if err := json.Unmarshal(elems[i], &meta); err != nil {
			continue
		}
		if len(meta.Relevance) > 0 {
			scores = meta.Relevance
			break
		}
	}

	candidates := make([]Candidate, 0, len(phrases))
	for i, phrase := range phrases {
		relevance := 0
		if i < len(scores) {
			relevance = scores[i]
		}
		candidates = append(candidates, Candidate{Keyword: phrase, Relevance: relevance})
	}
	return candidates, nil
}
