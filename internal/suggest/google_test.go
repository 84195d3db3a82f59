package suggest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestGoogle(t *testing.T, handler http.HandlerFunc) *Google {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewGoogle(GoogleConfig{
		BaseURL: server.URL,
		Delay:   time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return g
}

func TestSuggest_ParsesChromeResponse(t *testing.T) {
	body := `["red shoes",["red shoes for men","red shoes sale"],["",""],[],{"google:suggestrelevance":[800,601],"google:suggesttype":["QUERY","QUERY"]}]`

	var gotQuery, gotClient, gotHL, gotGL string
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotClient = r.URL.Query().Get("client")
		gotHL = r.URL.Query().Get("hl")
		gotGL = r.URL.Query().Get("gl")
		w.Header().Set("Content-Type", "text/javascript; charset=UTF-8")
		_, _ = w.Write([]byte(body))
	})

	candidates, err := g.Suggest(context.Background(), "red shoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery != "red shoes" || gotClient != "chrome" || gotHL != "en" || gotGL != "US" {
		t.Errorf("wrong query params: q=%q client=%q hl=%q gl=%q", gotQuery, gotClient, gotHL, gotGL)
	}

	want := []Candidate{
		{Keyword: "red shoes for men", Relevance: 800},
		{Keyword: "red shoes sale", Relevance: 601},
	}
	if len(candidates) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(candidates), len(want))
	}
	for i := range want {
		if candidates[i] != want[i] {
			t.Errorf("candidate %d = %+v, want %+v", i, candidates[i], want[i])
		}
	}
}

func TestSuggest_MissingScoresDefaultToZero(t *testing.T) {
	body := `["q",["one","two"]]`
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	candidates, err := g.Suggest(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range candidates {
		if c.Relevance != 0 {
			t.Errorf("candidate %q relevance = %d, want 0", c.Keyword, c.Relevance)
		}
	}
}

func TestSuggest_RelevanceFloor(t *testing.T) {
	body := `["q",["keep","drop"],["",""],[],{"google:suggestrelevance":[500,100]}]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	g, err := NewGoogle(GoogleConfig{
		BaseURL:      server.URL,
		MinRelevance: 300,
		Delay:        time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	candidates, err := g.Suggest(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Keyword != "keep" {
		t.Fatalf("floor should drop low-scoring candidates, got %+v", candidates)
	}
}

func TestSuggest_NonOKStatus(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := g.Suggest(context.Background(), "q"); err == nil {
		t.Fatalf("expected an error for status 429")
	}
}

func TestSuggest_MalformedJSON(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>blocked</html>`))
	})

	if _, err := g.Suggest(context.Background(), "q"); err == nil {
		t.Fatalf("expected a parse error for non-JSON body")
	}
}

func TestSuggest_DelayHonoredOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	delay := 50 * time.Millisecond
	g, err := NewGoogle(GoogleConfig{BaseURL: server.URL, Delay: delay}, nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	start := time.Now()
	_, _ = g.Suggest(context.Background(), "q")
	if elapsed := time.Since(start); elapsed < delay {
		t.Errorf("request returned after %v, want at least the %v delay", elapsed, delay)
	}
}

func TestSuggest_DomainScopeParam(t *testing.T) {
	var gotDS string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDS = r.URL.Query().Get("ds")
		_, _ = w.Write([]byte(`["q",[]]`))
	}))
	t.Cleanup(server.Close)

	g, err := NewGoogle(GoogleConfig{BaseURL: server.URL, DomainScope: "yt", Delay: time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if _, err := g.Suggest(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDS != "yt" {
		t.Errorf("ds param = %q, want yt", gotDS)
	}
}

func TestParseResponse_EmptySuggestions(t *testing.T) {
	candidates, err := parseResponse([]byte(`["q",[]]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %+v", candidates)
	}
}

func TestParseResponse_ScoresAtDifferentPositions(t *testing.T) {
	// client=firefox style response with no description array.
	body := `["q",["one"],{"google:suggestrelevance":[42]}]`
	candidates, err := parseResponse([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Relevance != 42 {
		t.Fatalf("score not found at shifted position: %+v", candidates)
	}
}
