package storage

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Red Shoes  ": "red shoes",
		"RED":           "red",
		"":              "",
		"   ":           "",
		"already fine":  "already fine",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKeyword_WordCountAndLongTail(t *testing.T) {
	cases := []struct {
		keyword  string
		words    int
		longTail bool
	}{
		{"red", 1, false},
		{"red shoes", 2, false},
		{"red shoes for men", 4, true},
		{"  spaced   out  phrase ", 3, true},
	}
	for _, tc := range cases {
		k := &Keyword{Keyword: tc.keyword}
		if got := k.WordCount(); got != tc.words {
			t.Errorf("WordCount(%q) = %d, want %d", tc.keyword, got, tc.words)
		}
		if got := k.LongTail(); got != tc.longTail {
			t.Errorf("LongTail(%q) = %v, want %v", tc.keyword, got, tc.longTail)
		}
	}
}

func TestFilter_Match(t *testing.T) {
	depth1 := 1
	k := &Keyword{Keyword: "red shoes", Relevance: 500, Depth: 1, ParentKeyword: "red"}

	cases := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"prefix hit", Filter{KeywordPrefix: "red"}, true},
		{"prefix miss", Filter{KeywordPrefix: "blue"}, false},
		{"relevance hit", Filter{MinRelevance: 500}, true},
		{"relevance miss", Filter{MinRelevance: 501}, false},
		{"depth hit", Filter{Depth: &depth1}, true},
		{"parent hit", Filter{Parent: "red"}, true},
		{"parent miss", Filter{Parent: "blue"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Match(k); got != tc.want {
				t.Errorf("Match = %v, want %v", got, tc.want)
			}
		})
	}

	depth0 := 0
	if (Filter{Depth: &depth0}).Match(k) {
		t.Errorf("depth 0 filter should reject a depth-1 keyword")
	}
}

func TestFilter_Page(t *testing.T) {
	kws := []*Keyword{
		{Keyword: "a"}, {Keyword: "b"}, {Keyword: "c"}, {Keyword: "d"},
	}

	got := Filter{Offset: 1, Limit: 2}.Page(kws)
	if len(got) != 2 || got[0].Keyword != "b" || got[1].Keyword != "c" {
		t.Errorf("Page(offset=1, limit=2) wrong: %v", names(got))
	}

	if got := (Filter{Offset: 10}).Page(kws); len(got) != 0 {
		t.Errorf("offset past end should return empty, got %v", names(got))
	}

	if got := (Filter{}).Page(kws); len(got) != 4 {
		t.Errorf("no paging should return everything, got %v", names(got))
	}
}

func TestSortByRelevance_StableDescending(t *testing.T) {
	kws := []*Keyword{
		{Keyword: "low", Relevance: 10},
		{Keyword: "tie one", Relevance: 50},
		{Keyword: "high", Relevance: 99},
		{Keyword: "tie two", Relevance: 50},
	}

	SortByRelevance(kws)

	want := []string{"high", "tie one", "tie two", "low"}
	for i, w := range want {
		if kws[i].Keyword != w {
			t.Fatalf("order = %v, want %v", names(kws), want)
		}
	}
}

func names(kws []*Keyword) []string {
	out := make([]string, len(kws))
	for i, k := range kws {
		out[i] = k.Keyword
	}
	return out
}
