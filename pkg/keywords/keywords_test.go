package keywords

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.txt")
	content := `red shoes
# a comment

blue shoes
  trimmed seed
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	want := []string{"red shoes", "blue shoes", "trimmed seed"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestSlugToKeyword(t *testing.T) {
	cases := map[string]string{
		"https://example.com/blog/running-shoes-guide":  "running shoes guide",
		"https://example.com/blog/running-shoes-guide/": "running shoes guide",
		"https://example.com/red_shoes.html":            "red shoes",
		"https://example.com/Red-SHOES":                 "red shoes",
		"https://example.com/":                          "",
		"https://example.com/12345":                     "",
		"https://example.com/a":                         "",
		"https://example.com/page-2":                    "page 2",
	}
	for in, want := range cases {
		if got := SlugToKeyword(in); got != want {
			t.Errorf("SlugToKeyword(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFromSitemap(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/blog/red-shoes-guide</loc></url>
  <url><loc>https://example.com/blog/blue-shoes</loc></url>
  <url><loc>https://example.com/blog/red-shoes-guide</loc></url>
  <url><loc>https://example.com/9000</loc></url>
</urlset>`

	got, err := FromSitemap(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("FromSitemap failed: %v", err)
	}

	want := []string{"red shoes guide", "blue shoes"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
