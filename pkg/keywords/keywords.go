// Package keywords loads seed keywords from the places SEO workflows
// keep them: plain text files and a site's own sitemap.
package keywords

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	sitemap "github.com/oxffaa/gopher-parse-sitemap"
)

// LoadFile reads keywords from a text file, one per line. Blank lines
// and lines starting with '#' are skipped.
func LoadFile(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read keywords file: %w", err)
	}

	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

// FromSitemap derives seed keywords from the URL slugs of a sitemap.
// "/blog/running-shoes-guide" becomes "running shoes guide". Numeric or
// single-character slugs are skipped since they make useless seeds.
func FromSitemap(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string

	err := sitemap.Parse(r, func(e sitemap.Entry) error {
		kw := SlugToKeyword(e.GetLocation())
		if kw == "" {
			return nil
		}
		if _, dup := seen[kw]; dup {
			return nil
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse sitemap: %w", err)
	}
	return out, nil
}

// SlugToKeyword converts a page URL into a keyword phrase, or "" when
// the URL has no usable slug.
func SlugToKeyword(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	slug := path.Base(strings.TrimRight(u.Path, "/"))
	if slug == "." || slug == "/" || slug == "" {
		return ""
	}
	// Drop a file extension like .html
	if idx := strings.LastIndex(slug, "."); idx > 0 {
		slug = slug[:idx]
	}

	slug = strings.ToLower(slug)
	fields := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})

	var words []string
	hasLetter := false
	for _, f := range fields {
		if f == "" {
			continue
		}
		for _, r := range f {
			if r >= 'a' && r <= 'z' {
				hasLetter = true
				break
			}
		}
		words = append(words, f)
	}
	if !hasLetter || len(words) == 0 {
		return ""
	}
	kw := strings.Join(words, " ")
	if len(kw) < 2 {
		return ""
	}
	return kw
}
