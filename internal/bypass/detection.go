// Package bypass identifies search-engine responses that are blocks or
// challenges rather than result pages, so callers can label a fetch as
// rate-limited instead of parsing an interstitial as an empty SERP.
package bypass

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/FranksOps/gleaner/internal/scraper"
)

// Detector examines a fetch result and reports whether a blocking
// mechanism intercepted the request, and which one.
type Detector func(res *scraper.FetchResult) (detected bool, source string)

// DefaultDetectors returns the standard list of SERP block detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectSorryPage,
		detectCaptcha,
		detectConsent,
		detectRateLimit,
	}
}

// Analyze runs the result through all provided detectors and returns the
// first hit. The result itself is not modified; SERP pages record the
// outcome on their own Blocked fields.
func Analyze(res *scraper.FetchResult, detectors []Detector) (bool, string) {
	if res == nil {
		return false, ""
	}
	for _, d := range detectors {
		if detected, source := d(res); detected {
			return true, source
		}
	}
	return false, ""
}

func getHeader(headers map[string][]string, key string) string {
	if vals, ok := headers[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	lowerKey := strings.ToLower(key)
	for k, vals := range headers {
		if strings.ToLower(k) == lowerKey && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// detectSorryPage catches Google's /sorry/ interstitial, reached either
// directly or via redirect.
func detectSorryPage(res *scraper.FetchResult) (bool, string) {
	if strings.Contains(res.FinalURL, "/sorry/") {
		return true, "GoogleSorry"
	}
	if loc := getHeader(res.Headers, "Location"); strings.Contains(loc, "/sorry/") {
		return true, "GoogleSorry"
	}
	if bytes.Contains(res.Body, []byte("unusual traffic from your computer network")) {
		return true, "GoogleSorry"
	}
	return false, ""
}

// detectCaptcha looks for reCAPTCHA challenge markers in the body.
func detectCaptcha(res *scraper.FetchResult) (bool, string) {
	if bytes.Contains(res.Body, []byte("g-recaptcha")) ||
		bytes.Contains(res.Body, []byte("recaptcha/api.js")) ||
		bytes.Contains(res.Body, []byte("captcha-form")) {
		return true, "Captcha"
	}
	return false, ""
}

// detectConsent catches the EU consent interstitial that replaces the
// SERP for clients without consent cookies.
func detectConsent(res *scraper.FetchResult) (bool, string) {
	if strings.Contains(res.FinalURL, "consent.google.") {
		return true, "Consent"
	}
	if loc := getHeader(res.Headers, "Location"); strings.Contains(loc, "consent.google.") {
		return true, "Consent"
	}
	return false, ""
}

// detectRateLimit treats plain 429/503 answers as throttling.
func detectRateLimit(res *scraper.FetchResult) (bool, string) {
	if res.StatusCode == http.StatusTooManyRequests || res.StatusCode == http.StatusServiceUnavailable {
		return true, "RateLimit"
	}
	return false, ""
}
