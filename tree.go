package sitemap

import (
	"context"
	"strings"
)

// SitemapTreeForHomepage discovers and returns the full sitemap tree for a
// site given its homepage URL, per spec §4.10: it strips the path/query/
// fragment from homepageURL, appends "/robots.txt", and fetches from there
// at recursion level 0. A failure to fetch or parse robots.txt itself is
// returned as the InvalidSitemap root, never as an error -- the engine's
// only observable hard errors are ones the UserAgent raises synchronously.
func SitemapTreeForHomepage(ctx context.Context, homepageURL string, opts ...Option) AbstractSitemap {
	cfg := newConfig(opts)

	robotsURL, err := robotsTxtURLFor(homepageURL)
	if err != nil {
		return &InvalidSitemap{URL: homepageURL, Reason: err.Error()}
	}

	fetcher, err := newSitemapFetcher(robotsURL, 0, cfg)
	if err != nil {
		return &InvalidSitemap{URL: robotsURL, Reason: err.Error()}
	}

	return fetcher.Sitemap(ctx)
}

func robotsTxtURLFor(homepageURL string) (string, error) {
	fixed := FixCommonURLMistakes(homepageURL)
	if !IsHTTPURL(fixed) {
		return "", &InvalidURLError{URL: homepageURL, Reason: "not an HTTP(s) URL"}
	}

	normalized, err := NormalizeURL(fixed)
	if err != nil {
		return "", err
	}

	// NormalizeURL always yields "scheme://host/...", so the first "/" after
	// the scheme separator starts the path; everything from there is dropped.
	schemeEnd := strings.Index(normalized, "://") + len("://")
	base := normalized
	if idx := strings.Index(normalized[schemeEnd:], "/"); idx != -1 {
		base = normalized[:schemeEnd+idx]
	}

	return base + "/robots.txt", nil
}
