package sitemap

import (
	"context"
	"regexp"
	"strings"
)

// sitemapDirective matches a robots.txt "Sitemap:" directive line. Per the
// spec's REDESIGN FLAG (§9), only the directive keyword is matched
// case-insensitively; the captured URL keeps its original casing, unlike
// the Python original which lowercases the entire line first and corrupts
// mixed-case URLs.
var sitemapDirective = regexp.MustCompile(`(?i)^\s*sitemap:\s*(.+?)\s*$`)

// parseRobotsTXT extracts Sitemap: directives from robots.txt content and
// recursively fetches each one at the same recursion level (spec §4.5). A
// robots.txt with zero Sitemap: lines yields an IndexRobotsTxtSitemap with
// an empty sub-sitemap list, not an error.
func parseRobotsTXT(ctx context.Context, url, content string, recursionLevel int, cfg *Config) AbstractSitemap {
	seen := make(map[string]struct{})
	var sitemapURLs []string

	for _, line := range strings.Split(content, "\n") {
		match := sitemapDirective.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		sitemapURL := match[1]
		if !IsHTTPURL(sitemapURL) {
			cfg.logger().Debug().Str("url", sitemapURL).
				Msg("Sitemap: directive does not look like a URL, skipping")
			continue
		}
		if _, ok := seen[sitemapURL]; ok {
			continue
		}
		seen[sitemapURL] = struct{}{}
		sitemapURLs = append(sitemapURLs, sitemapURL)
	}

	subSitemaps := fetchSubSitemapsInOrder(ctx, sitemapURLs, recursionLevel, cfg)

	return &IndexRobotsTxtSitemap{URL: url, SubSitemaps: subSitemaps}
}
