package sitemap

import "strings"

// parsePlainTextSitemap parses a one-URL-per-line sitemap (spec §4.4).
// Blank lines are skipped; lines that don't look like an HTTP(S) URL are
// logged and dropped rather than failing the whole document.
func parsePlainTextSitemap(url, content string) AbstractSitemap {
	seen := make(map[string]struct{})
	var pages []SitemapPage

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !IsHTTPURL(line) {
			defaultZerologLogger().Warn().Str("line", line).Str("sitemap", url).
				Msg("plain-text sitemap line does not look like a URL, skipping")
			continue
		}
		normalized, err := NormalizeURL(line)
		if err != nil {
			defaultZerologLogger().Warn().Str("line", line).Str("sitemap", url).Err(err).
				Msg("plain-text sitemap line failed to normalize, skipping")
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		pages = append(pages, SitemapPage{
			URL:             normalized,
			ChangeFrequency: ChangeFrequencyAlways,
			Priority:        DefaultPriority,
		})
	}

	return &PagesTextSitemap{URL: url, Pages: pages}
}
