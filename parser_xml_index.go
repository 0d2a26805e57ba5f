package sitemap

import "context"

// indexXMLParserState is the C7 index XML parser: it collects <loc>
// entries under <sitemapindex> and, on result(), recursively fetches each
// one at recursionLevel+1 (spec §4.7).
type indexXMLParserState struct {
	buf  xmlCharBuffer
	urls []string
	seen map[string]struct{}
}

func (p *indexXMLParserState) xmlStart(name string) {
	p.buf.start()
}

func (p *indexXMLParserState) xmlEnd(name string) {
	data := p.buf.end()

	if name != "sitemap:loc" {
		return
	}

	subSitemapURL := htmlUnescapeStrip(data)
	if !IsHTTPURL(subSitemapURL) {
		defaultZerologLogger().Warn().Str("url", subSitemapURL).
			Msg("sub-sitemap URL does not look like one, skipping")
		return
	}
	if p.seen == nil {
		p.seen = map[string]struct{}{}
	}
	if _, ok := p.seen[subSitemapURL]; ok {
		return
	}
	p.seen[subSitemapURL] = struct{}{}
	p.urls = append(p.urls, subSitemapURL)
}

func (p *indexXMLParserState) xmlCharData(data string) {
	p.buf.charData(data)
}

func (p *indexXMLParserState) result(ctx context.Context, url string, recursionLevel int, cfg *Config) AbstractSitemap {
	subSitemaps := fetchSubSitemapsInOrder(ctx, p.urls, recursionLevel+1, cfg)
	return &IndexXMLSitemap{URL: url, SubSitemaps: subSitemaps}
}
