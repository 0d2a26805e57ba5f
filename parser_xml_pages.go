package sitemap

import (
	"html"
	"strconv"
	"strings"
	"time"
)

// pagesXMLBuilder accumulates the raw, unvalidated string fields for a
// single <url> entry while parsing, mirroring the Python original's
// dataclass-per-page accumulator (fetchers.py's PagesXMLSitemapParser.Page).
// It is comparable so the parser can de-duplicate structurally-equal
// entries per spec invariant 5.
type pagesXMLBuilder struct {
	url             string
	lastModified    string
	changeFrequency string
	priority        string

	newsTitle               string
	newsPublishDate         string
	newsPublicationName     string
	newsPublicationLanguage string
	newsAccess              string
	newsGenres              string
	newsKeywords            string
	newsStockTickers        string
}

// pagesXMLParserState is the C8 pages XML parser: it accumulates page and
// news-story fields under <urlset> and emits SitemapPage values on result()
// (spec §4.8).
type pagesXMLParserState struct {
	buf     xmlCharBuffer
	current *pagesXMLBuilder
	emitted []pagesXMLBuilder
}

func (p *pagesXMLParserState) xmlStart(name string) {
	p.buf.start()

	if name == "sitemap:url" {
		p.current = &pagesXMLBuilder{}
	}
}

func (p *pagesXMLParserState) xmlEnd(name string) {
	data := p.buf.end()

	if name == "sitemap:url" {
		if p.current != nil {
			p.appendIfNew(*p.current)
			p.current = nil
		}
		return
	}

	if p.current == nil {
		// Tolerate stray closing tags outside of <url> (e.g. malformed
		// documents) rather than aborting the whole parse.
		return
	}

	switch name {
	case "sitemap:loc":
		p.current.url = data
	case "sitemap:lastmod":
		p.current.lastModified = data
	case "sitemap:changefreq":
		p.current.changeFrequency = data
	case "sitemap:priority":
		p.current.priority = data
	case "news:name":
		p.current.newsPublicationName = data
	case "news:language":
		p.current.newsPublicationLanguage = data
	case "news:publication_date":
		p.current.newsPublishDate = data
	case "news:title":
		p.current.newsTitle = data
	case "news:access":
		p.current.newsAccess = data
	case "news:genres":
		p.current.newsGenres = data
	case "news:keywords":
		p.current.newsKeywords = data
	case "news:stock_tickers":
		p.current.newsStockTickers = data
	default:
		// xhtml:link and any other namespace we don't understand: ignored,
		// but the buffer was still consumed above (spec §4.8).
	}
}

func (p *pagesXMLParserState) xmlCharData(data string) {
	p.buf.charData(data)
}

func (p *pagesXMLParserState) appendIfNew(b pagesXMLBuilder) {
	for _, existing := range p.emitted {
		if existing == b {
			return
		}
	}
	p.emitted = append(p.emitted, b)
}

func (p *pagesXMLParserState) result(url string) AbstractSitemap {
	pages := make([]SitemapPage, 0, len(p.emitted))
	for _, b := range p.emitted {
		if page, ok := b.toPage(); ok {
			pages = append(pages, page)
		}
	}
	return &PagesXMLSitemap{URL: url, Pages: pages}
}

// toPage implements the §4.8/§3 finalization rules: required URL,
// priority clamping, change-frequency fallback, and news-story emission
// iff both title and publish date are present.
func (b pagesXMLBuilder) toPage() (SitemapPage, bool) {
	rawURL := htmlUnescapeStrip(b.url)
	if rawURL == "" {
		return SitemapPage{}, false
	}

	normalizedURL, err := NormalizeURL(rawURL)
	if err != nil {
		defaultZerologLogger().Warn().Str("url", rawURL).Err(err).Msg("unable to normalize page URL, dropping")
		return SitemapPage{}, false
	}

	var lastModified *time.Time
	if raw := htmlUnescapeStrip(b.lastModified); raw != "" {
		if t, ok := parseSitemapDate(raw); ok {
			lastModified = &t
		}
	}

	changeFrequency := ChangeFrequencyAlways
	if raw := htmlUnescapeStrip(b.changeFrequency); raw != "" {
		candidate := ChangeFrequency(strings.ToLower(raw))
		if isValidChangeFrequency(candidate) {
			changeFrequency = candidate
		} else {
			defaultZerologLogger().Warn().Str("value", raw).Msg("invalid changefreq, defaulting to always")
		}
	}

	priority := DefaultPriority
	if raw := htmlUnescapeStrip(b.priority); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0.0 && v <= 1.0 {
			priority = v
		} else {
			defaultZerologLogger().Warn().Str("value", raw).Msg("priority not within [0, 1], defaulting to 0.5")
		}
	}

	newsTitle := htmlUnescapeStrip(b.newsTitle)
	var newsPublishDate time.Time
	var havePublishDate bool
	if raw := htmlUnescapeStrip(b.newsPublishDate); raw != "" {
		if t, ok := parseSitemapDate(raw); ok {
			newsPublishDate = t
			havePublishDate = true
		}
	}

	var newsStory *SitemapNewsStory
	if newsTitle != "" && havePublishDate {
		newsStory = &SitemapNewsStory{
			Title:               newsTitle,
			PublishDate:         newsPublishDate,
			PublicationName:     htmlUnescapeStrip(b.newsPublicationName),
			PublicationLanguage: htmlUnescapeStrip(b.newsPublicationLanguage),
			Access:              htmlUnescapeStrip(b.newsAccess),
			Genres:              splitCommaList(htmlUnescapeStrip(b.newsGenres)),
			Keywords:            splitCommaList(htmlUnescapeStrip(b.newsKeywords)),
			StockTickers:        splitCommaList(htmlUnescapeStrip(b.newsStockTickers)),
		}
	}

	return SitemapPage{
		URL:             normalizedURL,
		LastModified:    lastModified,
		ChangeFrequency: changeFrequency,
		Priority:        priority,
		NewsStory:       newsStory,
	}, true
}

func htmlUnescapeStrip(s string) string {
	return strings.TrimSpace(html.UnescapeString(s))
}

func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sitemapDateFormats is the W3C datetime profile plus RFC 822/1123,
// adapted from the teacher's lastModTime.UnmarshalXML format list
// (sitemap.go) but with the date-only/year-only entries removed: spec §6
// mandates rejecting timestamps that lack a time-of-day or timezone rather
// than accepting them, which the teacher's broader list did not enforce.
var sitemapDateFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04-07:00",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04Z",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

// parseSitemapDate parses an ISO 8601 (W3C datetime profile) or
// RFC 822/1123 timestamp. It reports ok=false -- not an error -- for
// anything else, per spec §6.
func parseSitemapDate(value string) (time.Time, bool) {
	for _, format := range sitemapDateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
