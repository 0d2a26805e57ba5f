package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// xmlElementHandler is the common callback surface both concrete XML
// parsers implement, standing in for expat's StartElementHandler/
// EndElementHandler/CharacterDataHandler triplet (spec §4.6, §9).
type xmlElementHandler interface {
	xmlStart(name string)
	xmlEnd(name string)
	xmlCharData(data string)
}

// xmlCharBuffer implements the character-data accumulation rule shared by
// both concrete parsers: text is appended while consecutive calls are all
// char-data calls, a non-char-data call arms the next char-data call to
// replace rather than append, and every end-element call consumes and
// clears the buffer (spec §4.6).
type xmlCharBuffer struct {
	data            string
	lastWasCharData bool
}

func (b *xmlCharBuffer) start() {
	b.lastWasCharData = false
}

func (b *xmlCharBuffer) charData(s string) {
	if b.lastWasCharData {
		b.data += s
	} else {
		b.data = s
	}
	b.lastWasCharData = true
}

// end returns the accumulated character data and resets the buffer.
func (b *xmlCharBuffer) end() string {
	data := b.data
	b.data = ""
	b.lastWasCharData = false
	return data
}

// parseXMLSitemap drives a streaming, namespace-aware decode of content and
// dispatches to the index or pages parser based on the root element (spec
// §4.6). A decode error mid-stream -- most commonly a sitemap truncated by
// a timed-out webserver -- is logged and whatever the concrete parser had
// already accumulated is returned, rather than aborting the document (spec
// §4.6, §7 XMLParsingError, §8 scenario D).
func parseXMLSitemap(ctx context.Context, url, content string, recursionLevel int, cfg *Config) AbstractSitemap {
	decoder := xml.NewDecoder(strings.NewReader(content))
	decoder.CharsetReader = charset.NewReaderLabel

	var concrete xmlElementHandler

	for {
		tok, err := decoder.Token()
		if err != nil {
			if err != io.EOF {
				cfg.logger().Error().Err(&XMLParsingError{URL: url, Err: err}).Str("url", url).
					Msg("sitemap XML ended prematurely, returning partial result")
			}
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := normalizeXMLName(t.Name)
			if concrete == nil {
				switch name {
				case "sitemap:urlset":
					concrete = &pagesXMLParserState{}
				case "sitemap:sitemapindex":
					concrete = &indexXMLParserState{seen: map[string]struct{}{}}
				default:
					cfg.logger().Error().Str("url", url).Str("root", name).
						Msg("unsupported sitemap root element")
					return &InvalidSitemap{URL: url, Reason: fmt.Sprintf("No parsers support sitemap from %s", url)}
				}
			}
			concrete.xmlStart(name)

		case xml.EndElement:
			if concrete == nil {
				continue
			}
			concrete.xmlEnd(normalizeXMLName(t.Name))

		case xml.CharData:
			if concrete == nil {
				continue
			}
			concrete.xmlCharData(string(t))
		}
	}

	if concrete == nil {
		return &InvalidSitemap{URL: url, Reason: fmt.Sprintf("No parsers support sitemap from %s", url)}
	}

	switch cp := concrete.(type) {
	case *pagesXMLParserState:
		return cp.result(url)
	case *indexXMLParserState:
		return cp.result(ctx, url, recursionLevel, cfg)
	default:
		return &InvalidSitemap{URL: url, Reason: "internal error: unknown concrete sitemap parser"}
	}
}

// normalizeXMLName implements the namespace-rewrite rule from spec §4.6:
// elements in a "/sitemap/" namespace are rewritten to "sitemap:<local>",
// elements in a "/sitemap-news/" namespace to "news:<local>", and anything
// else keeps its bare local name.
func normalizeXMLName(name xml.Name) string {
	switch {
	case strings.Contains(name.Space, "/sitemap-news/"):
		return "news:" + name.Local
	case strings.Contains(name.Space, "/sitemap/"):
		return "sitemap:" + name.Local
	default:
		return name.Local
	}
}
