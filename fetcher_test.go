package sitemap

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSitemapTreeForHomepageCanonicalTree(t *testing.T) {
	server := newFixtureServer(map[string]fixture{
		"/robots.txt": {body: "User-agent: *\nSitemap: http://HOST/sitemap-index.xml\n"},
		"/sitemap-index.xml": {contentType: "application/xml", body: `<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>http://HOST/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`},
		"/sitemap-pages.xml": {contentType: "application/xml", body: `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>http://HOST/page-1</loc></url>
  <url><loc>http://HOST/page-2</loc></url>
</urlset>`},
	})
	defer server.Close()

	tree := SitemapTreeForHomepage(context.Background(), server.URL)

	robots, ok := tree.(*IndexRobotsTxtSitemap)
	require.True(t, ok)
	require.Len(t, robots.SubSitemaps, 1)

	index, ok := robots.SubSitemaps[0].(*IndexXMLSitemap)
	require.True(t, ok)
	require.Len(t, index.SubSitemaps, 1)

	pages := tree.AllPages()
	require.Len(t, pages, 2)
	assert.Equal(t, fmt.Sprintf("%s/page-1", server.URL), pages[0].URL)
	assert.Equal(t, fmt.Sprintf("%s/page-2", server.URL), pages[1].URL)
}

func TestSitemapTreeForHomepageMissingRobotsTxt(t *testing.T) {
	server := newFixtureServer(map[string]fixture{})
	defer server.Close()

	tree := SitemapTreeForHomepage(context.Background(), server.URL)

	invalid, ok := tree.(*InvalidSitemap)
	require.True(t, ok)
	assert.Empty(t, tree.AllPages())
	assert.Contains(t, invalid.Reason, "fetch")
}

func TestSitemapTreeForHomepageRobotsWithNoSitemapDirectives(t *testing.T) {
	server := newFixtureServer(map[string]fixture{
		"/robots.txt": {body: "User-agent: *\nDisallow: /private\n"},
	})
	defer server.Close()

	tree := SitemapTreeForHomepage(context.Background(), server.URL)

	robots, ok := tree.(*IndexRobotsTxtSitemap)
	require.True(t, ok)
	assert.Empty(t, robots.SubSitemaps)
	assert.Empty(t, tree.AllPages())
}

func TestSitemapTreeForHomepageGzippedSitemap(t *testing.T) {
	server := newFixtureServer(map[string]fixture{
		"/robots.txt": {body: "Sitemap: http://HOST/sitemap.xml.gz\n"},
		"/sitemap.xml.gz": {contentType: "application/gzip", gzipped: true, body: `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>http://HOST/gz-page</loc></url>
</urlset>`},
	})
	defer server.Close()

	tree := SitemapTreeForHomepage(context.Background(), server.URL)

	pages := tree.AllPages()
	require.Len(t, pages, 1)
	assert.Equal(t, fmt.Sprintf("%s/gz-page", server.URL), pages[0].URL)
}

func TestSitemapTreeForHomepagePlainTextSitemap(t *testing.T) {
	server := newFixtureServer(map[string]fixture{
		"/robots.txt":   {body: "Sitemap: http://HOST/sitemap.txt\n"},
		"/sitemap.txt": {contentType: "text/plain", body: "http://HOST/text-page-1\nhttp://HOST/text-page-2\n"},
	})
	defer server.Close()

	tree := SitemapTreeForHomepage(context.Background(), server.URL)

	pages := tree.AllPages()
	require.Len(t, pages, 2)
	assert.Equal(t, fmt.Sprintf("%s/text-page-1", server.URL), pages[0].URL)
	assert.Equal(t, fmt.Sprintf("%s/text-page-2", server.URL), pages[1].URL)
}

func TestSitemapTreeForHomepageLargeSitemap(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	const pageCount = 1000
	for i := 0; i < pageCount; i++ {
		fmt.Fprintf(&b, "<url><loc>http://HOST/page-%d</loc></url>", i)
	}
	b.WriteString("</urlset>")

	server := newFixtureServer(map[string]fixture{
		"/robots.txt":       {body: "Sitemap: http://HOST/big-sitemap.xml\n"},
		"/big-sitemap.xml": {contentType: "application/xml", body: b.String()},
	})
	defer server.Close()

	tree := SitemapTreeForHomepage(context.Background(), server.URL)

	assert.Len(t, tree.AllPages(), pageCount)
}

func TestSitemapTreeForHomepageRecursionLimit(t *testing.T) {
	fixtures := map[string]fixture{
		"/robots.txt": {body: "Sitemap: http://HOST/index-0.xml\n"},
	}
	// Each index points at the next, one level deeper than MaxRecursionLevel
	// allows; the tail is never reached and the chain terminates in an
	// InvalidSitemap rather than looping or erroring out the whole tree.
	for i := 0; i < MaxRecursionLevel+3; i++ {
		next := fmt.Sprintf("/index-%d.xml", i+1)
		fixtures[fmt.Sprintf("/index-%d.xml", i)] = fixture{contentType: "application/xml", body: fmt.Sprintf(`<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>http://HOST%s</loc></sitemap>
</sitemapindex>`, next)}
	}

	server := newFixtureServer(fixtures)
	defer server.Close()

	tree := SitemapTreeForHomepage(context.Background(), server.URL)

	assert.Empty(t, tree.AllPages())
}
