package sitemap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// erroringUserAgent never succeeds, so tests can exercise directive
// extraction without needing the sub-sitemap URLs to actually resolve.
type erroringUserAgent struct{}

func (erroringUserAgent) Get(ctx context.Context, url string) (Response, error) {
	return nil, errors.New("network disabled in test")
}

func TestParseRobotsTXTExtractsDirectives(t *testing.T) {
	content := "User-agent: *\n" +
		"Disallow: /private\n" +
		"Sitemap: https://example.com/sitemap1.xml\n" +
		"sitemap: https://example.com/sitemap2.xml\n" +
		"Sitemap:   https://example.com/sitemap1.xml   \n" + // duplicate, ignored
		"Sitemap: not-a-url\n"

	cfg := newConfig([]Option{WithUserAgent(erroringUserAgent{})})

	result := parseRobotsTXT(context.Background(), "https://example.com/robots.txt", content, 0, cfg)

	robots, ok := result.(*IndexRobotsTxtSitemap)
	require.True(t, ok)
	require.Len(t, robots.SubSitemaps, 2)

	assert.Equal(t, "https://example.com/sitemap1.xml", robots.SubSitemaps[0].SitemapURL())
	assert.Equal(t, "https://example.com/sitemap2.xml", robots.SubSitemaps[1].SitemapURL())
}

func TestParseRobotsTXTPreservesURLPathCasing(t *testing.T) {
	// Only the "Sitemap:" keyword is matched case-insensitively; the URL's
	// path casing survives extraction (host/scheme casing is still folded
	// by the fetcher's own NormalizeURL step, a separate concern).
	content := "Sitemap: https://Example.com/Sitemap-MixedCase.xml\n"

	cfg := newConfig([]Option{WithUserAgent(erroringUserAgent{})})
	result := parseRobotsTXT(context.Background(), "https://example.com/robots.txt", content, 0, cfg)

	robots := result.(*IndexRobotsTxtSitemap)
	require.Len(t, robots.SubSitemaps, 1)
	assert.Equal(t, "https://example.com/Sitemap-MixedCase.xml", robots.SubSitemaps[0].SitemapURL())
}

func TestParseRobotsTXTNoDirectives(t *testing.T) {
	content := "User-agent: *\nDisallow: /\n"

	cfg := newConfig([]Option{WithUserAgent(erroringUserAgent{})})
	result := parseRobotsTXT(context.Background(), "https://example.com/robots.txt", content, 0, cfg)

	robots := result.(*IndexRobotsTxtSitemap)
	assert.Empty(t, robots.SubSitemaps)
	assert.Empty(t, robots.AllPages())
}
