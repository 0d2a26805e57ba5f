package sitemap

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Config holds the tunables every SitemapFetcher and parser in a single
// sitemap_tree_for_homepage call shares. It generalizes the teacher's
// chainable config struct (userAgent, fetchTimeout, multiThread) into a
// functional-options surface.
type Config struct {
	userAgent         UserAgent
	logger            *zerolog.Logger
	maxRecursionLevel int
	concurrentFetch   bool
}

// Option configures a Config; see With* constructors below.
type Option func(*Config)

// WithUserAgent injects a custom UserAgent, e.g. a mock for tests or one
// configured with a different timeout/retry policy.
func WithUserAgent(ua UserAgent) Option {
	return func(c *Config) { c.userAgent = ua }
}

// WithFetchTimeout sets the per-request timeout on the *HTTPUserAgent
// configured at the point this option is applied: the default one, or one
// passed to an earlier WithUserAgent. It has no effect on any other
// UserAgent implementation, and a later WithUserAgent replaces the agent
// it was applied to.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if ua, ok := c.userAgent.(*HTTPUserAgent); ok {
			ua.Client.Timeout = timeout
		}
	}
}

// WithLogger overrides the package's default console logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Config) { c.logger = logger }
}

// WithMaxRecursionLevel overrides MaxRecursionLevel (spec §3 invariant 6,
// default 10). Mostly useful for tests that want to exercise the ceiling
// without nesting ten real sitemaps.
func WithMaxRecursionLevel(n int) Option {
	return func(c *Config) { c.maxRecursionLevel = n }
}

// WithConcurrentFetch toggles concurrent fetching of sibling sub-sitemaps,
// generalizing the teacher's SetMultiThread. Concurrency never reorders
// results; document order is preserved regardless (spec §5).
func WithConcurrentFetch(concurrent bool) Option {
	return func(c *Config) { c.concurrentFetch = concurrent }
}

func newConfig(opts []Option) *Config {
	cfg := &Config{
		userAgent:         NewHTTPUserAgent(),
		maxRecursionLevel: MaxRecursionLevel,
		concurrentFetch:   true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if ua, ok := cfg.userAgent.(*HTTPUserAgent); ok && ua.Logger == nil {
		ua.Logger = cfg.logger
	}
	return cfg
}

func (c *Config) logger() *zerolog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return defaultZerologLogger()
}

// SitemapFetcher is the C9 orchestrator: given a URL and the recursion
// level it is being fetched at, it retrieves the body, sniffs its format,
// and dispatches to the matching parser (spec §4.9).
type SitemapFetcher struct {
	url            string
	recursionLevel int
	cfg            *Config
}

// newSitemapFetcher validates url and recursionLevel and normalizes url,
// per spec §4.9's constructor contract.
func newSitemapFetcher(url string, recursionLevel int, cfg *Config) (*SitemapFetcher, error) {
	if recursionLevel > cfg.maxRecursionLevel {
		return nil, &RecursionLimitError{URL: url, Level: recursionLevel, Max: cfg.maxRecursionLevel}
	}

	fixed := FixCommonURLMistakes(url)
	if !IsHTTPURL(fixed) {
		return nil, &InvalidURLError{URL: url, Reason: "not an HTTP(s) URL"}
	}

	normalized, err := NormalizeURL(fixed)
	if err != nil {
		return nil, err
	}

	return &SitemapFetcher{url: normalized, recursionLevel: recursionLevel, cfg: cfg}, nil
}

// Sitemap fetches and parses the sitemap at f.url (spec §4.9 steps 1-4).
func (f *SitemapFetcher) Sitemap(ctx context.Context) AbstractSitemap {
	f.cfg.logger().Info().Str("url", f.url).Int("level", f.recursionLevel).Msg("fetching sitemap")

	resp, err := f.cfg.userAgent.Get(ctx, f.url)
	if err != nil {
		return &InvalidSitemap{URL: f.url, Reason: (&FetchError{URL: f.url, Err: err}).Error()}
	}
	if !resp.IsSuccess() {
		return &InvalidSitemap{URL: f.url, Reason: (&FetchError{URL: f.url, Err: statusError(resp.StatusLine())}).Error()}
	}

	content, err := ungzippedResponseContent(f.url, resp)
	if err != nil {
		return &InvalidSitemap{URL: f.url, Reason: err.Error()}
	}

	trimmed := strings.TrimSpace(content)
	peek := trimmed
	if len(peek) > 20 {
		peek = peek[:20]
	}

	switch {
	case strings.HasPrefix(peek, "<"):
		return parseXMLSitemap(ctx, f.url, content, f.recursionLevel, f.cfg)
	case strings.HasSuffix(f.url, "/robots.txt"):
		return parseRobotsTXT(ctx, f.url, content, f.recursionLevel, f.cfg)
	default:
		return parsePlainTextSitemap(f.url, content)
	}
}

type statusErr string

func (e statusErr) Error() string { return string(e) }

func statusError(statusLine string) error { return statusErr(statusLine) }

// fetchSubSitemapsInOrder fetches every URL in urls via a new SitemapFetcher
// at recursionLevel, preserving document order in the returned slice
// regardless of whether fetches run concurrently (spec §5). Any failure to
// construct or run a fetcher -- including a recursion-limit breach --
// becomes an InvalidSitemap leaf at that URL; it never aborts its siblings
// (spec invariant 7, and the original's exception-swallowing behavior
// documented in SPEC_FULL.md §5.1).
func fetchSubSitemapsInOrder(ctx context.Context, urls []string, recursionLevel int, cfg *Config) []AbstractSitemap {
	results := make([]AbstractSitemap, len(urls))
	if len(urls) == 0 {
		return nil
	}

	fetchOne := func(i int) {
		subURL := urls[i]
		fetcher, err := newSitemapFetcher(subURL, recursionLevel, cfg)
		if err != nil {
			results[i] = &InvalidSitemap{URL: subURL, Reason: err.Error()}
			return
		}
		results[i] = fetcher.Sitemap(ctx)
	}

	if !cfg.concurrentFetch || len(urls) == 1 {
		for i := range urls {
			fetchOne(i)
		}
		return results
	}

	g, _ := errgroup.WithContext(ctx)
	for i := range urls {
		i := i
		g.Go(func() error {
			fetchOne(i)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
