// Command sitemaptree discovers a site's sitemap tree from its homepage
// URL and prints a short summary: the number of distinct pages found, how
// many sub-sitemaps failed, and (with -v) every page URL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	sitemap "github.com/mediacloud/sitemap-tree"
)

func main() {
	var (
		timeout    = flag.Duration("timeout", 10*time.Second, "per-request fetch timeout")
		verbose    = flag.Bool("v", false, "print every discovered page URL")
		sequential = flag.Bool("sequential", false, "disable concurrent sub-sitemap fetches")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sitemaptree [flags] <homepage-url>")
		os.Exit(2)
	}
	homepage := flag.Arg(0)

	tree := sitemap.SitemapTreeForHomepage(
		context.Background(),
		homepage,
		sitemap.WithFetchTimeout(*timeout),
		sitemap.WithConcurrentFetch(!*sequential),
	)

	if invalid, ok := tree.(*sitemap.InvalidSitemap); ok {
		fmt.Fprintf(os.Stderr, "sitemaptree: %s\n", invalid.Reason)
		os.Exit(1)
	}

	pages := tree.AllPages()
	invalidCount := countInvalid(tree)

	fmt.Printf("%s: %d pages discovered, %d sub-sitemaps failed\n", homepage, len(pages), invalidCount)

	if *verbose {
		for _, p := range pages {
			fmt.Println(p.URL)
		}
	}
}

// countInvalid walks the tree counting InvalidSitemap leaves, giving a
// quick signal of how much of the advertised graph could not be read.
func countInvalid(node sitemap.AbstractSitemap) int {
	switch n := node.(type) {
	case *sitemap.InvalidSitemap:
		return 1
	case *sitemap.IndexRobotsTxtSitemap:
		return countInvalidAll(n.SubSitemaps)
	case *sitemap.IndexXMLSitemap:
		return countInvalidAll(n.SubSitemaps)
	default:
		return 0
	}
}

func countInvalidAll(nodes []sitemap.AbstractSitemap) int {
	total := 0
	for _, n := range nodes {
		total += countInvalid(n)
	}
	return total
}
