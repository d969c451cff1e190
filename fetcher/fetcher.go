// Package fetcher provides the page fetch engines the crawl phases dispatch
// through. Engines own retries, proxies and transport pacing; callers only
// see a parsed document or an error.
package fetcher

import (
	"bytes"
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// Fetcher retrieves one page and parses it as HTML.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*goquery.Document, error)
	Close() error
}

// Engine names accepted by New.
const (
	EngineColly   = "colly"
	EngineBrowser = "browser"
)

// Options configures whichever engine New builds.
type Options struct {
	Engine          string
	UserAgent       string
	RandomUserAgent bool
	TimeoutSecs     int
	MaxRetries      int
	Parallelism     int
	Proxies         []string
	ChromeBin       string
}

func parseDocument(body []byte, pageURL string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse html")
	}
	if u, err := url.Parse(pageURL); err == nil {
		doc.Url = u
	}
	return doc, nil
}
