package scraper

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// fakeFetcher serves canned HTML by URL and records every fetch.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages}
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*goquery.Document, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, rawURL)
	html, ok := f.pages[rawURL]
	f.mu.Unlock()

	if !ok {
		return nil, eris.Errorf("no page for %s", rawURL)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *fakeFetcher) Close() error { return nil }

func (f *fakeFetcher) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.fetched))
	copy(out, f.fetched)
	return out
}
