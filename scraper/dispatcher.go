// Package scraper runs the two crawl phases: discovery over listing sources
// and enrichment over search results. Both phases share one dispatcher that
// drains a work queue through a bounded worker pool.
package scraper

import (
	"context"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"contact-scraper/fetcher"
	"contact-scraper/models"
	"contact-scraper/utils"
)

// Handler processes one fetched page and returns follow-up requests.
type Handler func(ctx context.Context, req models.CrawlRequest, doc *goquery.Document) []models.CrawlRequest

// Stats counts what happened to the requests of one run.
type Stats struct {
	Queued  int
	Fetched int
	Failed  int
}

// Dispatcher feeds a shared queue through the fetch engine.
type Dispatcher struct {
	fetcher     fetcher.Fetcher
	concurrency int
	rateLimitMs int
	logger      *utils.Logger
}

// NewDispatcher creates a Dispatcher with the given in-flight fetch bound.
func NewDispatcher(f fetcher.Fetcher, concurrency, rateLimitMs int, logger *utils.Logger) *Dispatcher {
	return &Dispatcher{
		fetcher:     f,
		concurrency: concurrency,
		rateLimitMs: rateLimitMs,
		logger:      logger,
	}
}

// Run queues seeds in order and processes requests until the queue drains or
// ctx is cancelled. Failed fetches are logged and dropped. A request is queued
// at most once per (person, URL) pair.
func (d *Dispatcher) Run(ctx context.Context, seeds []models.CrawlRequest, handle Handler) (Stats, error) {
	var fetched, failed atomic.Int64

	q := utils.NewWorkQueue[models.CrawlRequest]()
	seen := utils.NewKeySet()
	enqueue := func(reqs []models.CrawlRequest) {
		for _, r := range reqs {
			if seen.Add(requestKey(r)) {
				q.Push(r)
			}
		}
	}
	enqueue(seeds)

	pool := utils.NewWorkerPool[models.CrawlRequest](d.concurrency, d.rateLimitMs)
	err := pool.Run(ctx, q, func(ctx context.Context, req models.CrawlRequest) {
		doc, err := d.fetcher.Fetch(ctx, req.URL)
		if err != nil {
			failed.Add(1)
			d.logger.Warn("fetch failed, dropping request",
				zap.String("url", req.URL),
				zap.String("label", req.Label),
				zap.Error(err))
			return
		}
		fetched.Add(1)
		enqueue(handle(ctx, req, doc))
	})

	return Stats{
		Queued:  seen.Size(),
		Fetched: int(fetched.Load()),
		Failed:  int(failed.Load()),
	}, err
}

func requestKey(r models.CrawlRequest) string {
	return utils.NameKey(r.Person) + "\x00" + r.URL
}
