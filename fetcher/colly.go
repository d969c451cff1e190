package fetcher

import (
	"context"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"github.com/gocolly/colly/v2/proxy"
	"github.com/rotisserie/eris"

	"contact-scraper/utils"
)

const (
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTimeout     = 60 * time.Second
	defaultParallelism = 5
	retryBaseDelay     = 2 * time.Second
)

// CollyFetcher fetches pages over plain HTTP with a shared colly backend, so
// per-domain parallelism limits and proxy rotation apply across all workers.
type CollyFetcher struct {
	base     *colly.Collector
	retry    *utils.RetryConfig
	randomUA bool
}

// NewCollyFetcher builds the HTTP engine.
func NewCollyFetcher(opts Options, logger *utils.Logger) (*CollyFetcher, error) {
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	timeout := defaultTimeout
	if opts.TimeoutSecs > 0 {
		timeout = time.Duration(opts.TimeoutSecs) * time.Second
	}
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = defaultParallelism
	}

	c := colly.NewCollector(
		colly.UserAgent(ua),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(timeout)

	if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: parallelism}); err != nil {
		return nil, eris.Wrap(err, "fetcher: set limit rule")
	}

	if len(opts.Proxies) > 0 {
		switcher, err := proxy.RoundRobinProxySwitcher(opts.Proxies...)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: configure proxies")
		}
		c.SetProxyFunc(switcher)
	}

	return &CollyFetcher{
		base:     c,
		randomUA: opts.RandomUserAgent,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries + 1,
			BaseDelay:   retryBaseDelay,
			Logger:      logger,
		},
	}, nil
}

// Fetch retrieves rawURL. Client errors other than 429 are not retried.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	var doc *goquery.Document

	err := f.retry.Do(ctx, "fetch "+rawURL, func() error {
		c := f.base.Clone()
		c.Context = ctx
		if f.randomUA {
			extensions.RandomUserAgent(c)
		}

		var (
			body     []byte
			finalURL = rawURL
			status   int
		)
		c.OnResponse(func(r *colly.Response) {
			body = r.Body
			finalURL = r.Request.URL.String()
		})
		c.OnError(func(r *colly.Response, _ error) {
			if r != nil {
				status = r.StatusCode
			}
		})

		if err := c.Visit(rawURL); err != nil {
			if ctx.Err() != nil {
				return utils.Permanent(ctx.Err())
			}
			if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
				return utils.Permanent(eris.Wrapf(err, "status %d", status))
			}
			return err
		}

		parsed, err := parseDocument(body, finalURL)
		if err != nil {
			return utils.Permanent(err)
		}
		doc = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Close is a no-op; the HTTP backend holds no resources worth releasing.
func (f *CollyFetcher) Close() error {
	return nil
}
