package fetcher

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"contact-scraper/utils"
)

const defaultSettle = 3 * time.Second

// BrowserFetcher renders pages in headless Chrome for sources whose listings
// are built client-side. One browser is shared; every fetch opens its own tab.
type BrowserFetcher struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	retry      *utils.RetryConfig
	timeout    time.Duration
	settle     time.Duration
}

// NewBrowserFetcher starts headless Chrome.
func NewBrowserFetcher(opts Options, logger *utils.Logger) (*BrowserFetcher, error) {
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	timeout := defaultTimeout
	if opts.TimeoutSecs > 0 {
		timeout = time.Duration(opts.TimeoutSecs) * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(ua),
	)
	chromeBin := opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}
	proxy, ignored := browserProxy(opts.Proxies)
	if proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(proxy))
	}
	if ignored > 0 {
		logger.Warn("browser engine uses only the first proxy; use the colly engine to rotate",
			zap.String("proxy", proxy), zap.Int("ignored", ignored))
	}
	logger.Info("starting headless browser", zap.String("binary", chromeBin))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}

	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, eris.Wrap(err, "fetcher: start browser")
	}

	return &BrowserFetcher{
		browserCtx: browserCtx,
		cancel:     cancel,
		timeout:    timeout,
		settle:     defaultSettle,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries + 1,
			BaseDelay:   retryBaseDelay,
			Logger:      logger,
		},
	}, nil
}

// browserProxy picks the proxy Chrome is launched with. Chrome takes one proxy
// per process, so the rest are reported as ignored.
func browserProxy(proxies []string) (proxy string, ignored int) {
	if len(proxies) == 0 {
		return "", 0
	}
	return proxies[0], len(proxies) - 1
}

// Fetch navigates a fresh tab to rawURL and returns the rendered DOM.
func (b *BrowserFetcher) Fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	var doc *goquery.Document

	err := b.retry.Do(ctx, "render "+rawURL, func() error {
		tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
		defer cancelTab()
		stop := context.AfterFunc(ctx, cancelTab)
		defer stop()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
		defer cancelTimeout()

		var html string
		err := chromedp.Run(tabCtx,
			chromedp.Navigate(rawURL),
			chromedp.Sleep(b.settle),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err != nil {
			if ctx.Err() != nil {
				return utils.Permanent(ctx.Err())
			}
			return eris.Wrap(err, "chromedp render")
		}

		parsed, err := parseDocument([]byte(html), rawURL)
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

// Close shuts the browser down.
func (b *BrowserFetcher) Close() error {
	b.cancel()
	return nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
