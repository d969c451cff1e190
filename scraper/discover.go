package scraper

import (
	"context"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"contact-scraper/models"
	"contact-scraper/scraper/sources"
	"contact-scraper/utils"
)

// ErrNoSources is returned when none of the requested source ids is registered.
var ErrNoSources = eris.New("no valid sources selected")

// DiscoveryResult is the outcome of one discovery run.
type DiscoveryResult struct {
	Roster     []models.Agent
	RawRecords int
	BySource   map[string]int
	Stats      Stats
}

// Discoverer crawls listing sources into a deduplicated roster.
type Discoverer struct {
	registry   *sources.Registry
	dispatcher *Dispatcher
	city       string
	logger     *utils.Logger
}

// NewDiscoverer creates a Discoverer. city is stamped on every roster record.
func NewDiscoverer(registry *sources.Registry, dispatcher *Dispatcher, city string, logger *utils.Logger) *Discoverer {
	return &Discoverer{
		registry:   registry,
		dispatcher: dispatcher,
		city:       city,
		logger:     logger,
	}
}

// Resolve maps source ids to adapters, warning about unknown ids. It fails
// when nothing valid remains.
func (d *Discoverer) Resolve(ids []string) ([]sources.Adapter, error) {
	adapters, unknown := d.registry.Select(ids)
	for _, id := range unknown {
		d.logger.Warn("ignoring unknown source", zap.String("source", id))
	}
	if len(adapters) == 0 {
		return nil, ErrNoSources
	}
	return adapters, nil
}

// Seeds drains every adapter's seed sequence: sources in the order given,
// pages ascending within a source.
func Seeds(adapters []sources.Adapter, limit int) []models.CrawlRequest {
	var out []models.CrawlRequest
	for _, a := range adapters {
		for seed := range a.Seeds(limit) {
			out = append(out, models.CrawlRequest{URL: seed.URL, Label: seed.Label})
		}
	}
	return out
}

// Run crawls the selected sources and returns the roster, unique by NameKey.
// On cancellation the partial roster is returned along with the error.
func (d *Discoverer) Run(ctx context.Context, ids []string, limit int) (*DiscoveryResult, error) {
	adapters, err := d.Resolve(ids)
	if err != nil {
		return nil, err
	}

	seeds := Seeds(adapters, limit)
	d.logger.Info("discovery queued",
		zap.Int("sources", len(adapters)),
		zap.Int("requests", len(seeds)))

	var (
		acc      utils.Accumulator[models.Agent]
		mu       sync.Mutex
		bySource = make(map[string]int)
	)

	stats, runErr := d.dispatcher.Run(ctx, seeds, func(_ context.Context, req models.CrawlRequest, doc *goquery.Document) []models.CrawlRequest {
		a, ok := d.registry.ByLabel(req.Label)
		if !ok {
			d.logger.Warn("no parser for label", zap.String("label", req.Label), zap.String("url", req.URL))
			return nil
		}

		rows := a.Parse(doc)
		for i := range rows {
			rows[i].City = d.city
		}
		acc.Append(rows...)

		mu.Lock()
		bySource[a.ID()] += len(rows)
		mu.Unlock()

		d.logger.Info("parsed agents", zap.Int("count", len(rows)), zap.String("url", req.URL))
		return nil
	})

	raw := acc.Items()
	result := &DiscoveryResult{
		Roster:     utils.DedupeBy(raw, func(r models.Agent) string { return utils.NameKey(r.Name) }),
		RawRecords: len(raw),
		BySource:   bySource,
		Stats:      stats,
	}
	if runErr != nil {
		return result, eris.Wrap(runErr, "discovery interrupted")
	}
	return result, nil
}
