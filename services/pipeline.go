package services

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"contact-scraper/config"
	"contact-scraper/fetcher"
	"contact-scraper/models"
	"contact-scraper/scraper"
	"contact-scraper/scraper/sources"
	"contact-scraper/storage"
	"contact-scraper/utils"
)

// ErrNoNames is returned when enrichment finds no name input at all.
var ErrNoNames = eris.New("no names to enrich: set enrich.names_url or run discover first")

// Store is the relational backend a pipeline mirrors its results into.
type Store interface {
	storage.RosterWriter
	storage.RosterReader
	storage.ContactWriter
}

// Deps are the collaborators a Pipeline runs with. Store and Client may be nil.
type Deps struct {
	Registry *sources.Registry
	Fetcher  fetcher.Fetcher
	Files    *storage.FileStore
	Store    Store
	Client   *http.Client
	Logger   *utils.Logger
}

// Pipeline runs one phase end to end: crawl, reduce, persist, report.
type Pipeline struct {
	cfg  *config.Config
	deps Deps
	now  func() time.Time
}

// NewPipeline creates a Pipeline.
func NewPipeline(cfg *config.Config, deps Deps) *Pipeline {
	return &Pipeline{cfg: cfg, deps: deps, now: time.Now}
}

// Run dispatches to the configured phase.
func (p *Pipeline) Run(ctx context.Context) (*models.RunReport, error) {
	if p.cfg.Phase == config.PhaseEnrich {
		return p.Enrich(ctx)
	}
	return p.Discover(ctx)
}

func (p *Pipeline) newReport(phase string) (*models.RunReport, *utils.Logger) {
	r := &models.RunReport{
		RunID:     uuid.NewString(),
		Phase:     phase,
		City:      p.cfg.City,
		StartedAt: p.now(),
	}
	return r, p.deps.Logger.With(zap.String("run_id", r.RunID), zap.String("phase", phase))
}

// Discover crawls the configured sources and persists the roster. The roster
// gathered so far is persisted even when the crawl is interrupted.
func (p *Pipeline) Discover(ctx context.Context) (*models.RunReport, error) {
	report, logger := p.newReport(config.PhaseDiscover)

	dispatcher := scraper.NewDispatcher(p.deps.Fetcher, p.cfg.Discover.Concurrency, p.cfg.Fetch.RateLimitMs, logger)
	discoverer := scraper.NewDiscoverer(p.deps.Registry, dispatcher, p.cfg.City, logger)

	res, runErr := discoverer.Run(ctx, p.cfg.Discover.Sources, p.cfg.Discover.LimitPerSource)
	if res == nil {
		return report, runErr
	}

	report.Queued, report.Fetched, report.Failed = res.Stats.Queued, res.Stats.Fetched, res.Stats.Failed
	report.RawRecords = res.RawRecords
	report.Names = len(res.Roster)
	report.BySource = res.BySource

	persistCtx := context.WithoutCancel(ctx)
	if err := p.deps.Files.WriteRoster(persistCtx, res.Roster); err != nil {
		return p.finish(report), err
	}
	report.Outputs = append(report.Outputs, p.deps.Files.RosterFiles()...)

	if p.deps.Store != nil {
		if err := p.deps.Store.WriteRoster(persistCtx, res.Roster); err != nil {
			return p.finish(report), err
		}
		report.Outputs = append(report.Outputs, "postgres:agents")
	}

	logger.Info("roster persisted",
		zap.Int("raw", res.RawRecords),
		zap.Int("names", len(res.Roster)),
		zap.Strings("files", p.deps.Files.RosterFiles()))
	return p.finish(report), runErr
}

// Enrich searches for every roster name, consolidates what it finds and
// writes the contact exports. Observations gathered before an interruption
// are still consolidated and persisted.
func (p *Pipeline) Enrich(ctx context.Context) (*models.RunReport, error) {
	report, logger := p.newReport(config.PhaseEnrich)

	names, err := p.resolveNames(ctx, logger)
	if err != nil {
		return p.finish(report), err
	}

	dispatcher := scraper.NewDispatcher(p.deps.Fetcher, p.cfg.Enrich.Concurrency, p.cfg.Fetch.RateLimitMs, logger)
	enricher := scraper.NewEnricher(scraper.EnrichOptions{
		City:          p.cfg.City,
		SearchBaseURL: p.cfg.Enrich.SearchBaseURL,
		Sites:         p.cfg.Enrich.Sites,
		MaxLinks:      p.cfg.Enrich.MaxLinks,
	}, dispatcher, logger)

	res, runErr := enricher.Run(ctx, names)
	report.Queued, report.Fetched, report.Failed = res.Stats.Queued, res.Stats.Fetched, res.Stats.Failed
	report.Names = res.Names
	report.Observations = len(res.Observations)

	contacts := NewConsolidator(logger).Consolidate(res.Observations)
	Tally(report, contacts)

	if err := p.writeContacts(context.WithoutCancel(ctx), report, contacts); err != nil {
		return p.finish(report), err
	}
	return p.finish(report), runErr
}

func (p *Pipeline) writeContacts(ctx context.Context, report *models.RunReport, contacts []models.Observation) error {
	files := p.deps.Files
	if err := files.WriteContacts(ctx, contacts); err != nil {
		return err
	}
	report.Outputs = append(report.Outputs, files.ContactFiles()...)

	var rows []models.ImportRow
	if p.cfg.Output.ContactExport || p.cfg.Output.Workbook {
		rows = ToImportRows(contacts)
	}
	if p.cfg.Output.ContactExport {
		if err := files.WriteImport(rows); err != nil {
			return err
		}
		report.Outputs = append(report.Outputs, files.ImportFile())
	}
	if p.cfg.Output.Workbook {
		path := filepath.Join(p.cfg.Output.Dir, p.cfg.Output.EnrichedName+".xlsx")
		if err := storage.WriteWorkbook(path, contacts, rows); err != nil {
			return err
		}
		report.Outputs = append(report.Outputs, path)
	}
	if p.deps.Store != nil {
		if err := p.deps.Store.WriteContacts(ctx, contacts); err != nil {
			return err
		}
		report.Outputs = append(report.Outputs, "postgres:contacts")
	}
	return nil
}

// resolveNames picks the enrichment input: an external name list when
// configured, else the persisted roster file, else the relational roster.
func (p *Pipeline) resolveNames(ctx context.Context, logger *utils.Logger) ([]string, error) {
	if src := p.cfg.Enrich.NamesURL; src != "" {
		names, err := storage.LoadNames(ctx, p.deps.Client, src)
		if err != nil {
			return nil, err
		}
		logger.Info("names loaded", zap.String("from", src), zap.Int("count", len(names)))
		return names, nil
	}

	roster, err := p.deps.Files.ReadRoster(ctx)
	switch {
	case err == nil:
		logger.Info("names loaded", zap.String("from", p.deps.Files.RosterFiles()[0]), zap.Int("count", len(roster)))
		return agentNames(roster), nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	case p.deps.Store == nil:
		return nil, ErrNoNames
	}

	roster, err = p.deps.Store.ReadRoster(ctx)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, ErrNoNames
	}
	logger.Info("names loaded", zap.String("from", "postgres:agents"), zap.Int("count", len(roster)))
	return agentNames(roster), nil
}

func agentNames(roster []models.Agent) []string {
	names := make([]string, len(roster))
	for i, a := range roster {
		names[i] = a.Name
	}
	return names
}

func (p *Pipeline) finish(r *models.RunReport) *models.RunReport {
	r.FinishedAt = p.now()
	return r
}
