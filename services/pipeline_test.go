package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-scraper/config"
	"contact-scraper/models"
	"contact-scraper/scraper"
	"contact-scraper/scraper/sources"
	"contact-scraper/storage"
	"contact-scraper/utils"
)

type pageFetcher struct {
	pages map[string]string
}

func (f pageFetcher) Fetch(_ context.Context, rawURL string) (*goquery.Document, error) {
	html, ok := f.pages[rawURL]
	if !ok {
		return nil, eris.Errorf("no page for %s", rawURL)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (pageFetcher) Close() error { return nil }

type memStore struct {
	mu       sync.Mutex
	roster   []models.Agent
	contacts []models.Observation
}

func (s *memStore) WriteRoster(_ context.Context, roster []models.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = append(s.roster, roster...)
	return nil
}

func (s *memStore) ReadRoster(context.Context) ([]models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster, nil
}

func (s *memStore) WriteContacts(_ context.Context, contacts []models.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = append(s.contacts, contacts...)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Phase: config.PhaseDiscover,
		City:  "Jacksonville, FL",
		Discover: config.DiscoverConfig{
			Sources:        []string{"alpha", "beta"},
			LimitPerSource: 1,
			Concurrency:    3,
		},
		Enrich: config.EnrichConfig{
			MaxLinks:      5,
			Concurrency:   5,
			SearchBaseURL: "https://duckduckgo.com/",
		},
		Output: config.OutputConfig{
			Dir:           t.TempDir(),
			RosterName:    "PHASE1_NAMES",
			EnrichedName:  "PHASE2_ENRICHED",
			ContactExport: true,
			ContactFile:   "PHASE2_BREVO.csv",
		},
	}
}

func testPipeline(t *testing.T, cfg *config.Config, pages map[string]string, store Store) *Pipeline {
	t.Helper()
	reg := sources.NewRegistry()
	require.NoError(t, reg.RegisterSpecs([]sources.Spec{
		{ID: "alpha", Domain: "alpha.example", URL: "https://alpha.example/?p={page}", MaxPages: 5, Cards: ".agent"},
		{ID: "beta", Domain: "beta.example", URL: "https://beta.example/{page}", MaxPages: 5, Cards: ".agent"},
	}))
	return NewPipeline(cfg, Deps{
		Registry: reg,
		Fetcher:  pageFetcher{pages: pages},
		Files:    storage.NewFileStore(cfg.Output.Dir, cfg.Output.RosterName, cfg.Output.EnrichedName, cfg.Output.ContactFile),
		Store:    store,
		Logger:   utils.NewNopLogger(),
	})
}

func readOutput(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestPipelineDiscover(t *testing.T) {
	cfg := testConfig(t)
	store := &memStore{}
	p := testPipeline(t, cfg, map[string]string{
		"https://alpha.example/?p=1": `<div class="agent">bob smith</div><div class="agent">Ann Lee</div>`,
		"https://beta.example/1":     `<div class="agent">BOB SMITH</div>`,
	}, store)

	report, err := p.Discover(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Queued)
	assert.Equal(t, 3, report.RawRecords)
	assert.Equal(t, 2, report.Names)
	assert.Equal(t, map[string]int{"alpha": 2, "beta": 1}, report.BySource)
	assert.Contains(t, report.Outputs, "postgres:agents")
	assert.Len(t, store.roster, 2)

	csv := readOutput(t, cfg, "PHASE1_NAMES.csv")
	assert.True(t, strings.HasPrefix(csv, "name,city,source\n"))
	assert.Equal(t, 1, strings.Count(csv, "Bob Smith"))
}

func TestPipelineDiscoverNoValidSources(t *testing.T) {
	cfg := testConfig(t)
	cfg.Discover.Sources = []string{"zillow"}

	_, err := testPipeline(t, cfg, nil, nil).Discover(context.Background())
	require.ErrorIs(t, err, scraper.ErrNoSources)

	_, statErr := os.Stat(filepath.Join(cfg.Output.Dir, "PHASE1_NAMES.json"))
	assert.True(t, os.IsNotExist(statErr), "nothing is written on a configuration error")
}

func TestPipelineEnrichZeroObservationsWritesHeaderOnly(t *testing.T) {
	cfg := testConfig(t)
	files := storage.NewFileStore(cfg.Output.Dir, cfg.Output.RosterName, cfg.Output.EnrichedName, cfg.Output.ContactFile)
	require.NoError(t, files.WriteRoster(context.Background(), []models.Agent{
		{Name: "Ann Lee"}, {Name: "Bob Smith"}, {Name: "Kim Park"},
	}))

	report, err := testPipeline(t, cfg, nil, nil).Enrich(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Names)
	assert.Equal(t, 0, report.Contacts)
	assert.Equal(t, "name,phone,email,sourceUrl\n", readOutput(t, cfg, "PHASE2_ENRICHED.csv"))
	assert.Equal(t, "EMAIL,SMS,FIRSTNAME,LASTNAME,SOURCEURL\n", readOutput(t, cfg, "PHASE2_BREVO.csv"))
}

func TestPipelineEnrichFromNamesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Phase = config.PhaseEnrich
	cfg.Enrich.Sites = nil
	cfg.Output.Workbook = true
	namesPath := filepath.Join(cfg.Output.Dir, "names.csv")
	require.NoError(t, os.WriteFile(namesPath, []byte("Name\njane doe\n"), 0o644))
	cfg.Enrich.NamesURL = namesPath

	qs := scraper.BuildQueries(cfg.Enrich.SearchBaseURL, "jane doe", cfg.City, nil)
	store := &memStore{}
	p := testPipeline(t, cfg, map[string]string{
		qs[0]: `<body>Call 904.555.1234</body>`,
		qs[1]: `<body>Write Jane@Example.com</body>`,
	}, store)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Observations)
	assert.Equal(t, 1, report.Contacts)
	assert.Equal(t, 1, report.WithEmail)
	assert.Equal(t, 0, report.WithPhone)
	require.Len(t, store.contacts, 1)
	assert.Equal(t, "jane@example.com", store.contacts[0].Email, "the email observation outranks the phone one")

	assert.Equal(t, "EMAIL,SMS,FIRSTNAME,LASTNAME,SOURCEURL\n"+
		"jane@example.com,,Jane,Doe,"+storage.EscapeCSV(qs[1])+"\n", readOutput(t, cfg, "PHASE2_BREVO.csv"))
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "PHASE2_ENRICHED.xlsx"))
}

func TestPipelineEnrichFallsBackToStore(t *testing.T) {
	cfg := testConfig(t)
	store := &memStore{roster: []models.Agent{{Name: "Ann Lee"}}}

	report, err := testPipeline(t, cfg, nil, store).Enrich(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Names)
}

func TestPipelineEnrichWithoutNames(t *testing.T) {
	cfg := testConfig(t)
	_, err := testPipeline(t, cfg, nil, nil).Enrich(context.Background())
	require.ErrorIs(t, err, ErrNoNames)

	_, err = testPipeline(t, cfg, nil, &memStore{}).Enrich(context.Background())
	require.ErrorIs(t, err, ErrNoNames)
}
