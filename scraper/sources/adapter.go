// Package sources holds the listing-site adapters used by the discovery crawl.
// Each adapter turns a page ceiling into seed requests and a fetched listing
// page into roster records; adding a site means registering one adapter.
package sources

import (
	"iter"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"contact-scraper/models"
	"contact-scraper/utils"
)

// Adapter is the contract every listing source implements.
type Adapter interface {
	// ID is the identifier used in configuration (e.g. "realtor").
	ID() string
	// Label tags this source's seed requests so fetched pages route back here.
	Label() string
	// Domain is recorded as the source of every parsed record.
	Domain() string
	// Seeds yields listing pages in ascending order, never more than the
	// adapter's own page ceiling.
	Seeds(limit int) iter.Seq[models.SeedRequest]
	// Parse extracts agent names from one listing page. Cards without a
	// usable name are skipped.
	Parse(doc *goquery.Document) []models.Agent
}

// Spec declares a selector-driven listing source.
type Spec struct {
	ID     string `yaml:"id"`
	Label  string `yaml:"label"`
	Domain string `yaml:"domain"`
	// URL is the page URL template; "{page}" is replaced by the page number.
	URL string `yaml:"url"`
	// FirstPageURL overrides URL for page 1 when the site has no page-1 query.
	FirstPageURL string `yaml:"first_page_url"`
	MaxPages     int    `yaml:"max_pages"`
	// Cards selects one element per agent. When Name is empty the card's own
	// text is the name.
	Cards string `yaml:"cards"`
	Name  string `yaml:"name"`
	// Skip drops names matching this case-insensitive pattern (button labels).
	Skip      string `yaml:"skip"`
	MinLength int    `yaml:"min_length"`
}

// ListAdapter implements Adapter for paginated agent directories.
type ListAdapter struct {
	spec Spec
	skip *regexp.Regexp
}

// NewListAdapter validates spec and builds its adapter.
func NewListAdapter(spec Spec) (*ListAdapter, error) {
	switch {
	case spec.ID == "":
		return nil, eris.New("sources: spec without id")
	case spec.URL == "":
		return nil, eris.Errorf("sources: %s: url is required", spec.ID)
	case spec.Cards == "":
		return nil, eris.Errorf("sources: %s: cards selector is required", spec.ID)
	case spec.MaxPages < 1:
		return nil, eris.Errorf("sources: %s: max_pages must be positive", spec.ID)
	}
	if spec.Label == "" {
		spec.Label = strings.ToUpper(spec.ID) + "_LIST"
	}
	if spec.Domain == "" {
		spec.Domain = spec.ID
	}

	a := &ListAdapter{spec: spec}
	if spec.Skip != "" {
		re, err := regexp.Compile("(?i)" + spec.Skip)
		if err != nil {
			return nil, eris.Wrapf(err, "sources: %s: compile skip pattern", spec.ID)
		}
		a.skip = re
	}
	return a, nil
}

func mustListAdapter(spec Spec) *ListAdapter {
	a, err := NewListAdapter(spec)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *ListAdapter) ID() string     { return a.spec.ID }
func (a *ListAdapter) Label() string  { return a.spec.Label }
func (a *ListAdapter) Domain() string { return a.spec.Domain }

// MaxPages is the hard page ceiling for this source.
func (a *ListAdapter) MaxPages() int { return a.spec.MaxPages }

// Seeds yields min(limit, ceiling) pages; a non-positive limit means the
// ceiling. The sequence can be ranged over any number of times.
func (a *ListAdapter) Seeds(limit int) iter.Seq[models.SeedRequest] {
	pages := a.spec.MaxPages
	if limit > 0 && limit < pages {
		pages = limit
	}
	return func(yield func(models.SeedRequest) bool) {
		for page := 1; page <= pages; page++ {
			req := models.SeedRequest{
				URL:   a.pageURL(page),
				Label: a.spec.Label,
				Page:  page,
				Limit: limit,
			}
			if !yield(req) {
				return
			}
		}
	}
}

func (a *ListAdapter) pageURL(page int) string {
	if page == 1 && a.spec.FirstPageURL != "" {
		return a.spec.FirstPageURL
	}
	return strings.ReplaceAll(a.spec.URL, "{page}", strconv.Itoa(page))
}

// Parse returns one record per distinct name on the page.
func (a *ListAdapter) Parse(doc *goquery.Document) []models.Agent {
	if doc == nil {
		return nil
	}

	var out []models.Agent
	doc.Find(a.spec.Cards).Each(func(_ int, card *goquery.Selection) {
		text := card.Text()
		if a.spec.Name != "" {
			text = card.Find(a.spec.Name).First().Text()
		}
		name := utils.CollapseSpace(text)
		if name == "" {
			return
		}
		if a.skip != nil && a.skip.MatchString(name) {
			return
		}
		if utf8.RuneCountInString(name) < a.spec.MinLength {
			return
		}
		out = append(out, models.Agent{Name: utils.TitleCase(name), Source: a.spec.Domain})
	})

	return utils.DedupeBy(out, func(r models.Agent) string { return utils.NameKey(r.Name) })
}
