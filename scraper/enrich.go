package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"contact-scraper/models"
	"contact-scraper/utils"
)

// MaxFollowDepth is how far beyond a search page links are followed.
// Harvested PAGE requests sit at this depth and never harvest further.
const MaxFollowDepth = 1

// DefaultMaxLinks caps the links harvested from one search page.
const DefaultMaxLinks = 5

var (
	searchHostRegexp = regexp.MustCompile(`(?i)(duckduckgo\.com|bing\.com|google\.)`)
	noiseRegexp      = regexp.MustCompile(`(?i)(accounts\.google|policies\.google|support\.google|/\.well-known)`)

	// contentSelectors are the containers most listing and profile pages keep
	// their text in; the whole body is always appended as a fallback.
	contentSelectors = []string{"#root", "#__next", ".content", ".main", "body"}
)

// EnrichOptions configures query generation and link harvesting.
type EnrichOptions struct {
	City          string
	SearchBaseURL string
	Sites         []string
	MaxLinks      int
}

// EnrichResult is the outcome of one enrichment run.
type EnrichResult struct {
	Observations []models.Observation
	Names        int
	Stats        Stats
}

// Enricher searches for every roster name and extracts contact details from
// the result pages and a few of their outbound links.
type Enricher struct {
	opts       EnrichOptions
	searchHost string
	dispatcher *Dispatcher
	logger     *utils.Logger
}

// NewEnricher creates an Enricher.
func NewEnricher(opts EnrichOptions, dispatcher *Dispatcher, logger *utils.Logger) *Enricher {
	if opts.MaxLinks < 0 {
		opts.MaxLinks = 0
	}
	e := &Enricher{opts: opts, dispatcher: dispatcher, logger: logger}
	if u, err := url.Parse(opts.SearchBaseURL); err == nil {
		e.searchHost = strings.ToLower(u.Hostname())
	}
	return e
}

// BuildQueries returns the search URLs for one person: a general query, one
// site-restricted query per site, then a contact-email query.
func BuildQueries(searchBaseURL, name, city string, sites []string) []string {
	terms := make([]string, 0, len(sites)+2)
	terms = append(terms, name+" "+city+" realtor email phone")
	for _, site := range sites {
		terms = append(terms, name+" "+city+" site:"+site)
	}
	terms = append(terms, name+" "+city+" contact email")

	sep := "?"
	if strings.Contains(searchBaseURL, "?") {
		sep = "&"
	}
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = searchBaseURL + sep + "q=" + url.QueryEscape(t)
	}
	return out
}

// IsSearchURL reports whether u points at a known search engine.
func IsSearchURL(u string) bool {
	return searchHostRegexp.MatchString(u)
}

// IsNoise reports whether u is an account, policy or well-known page.
func IsNoise(u string) bool {
	return noiseRegexp.MatchString(u)
}

// Absolutize resolves href against base. It returns "" when either fails to
// parse or the result is not an http(s) URL.
func Absolutize(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	abs := b.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

// PageText concatenates the text of the usual content containers and the body.
func PageText(doc *goquery.Document) string {
	parts := make([]string, len(contentSelectors))
	for i, sel := range contentSelectors {
		parts[i] = doc.Find(sel).Text()
	}
	return strings.Join(parts, " ")
}

// UniqueNames trims names and keeps the first of every NameKey, dropping blanks.
func UniqueNames(names []string) []string {
	trimmed := make([]string, len(names))
	for i, n := range names {
		trimmed[i] = utils.CollapseSpace(n)
	}
	return utils.DedupeBy(trimmed, utils.NameKey)
}

// Seeds builds the SEARCH requests for every distinct non-empty name.
func (e *Enricher) Seeds(names []string) []models.CrawlRequest {
	var out []models.CrawlRequest
	for _, person := range UniqueNames(names) {
		for _, q := range BuildQueries(e.opts.SearchBaseURL, person, e.opts.City, e.opts.Sites) {
			out = append(out, models.CrawlRequest{URL: q, Label: models.LabelSearch, Person: person})
		}
	}
	return out
}

// Run enriches names and returns one observation per page with a hit. On
// cancellation the observations gathered so far are returned with the error.
func (e *Enricher) Run(ctx context.Context, names []string) (*EnrichResult, error) {
	persons := UniqueNames(names)
	seeds := e.Seeds(persons)
	e.logger.Info("enrichment queued", zap.Int("names", len(persons)), zap.Int("requests", len(seeds)))

	var acc utils.Accumulator[models.Observation]
	stats, runErr := e.dispatcher.Run(ctx, seeds, func(_ context.Context, req models.CrawlRequest, doc *goquery.Document) []models.CrawlRequest {
		if obs, ok := Observe(req, doc); ok {
			acc.Append(obs)
			e.logger.Debug("contact found",
				zap.String("name", obs.Name),
				zap.String("url", req.URL))
		}
		return e.Harvest(req, doc)
	})

	result := &EnrichResult{
		Observations: acc.Items(),
		Names:        len(persons),
		Stats:        stats,
	}
	if runErr != nil {
		return result, eris.Wrap(runErr, "enrichment interrupted")
	}
	return result, nil
}

// Observe extracts the first email and phone from a page. Every email on the
// page is attributed to the person searched for.
func Observe(req models.CrawlRequest, doc *goquery.Document) (models.Observation, bool) {
	text := PageText(doc)
	emails := utils.ExtractEmails(text)
	phones := utils.ExtractPhones(text)
	if len(emails) == 0 && len(phones) == 0 {
		return models.Observation{}, false
	}

	obs := models.Observation{
		Name:      utils.TitleCase(req.Person),
		SourceURL: req.URL,
	}
	if len(emails) > 0 {
		obs.Email = emails[0]
	}
	if len(phones) > 0 {
		obs.Phone = phones[0]
	}
	return obs, obs.Name != ""
}

// Harvest returns up to MaxLinks PAGE requests for the outbound links of a
// search page. Pages at MaxFollowDepth or off a search host yield nothing.
func (e *Enricher) Harvest(req models.CrawlRequest, doc *goquery.Document) []models.CrawlRequest {
	if req.Depth >= MaxFollowDepth || !e.isSearchPage(req.URL) || e.opts.MaxLinks == 0 {
		return nil
	}

	var out []models.CrawlRequest
	seen := make(map[string]struct{})
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		u := Absolutize(req.URL, href)
		if u == "" || IsNoise(u) {
			return true
		}
		if _, dup := seen[u]; dup {
			return true
		}
		seen[u] = struct{}{}

		out = append(out, models.CrawlRequest{
			URL:    u,
			Label:  models.LabelPage,
			Depth:  req.Depth + 1,
			Person: req.Person,
		})
		return len(out) < e.opts.MaxLinks
	})
	return out
}

func (e *Enricher) isSearchPage(u string) bool {
	if IsSearchURL(u) {
		return true
	}
	if e.searchHost == "" {
		return false
	}
	parsed, err := url.Parse(u)
	return err == nil && strings.EqualFold(parsed.Hostname(), e.searchHost)
}
