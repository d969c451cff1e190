package sources

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-scraper/models"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func names(records []models.Agent) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestSeedsHonourCeilingAndLimit(t *testing.T) {
	a := Realtor()

	var all []models.SeedRequest
	for s := range a.Seeds(0) {
		all = append(all, s)
	}
	require.Len(t, all, 20)
	assert.Equal(t, "https://www.realtor.com/realestateagents/jacksonville_fl/pg-1", all[0].URL)
	assert.Equal(t, "https://www.realtor.com/realestateagents/jacksonville_fl/pg-20", all[19].URL)
	for i, s := range all {
		assert.Equal(t, i+1, s.Page)
		assert.Equal(t, "REALTOR_LIST", s.Label)
	}

	count := 0
	for range a.Seeds(250) {
		count++
	}
	assert.Equal(t, 20, count, "limit above the ceiling is capped")

	count = 0
	for range a.Seeds(3) {
		count++
	}
	assert.Equal(t, 3, count)
}

func TestSeedsRestartable(t *testing.T) {
	seq := Homes().Seeds(2)
	var first, second []string
	for s := range seq {
		first = append(first, s.URL)
	}
	for s := range seq {
		second = append(second, s.URL)
	}
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestUnitedFirstPage(t *testing.T) {
	var urls []string
	for s := range United().Seeds(3) {
		urls = append(urls, s.URL)
	}
	assert.Equal(t, []string{
		"https://www.unitedrealestategallery.com/findanagent.htm",
		"https://www.unitedrealestategallery.com/findanagent.htm?page=2",
		"https://www.unitedrealestategallery.com/findanagent.htm?page=3",
	}, urls)
}

func TestParseCardAdapters(t *testing.T) {
	tests := []struct {
		name    string
		adapter *ListAdapter
		html    string
		want    []string
		domain  string
	}{
		{
			name:    "realtor",
			adapter: Realtor(),
			html: `<div class="agent-list-card"><span data-testid="agent-name">JANE DOE</span></div>
				<div class="agent-list-card"><span class="agent-name">bob   smith</span></div>
				<div class="agent-list-card"><span class="other">no name</span></div>
				<div class="agent-list-card"><span class="agent-name">Jane Doe</span></div>`,
			want:   []string{"Jane Doe", "Bob Smith"},
			domain: "realtor.com",
		},
		{
			name:    "homes",
			adapter: Homes(),
			html: `<article data-qa="agent-card"><h3>mary ann lee</h3></article>
				<div class="agent-card"><p class="name">Tom Fox</p><h3>Ignored</h3></div>`,
			want:   []string{"Mary Ann Lee", "Tom Fox"},
			domain: "homes.com",
		},
		{
			name:    "coldwell",
			adapter: ColdwellBanker(),
			html: `<div class="agent-result"><a data-cg="agent-name">Al Green</a></div>
				<div class="agent-card"><div class="agent-card__name">Rita Moreno</div></div>`,
			want:   []string{"Al Green", "Rita Moreno"},
			domain: "coldwellbanker.com",
		},
		{
			name:    "compass",
			adapter: Compass(),
			html:    `<div data-test="agent-card"><div data-test="agent-card-name">sam o'neil</div></div>`,
			want:    []string{"Sam O'Neil"},
			domain:  "compass.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.adapter.Parse(mustDoc(t, tt.html))
			assert.Equal(t, tt.want, names(got))
			for _, r := range got {
				assert.Equal(t, tt.domain, r.Source)
			}
		})
	}
}

func TestParseHeadingAdaptersSkipLabels(t *testing.T) {
	html := `<h2>Learn More</h2><h3>View Profile</h3><h3>Jo</h3>
		<h3>ANNA BELL</h3><a href="/agents/ab">Anna Bell</a><h2>Contact us</h2>`
	got := Exp().Parse(mustDoc(t, html))
	assert.Equal(t, []string{"Anna Bell"}, names(got))

	html = `<div class="ourAgentsCardName">Kim Park</div><h4>Details</h4><a href="/agent/1">kim park</a>`
	got = United().Parse(mustDoc(t, html))
	assert.Equal(t, []string{"Kim Park"}, names(got))
}

func TestParseEmptyDocument(t *testing.T) {
	assert.Empty(t, Realtor().Parse(mustDoc(t, "<html><body></body></html>")))
	assert.Empty(t, Realtor().Parse(nil))
}

func TestNewListAdapterValidation(t *testing.T) {
	_, err := NewListAdapter(Spec{ID: "x", URL: "https://x/{page}", Cards: ".c"})
	require.Error(t, err)

	_, err = NewListAdapter(Spec{ID: "x", URL: "https://x/{page}", Cards: ".c", MaxPages: 1, Skip: "("})
	require.Error(t, err)

	a, err := NewListAdapter(Spec{ID: "acme", URL: "https://x/{page}", Cards: ".c", MaxPages: 1})
	require.NoError(t, err)
	assert.Equal(t, "ACME_LIST", a.Label())
	assert.Equal(t, "acme", a.Domain())
}
