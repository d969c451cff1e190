package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"contact-scraper/models"
)

const maxBarWidth = 40

// Tally fills the contact counters of a report.
func Tally(r *models.RunReport, contacts []models.Observation) {
	r.Contacts = len(contacts)
	r.WithEmail, r.WithPhone = 0, 0
	for _, c := range contacts {
		if c.Email != "" {
			r.WithEmail++
		}
		if c.Phone != "" {
			r.WithPhone++
		}
	}
}

// Reporter prints run summaries as terminal tables.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Print renders the run overview, the per-source breakdown and the output files.
func (p *Reporter) Print(r *models.RunReport) {
	t := p.newTable()
	t.SetTitle(strings.ToUpper(r.Phase) + " RUN")
	t.AppendRows([]table.Row{
		{"Run ID", r.RunID},
		{"City", r.City},
		{"Duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Requests queued", r.Queued},
		{"Pages fetched", r.Fetched},
		{"Pages failed", r.Failed},
	})
	t.AppendSeparator()
	switch r.Phase {
	case "discover":
		t.AppendRows([]table.Row{
			{"Raw records", r.RawRecords},
			{"Roster names", r.Names},
		})
	default:
		t.AppendRows([]table.Row{
			{"Names searched", r.Names},
			{"Observations", r.Observations},
			{"Contacts", r.Contacts},
			{"With email", r.WithEmail},
			{"With phone", r.WithPhone},
		})
	}
	t.Render()

	if len(r.BySource) > 0 {
		p.printSources(r.BySource)
	}

	if len(r.Outputs) > 0 {
		t := p.newTable()
		t.AppendHeader(table.Row{"Output"})
		for _, o := range r.Outputs {
			t.AppendRow(table.Row{o})
		}
		t.Render()
	}
}

func (p *Reporter) printSources(bySource map[string]int) {
	type sourceCount struct {
		source string
		count  int
	}
	counts := make([]sourceCount, 0, len(bySource))
	peak := 0
	for s, n := range bySource {
		counts = append(counts, sourceCount{s, n})
		peak = max(peak, n)
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].source < counts[j].source
	})

	t := p.newTable()
	t.AppendHeader(table.Row{"Source", "Records", ""})
	for _, sc := range counts {
		t.AppendRow(table.Row{sc.source, sc.count, bar(sc.count, peak)})
	}
	t.Render()
}

func (p *Reporter) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	return t
}

// bar scales n against peak to at most maxBarWidth blocks.
func bar(n, peak int) string {
	if n <= 0 || peak <= 0 {
		return ""
	}
	width := max(1, n*maxBarWidth/peak)
	return strings.Repeat("█", width) + fmt.Sprintf(" %d%%", n*100/peak)
}
