package cmd

import (
	"slices"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"contact-scraper/scraper/sources"
)

type pageCeiling interface {
	MaxPages() int
}

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the registered listing sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			renderSources(cmd, reg, cfg.Discover.Sources)
			return nil
		},
	}
}

func renderSources(cmd *cobra.Command, reg *sources.Registry, selected []string) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Label", "Domain", "Max Pages", "Selected"})

	for _, a := range reg.All() {
		pages := "-"
		if c, ok := a.(pageCeiling); ok {
			pages = strconv.Itoa(c.MaxPages())
		}
		mark := ""
		if slices.Contains(selected, a.ID()) {
			mark = "yes"
		}
		t.AppendRow(table.Row{a.ID(), a.Label(), a.Domain(), pages, mark})
	}
	t.AppendFooter(table.Row{"Total", len(reg.IDs())})
	t.Render()
}
