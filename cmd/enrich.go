package cmd

import (
	"github.com/spf13/cobra"

	"contact-scraper/config"
)

func newEnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "enrich",
		Short:       "Search for every roster name and export consolidated contacts",
		Annotations: map[string]string{"phase": config.PhaseEnrich},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd)
		},
	}
	cmd.Flags().String("names-url", "", "name list URL or path used instead of the roster")
	cmd.Flags().Int("max-links", 0, "links followed per search page")
	return cmd
}
