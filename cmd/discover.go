package cmd

import (
	"github.com/spf13/cobra"

	"contact-scraper/config"
)

func newDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "discover",
		Short:       "Crawl listing sources into a deduplicated roster",
		Annotations: map[string]string{"phase": config.PhaseDiscover},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd)
		},
	}
	cmd.Flags().StringSlice("sources", nil, "source ids to crawl (see the sources command)")
	cmd.Flags().Int("limit", 0, "page limit per source; the source ceiling still applies")
	cmd.Flags().String("sources-file", "", "YAML file declaring extra listing sources")
	return cmd
}
