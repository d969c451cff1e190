package cmd

import "github.com/spf13/cobra"

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the phase selected by configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd)
		},
	}
	cmd.Flags().String("phase", "", "discover or enrich")
	cmd.Flags().StringSlice("sources", nil, "source ids to crawl")
	cmd.Flags().Int("limit", 0, "page limit per source")
	cmd.Flags().String("names-url", "", "name list URL or path")
	return cmd
}
