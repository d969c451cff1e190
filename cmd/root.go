// Package cmd implements the contact-scraper command-line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"contact-scraper/config"
	"contact-scraper/fetcher"
	"contact-scraper/scraper/sources"
	"contact-scraper/services"
	"contact-scraper/storage"
	"contact-scraper/utils"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *utils.Logger
)

var rootCmd = &cobra.Command{
	Use:           "contact-scraper",
	Short:         "Discover agent rosters and enrich them with public contact details",
	Long:          "Crawls paginated agent directories into a deduplicated roster, then searches for every name and consolidates the emails and phones found into importable contact lists.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		if phase, ok := cmd.Annotations["phase"]; ok {
			c.Phase = phase
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		l, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return eris.Wrap(err, "init logger")
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./config.yaml or ./config/config.yaml)")
	pf.String("city", "", "target city, e.g. \"Jacksonville, FL\"")
	pf.String("engine", "", "fetch engine: colly or browser")
	pf.String("output-dir", "", "directory for run outputs")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newDiscoverCmd(), newEnrichCmd(), newRunCmd(), newSourcesCmd())
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
		} else {
			rootCmd.PrintErrln("Error:", err)
		}
		os.Exit(1)
	}
}

// loadRegistry returns the built-in sources plus any declared in the
// configured sources file.
func loadRegistry() (*sources.Registry, error) {
	reg := sources.Default()
	if cfg.Discover.SourcesFile == "" {
		return reg, nil
	}
	specs, err := sources.LoadSpecs(cfg.Discover.SourcesFile)
	if err != nil {
		return nil, err
	}
	if err := reg.RegisterSpecs(specs); err != nil {
		return nil, err
	}
	logger.Info("loaded extra sources", zap.String("file", cfg.Discover.SourcesFile), zap.Int("count", len(specs)))
	return reg, nil
}

// runPipeline wires the configured phase and prints its report. Ctrl-C stops
// the crawl; whatever was gathered is still written.
func runPipeline(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	f, err := fetcher.New(fetcher.Options{
		Engine:          cfg.Fetch.Engine,
		UserAgent:       cfg.Fetch.UserAgent,
		RandomUserAgent: cfg.Fetch.RandomUserAgent,
		TimeoutSecs:     cfg.Fetch.TimeoutSecs,
		MaxRetries:      cfg.Fetch.MaxRetries,
		Parallelism:     max(cfg.Discover.Concurrency, cfg.Enrich.Concurrency),
		Proxies:         cfg.Fetch.Proxies,
		ChromeBin:       cfg.Fetch.ChromeBin,
	}, logger)
	if err != nil {
		return err
	}
	defer f.Close()

	deps := services.Deps{
		Registry: reg,
		Fetcher:  f,
		Files:    storage.NewFileStore(cfg.Output.Dir, cfg.Output.RosterName, cfg.Output.EnrichedName, cfg.Output.ContactFile),
		Logger:   logger,
	}
	if cfg.Postgres.Enabled {
		store, err := storage.NewPostgresStore(ctx, cfg.DSN())
		if err != nil {
			return err
		}
		defer store.Close()
		deps.Store = store
	}

	report, runErr := services.NewPipeline(cfg, deps).Run(ctx)
	if report != nil && !report.FinishedAt.IsZero() {
		services.NewReporter(cmd.OutOrStdout()).Print(report)
	}
	return runErr
}
