package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"contact-scraper/scraper"
)

// Phases accepted by the run command.
const (
	PhaseDiscover = "discover"
	PhaseEnrich   = "enrich"
)

// Config holds all application configuration.
type Config struct {
	Phase    string         `mapstructure:"phase"`
	City     string         `mapstructure:"city"`
	Discover DiscoverConfig `mapstructure:"discover"`
	Enrich   EnrichConfig   `mapstructure:"enrich"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Output   OutputConfig   `mapstructure:"output"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Log      LogConfig      `mapstructure:"log"`
}

// DiscoverConfig configures the listing crawl.
type DiscoverConfig struct {
	Sources        []string `mapstructure:"sources"`
	LimitPerSource int      `mapstructure:"limit_per_source"`
	Concurrency    int      `mapstructure:"concurrency"`
	// SourcesFile is an optional YAML file of extra selector-driven sources.
	SourcesFile string `mapstructure:"sources_file"`
}

// EnrichConfig configures the search crawl.
type EnrichConfig struct {
	// NamesURL is an http(s) URL or local path of a name list that replaces
	// the persisted roster.
	NamesURL      string   `mapstructure:"names_url"`
	MaxLinks      int      `mapstructure:"max_links"`
	Concurrency   int      `mapstructure:"concurrency"`
	SearchBaseURL string   `mapstructure:"search_base_url"`
	Sites         []string `mapstructure:"sites"`
}

// FetchConfig configures the fetch engine.
type FetchConfig struct {
	Engine          string   `mapstructure:"engine"`
	TimeoutSecs     int      `mapstructure:"timeout_secs"`
	MaxRetries      int      `mapstructure:"max_retries"`
	RateLimitMs     int      `mapstructure:"rate_limit_ms"`
	UserAgent       string   `mapstructure:"user_agent"`
	RandomUserAgent bool     `mapstructure:"random_user_agent"`
	Proxies         []string `mapstructure:"proxies"`
	ChromeBin       string   `mapstructure:"chrome_bin"`
}

// OutputConfig names the files a run writes.
type OutputConfig struct {
	Dir           string `mapstructure:"dir"`
	RosterName    string `mapstructure:"roster_name"`
	EnrichedName  string `mapstructure:"enriched_name"`
	ContactExport bool   `mapstructure:"contact_export"`
	ContactFile   string `mapstructure:"contact_file"`
	Workbook      bool   `mapstructure:"workbook"`
}

// PostgresConfig configures the optional relational store.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"phase":        "phase",
	"city":         "city",
	"sources":      "discover.sources",
	"limit":        "discover.limit_per_source",
	"sources-file": "discover.sources_file",
	"names-url":    "enrich.names_url",
	"max-links":    "enrich.max_links",
	"engine":       "fetch.engine",
	"output-dir":   "output.dir",
	"log-level":    "log.level",
}

// envKeys keeps the unprefixed variable names deployments already set.
var envKeys = map[string]string{
	"postgres.host":     "POSTGRES_HOST",
	"postgres.port":     "POSTGRES_PORT",
	"postgres.user":     "POSTGRES_USER",
	"postgres.password": "POSTGRES_PASSWORD",
	"postgres.db":       "POSTGRES_DB",
	"postgres.sslmode":  "POSTGRES_SSLMODE",
	"fetch.chrome_bin":  "CHROME_BIN",
}

// Load reads configuration from defaults, an optional YAML file, a .env file,
// SCRAPER_* environment variables and the given flags, in increasing order of
// precedence. configFile may be empty to search ./config.yaml and
// ./config/config.yaml. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envKeys {
		if err := v.BindEnv(key, "SCRAPER_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", env)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, eris.Wrapf(err, "config: bind flag %s", name)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("phase", PhaseDiscover)
	v.SetDefault("city", "Jacksonville, FL")

	v.SetDefault("discover.sources", []string{"realtor", "homes", "coldwellbanker", "compass"})
	v.SetDefault("discover.limit_per_source", 250)
	v.SetDefault("discover.concurrency", 3)
	v.SetDefault("discover.sources_file", "")

	v.SetDefault("enrich.names_url", "")
	v.SetDefault("enrich.max_links", scraper.DefaultMaxLinks)
	v.SetDefault("enrich.concurrency", 5)
	v.SetDefault("enrich.search_base_url", "https://duckduckgo.com/")
	v.SetDefault("enrich.sites", []string{
		"facebook.com", "instagram.com", "linkedin.com",
		"realtor.com", "homes.com", "compass.com",
	})

	v.SetDefault("fetch.engine", "colly")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 2)
	v.SetDefault("fetch.rate_limit_ms", 0)
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.random_user_agent", false)
	v.SetDefault("fetch.proxies", []string{})
	v.SetDefault("fetch.chrome_bin", "")

	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.roster_name", "PHASE1_NAMES")
	v.SetDefault("output.enriched_name", "PHASE2_ENRICHED")
	v.SetDefault("output.contact_export", true)
	v.SetDefault("output.contact_file", "PHASE2_BREVO.csv")
	v.SetDefault("output.workbook", false)

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "scraper")
	v.SetDefault("postgres.password", "scraper123")
	v.SetDefault("postgres.db", "contacts_db")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate rejects configuration that would make a run meaningless. It runs
// before any crawling starts.
func (c *Config) Validate() error {
	switch {
	case c.Phase != PhaseDiscover && c.Phase != PhaseEnrich:
		return eris.Errorf("config: unknown phase %q (want %s or %s)", c.Phase, PhaseDiscover, PhaseEnrich)
	case strings.TrimSpace(c.City) == "":
		return eris.New("config: city is required")
	case c.Discover.Concurrency < 1:
		return eris.New("config: discover.concurrency must be positive")
	case c.Enrich.Concurrency < 1:
		return eris.New("config: enrich.concurrency must be positive")
	case c.Enrich.MaxLinks < 0:
		return eris.New("config: enrich.max_links must not be negative")
	case c.Enrich.SearchBaseURL == "":
		return eris.New("config: enrich.search_base_url is required")
	case !slices.Contains([]string{"colly", "browser"}, c.Fetch.Engine):
		return eris.Errorf("config: unknown fetch engine %q", c.Fetch.Engine)
	case c.Output.Dir == "":
		return eris.New("config: output.dir is required")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	p := c.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DB, p.SSLMode)
}
