package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/aluiziolira/go-scrape-cars/catalog"
	"github.com/aluiziolira/go-scrape-cars/config"
	"github.com/aluiziolira/go-scrape-cars/scraper"
	"github.com/aluiziolira/go-scrape-cars/store"
	"github.com/spf13/cobra"
)

type options struct {
	settings    string
	envFile     string
	pages       int
	sorts       []string
	profile     string
	outputDir   string
	format      string
	storeKind   string
	storePath   string
	top         int
	metricsAddr string
	verbose     bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:           "carscout",
	Short:         "carscout crawls used-car listings, scores them and keeps the best.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(opts.verbose))
	},
}

func init() {
	defaults := config.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.settings, "settings", defaults.SettingsFile, "Settings file (JSON5)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Environment file with SMTP credentials")
	flags.IntVar(&opts.pages, "pages", defaults.Pages, "Result pages to crawl per sort mode")
	flags.StringSliceVar(&opts.sorts, "sort", nil, "Sort modes to crawl: standard, price, age")
	flags.StringVar(&opts.profile, "profile", defaults.Profile, "Scoring profile")
	flags.StringVar(&opts.outputDir, "output-dir", defaults.OutputDir, "Directory for batch files")
	flags.StringVar(&opts.format, "format", defaults.OutputFormat, "Batch format: csv, json, or dual")
	flags.StringVar(&opts.storeKind, "store", defaults.StoreBackend, "Best-of store backend: csv or sqlite")
	flags.StringVar(&opts.storePath, "store-path", defaults.StorePath, "Best-of store location")
	flags.IntVar(&opts.top, "top", defaults.TopN, "Number of ranked listings")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
}

// loadConfig layers defaults, .env, CARSCOUT_* variables, the settings file
// and finally explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	flags := cmd.Flags()

	if err := config.LoadEnv(opts.envFile); err != nil {
		return nil, err
	}

	if value, ok, err := config.EnvInt("CARSCOUT_PAGES"); err != nil {
		return nil, fmt.Errorf("invalid CARSCOUT_PAGES: %w", err)
	} else if ok {
		cfg.Pages = value
	}
	if value, ok := config.EnvString("CARSCOUT_OUTPUT_DIR"); ok {
		cfg.OutputDir = value
	}
	if value, ok := config.EnvString("CARSCOUT_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	if value, ok := config.EnvString("CARSCOUT_SETTINGS"); ok && !flags.Changed("settings") {
		opts.settings = value
	}

	cfg.SettingsFile = opts.settings
	settings, err := config.LoadSettings(cfg.SettingsFile)
	switch {
	case err == nil:
		if err := cfg.ApplySettings(settings); err != nil {
			return nil, err
		}
		slog.Debug("settings loaded", slog.String("path", cfg.SettingsFile))
	case errors.Is(err, fs.ErrNotExist) && !flags.Changed("settings"):
		slog.Debug("no settings file, using defaults", slog.String("path", cfg.SettingsFile))
	default:
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	overrides := &config.Config{}
	if flags.Changed("pages") {
		overrides.Pages = opts.pages
	}
	if flags.Changed("sort") {
		for _, s := range opts.sorts {
			overrides.SortModes = append(overrides.SortModes, config.SortMode(strings.ToLower(s)))
		}
	}
	if flags.Changed("profile") {
		overrides.Profile = opts.profile
	}
	if flags.Changed("output-dir") {
		overrides.OutputDir = opts.outputDir
	}
	if flags.Changed("format") {
		overrides.OutputFormat = strings.ToLower(opts.format)
	}
	if flags.Changed("store") {
		overrides.StoreBackend = strings.ToLower(opts.storeKind)
	}
	if flags.Changed("store-path") {
		overrides.StorePath = opts.storePath
	}
	if flags.Changed("top") {
		overrides.TopN = opts.top
	}
	if flags.Changed("metrics-addr") {
		overrides.MetricsAddr = opts.metricsAddr
	}
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return nil, err
	}
	cfg.Verbose = opts.verbose

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newStore(cfg *config.Config) store.Store {
	if cfg.StoreBackend == "sqlite" {
		return store.NewSQLiteStore(cfg.StorePath, cfg.MaxBestRows)
	}
	return store.NewCSVStore(cfg.StorePath, cfg.MaxBestRows)
}

// loadBrands returns nil when the makes file is unavailable; the crawl then
// runs without a brand filter.
func loadBrands(cfg *config.Config) scraper.BrandResolver {
	c, err := catalog.LoadFile(cfg.MakesCSV)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("makes file not found, crawling without brand filter (run `carscout makes` to create it)",
				slog.String("path", cfg.MakesCSV))
		} else {
			slog.Warn("makes file unreadable, crawling without brand filter",
				slog.String("path", cfg.MakesCSV),
				slog.Any("error", err))
		}
		return nil
	}
	return c
}
