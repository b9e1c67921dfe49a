package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds scraper, scoring and storage configuration.
type Config struct {
	BaseURL          string
	Pages            int
	SortModes        []SortMode
	Filters          SearchFilters
	Exclusions       Exclusions
	Profile          string
	Profiles         map[string]ScoringProfile
	Timeout          time.Duration
	MinPageDelay     time.Duration
	MaxPageDelay     time.Duration
	UserAgent        string
	RespectRobotsTxt bool

	OutputDir    string
	OutputFormat string // csv, json, or dual

	StoreBackend string // csv or sqlite
	StorePath    string
	MaxBestRows  int
	TopN         int

	MakesCSV    string
	MakesAPIURL string

	SettingsFile string
	MetricsAddr  string
	Verbose      bool

	Email EmailSettings
}

// EmailSettings configures the optional SMTP notifier.
type EmailSettings struct {
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
	Sender     string
	Recipient  string
}

// Enabled reports whether enough settings exist to send mail.
func (e EmailSettings) Enabled() bool {
	return e.SMTPServer != "" && e.Recipient != ""
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://www.autoscout24.com/lst",
		Pages:            2,
		SortModes:        []SortMode{SortStandard, SortPrice, SortAge},
		Filters:          DefaultFilters(),
		Exclusions:       DefaultExclusions(),
		Profile:          "standard",
		Profiles:         map[string]ScoringProfile{"standard": DefaultProfile()},
		Timeout:          10 * time.Second,
		MinPageDelay:     1 * time.Second,
		MaxPageDelay:     3 * time.Second,
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		RespectRobotsTxt: false,
		OutputDir:        "data/results",
		OutputFormat:     "csv",
		StoreBackend:     "csv",
		StorePath:        "data/best/best_cars.csv",
		MaxBestRows:      300,
		TopN:             20,
		MakesCSV:         "data/makes_and_models.csv",
		MakesAPIURL:      "https://listing-creation.api.autoscout24.com/makes?culture=de-DE&marketplace=de",
		SettingsFile:     "settings.json5",
		Email:            EmailSettings{SMTPPort: 587},
	}
}

// ActiveProfile returns the scoring profile selected by Profile.
func (c *Config) ActiveProfile() (ScoringProfile, error) {
	p, ok := c.Profiles[c.Profile]
	if !ok {
		return ScoringProfile{}, fmt.Errorf("scoring profile %q not found", c.Profile)
	}
	return p, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.Pages <= 0 {
		return fmt.Errorf("pages must be positive")
	}
	if len(c.SortModes) == 0 {
		return fmt.Errorf("at least one sort mode is required")
	}
	for _, mode := range c.SortModes {
		if !mode.Valid() {
			return fmt.Errorf("unknown sort mode %q", mode)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MinPageDelay < 0 || c.MaxPageDelay < 0 {
		return fmt.Errorf("page delay cannot be negative")
	}
	if c.MaxPageDelay < c.MinPageDelay {
		return fmt.Errorf("max page delay (%s) cannot be below min page delay (%s)", c.MaxPageDelay, c.MinPageDelay)
	}
	if _, err := c.ActiveProfile(); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.StoreBackend != "csv" && c.StoreBackend != "sqlite" {
		return fmt.Errorf("store backend must be csv or sqlite")
	}
	if c.StorePath == "" {
		return fmt.Errorf("store path cannot be empty")
	}
	if c.MaxBestRows <= 0 {
		return fmt.Errorf("max best rows must be positive")
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top n must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
