package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strconv"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

// Settings is the user-editable settings file. Sections are kept raw and
// decoded straight onto the current values on apply, so a key present in
// the file always wins (zero and empty included) and an absent key keeps
// its default.
type Settings struct {
	Filters                 json5.RawMessage            `json:"filters"`
	NumPages                int                         `json:"num_pages"`
	SortModes               []SortMode                  `json:"sort_modes"`
	Profile                 string                      `json:"profile"`
	ScoringProfiles         map[string]json5.RawMessage `json:"scoring_profiles"`
	ExcludedCars            map[string][]string         `json:"excluded_cars"`
	ExclusionsCaseSensitive *bool                       `json:"exclusions_case_sensitive"`
}

// LoadSettings parses a JSON5 settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var s Settings
	if err := json5.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return &s, nil
}

// ApplySettings decodes s over cfg. Profiles are patched per name; a name
// missing from cfg starts from DefaultProfile. Fuel score keys merge into
// the existing table, lists are replaced.
func (c *Config) ApplySettings(s *Settings) error {
	if s == nil {
		return nil
	}

	if len(s.Filters) > 0 {
		filters := c.Filters
		filters.BodyTypes = slices.Clone(filters.BodyTypes)
		filters.Equipment = slices.Clone(filters.Equipment)
		filters.FuelTypes = slices.Clone(filters.FuelTypes)
		filters.Brands = slices.Clone(filters.Brands)
		if err := json5.Unmarshal(s.Filters, &filters); err != nil {
			return fmt.Errorf("decode filters: %w", err)
		}
		c.Filters = filters
	}

	if s.NumPages > 0 {
		c.Pages = s.NumPages
	}
	if len(s.SortModes) > 0 {
		c.SortModes = s.SortModes
	}
	if s.Profile != "" {
		c.Profile = s.Profile
	}

	if c.Profiles == nil {
		c.Profiles = make(map[string]ScoringProfile)
	}
	for name, raw := range s.ScoringProfiles {
		base, ok := c.Profiles[name]
		if !ok {
			base = DefaultProfile()
		}
		base = cloneProfile(base)
		if err := json5.Unmarshal(raw, &base); err != nil {
			return fmt.Errorf("decode profile %q: %w", name, err)
		}
		c.Profiles[name] = base
	}

	if s.ExcludedCars != nil {
		c.Exclusions.Models = s.ExcludedCars
	}
	if s.ExclusionsCaseSensitive != nil {
		c.Exclusions.CaseSensitive = *s.ExclusionsCaseSensitive
	}
	return nil
}

// ApplyOverrides copies every non-zero field of o onto c. Command-line flags
// use it, where an unset flag is the zero value.
func (c *Config) ApplyOverrides(o *Config) error {
	if o == nil {
		return nil
	}
	if err := mergo.Merge(c, o, mergo.WithOverride); err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}
	return nil
}

func cloneProfile(p ScoringProfile) ScoringProfile {
	p.FuelScores = maps.Clone(p.FuelScores)
	p.FavoriteModels = slices.Clone(p.FavoriteModels)
	p.FavorableBodyTypes = slices.Clone(p.FavorableBodyTypes)
	return p
}

// LoadEnv reads a .env file when present.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv copies e-mail settings from the environment.
func (c *Config) ApplyEnv() error {
	if v, ok := EnvString("SMTP_SERVER"); ok {
		c.Email.SMTPServer = v
	}
	port, ok, err := EnvInt("SMTP_PORT")
	if err != nil {
		return fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	if ok {
		c.Email.SMTPPort = port
	}
	if v, ok := EnvString("EMAIL_USERNAME"); ok {
		c.Email.Username = v
	}
	if v, ok := EnvString("EMAIL_PASSWORD"); ok {
		c.Email.Password = v
	}
	if v, ok := EnvString("EMAIL_SENDER"); ok {
		c.Email.Sender = v
	}
	if v, ok := EnvString("EMAIL_RECIPIENT"); ok {
		c.Email.Recipient = v
	}
	return nil
}

// EnvString returns the value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	v := os.Getenv(key)
	if v == "" {
		return "", false
	}
	return v, true
}

// EnvInt parses key as an integer when it is set.
func EnvInt(key string) (int, bool, error) {
	v, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
