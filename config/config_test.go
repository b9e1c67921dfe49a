package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/titanous/json5"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "zero pages",
			mutate: func(cfg *Config) {
				cfg.Pages = 0
			},
			wantErr: "pages",
		},
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "inverted delay window",
			mutate: func(cfg *Config) {
				cfg.MinPageDelay = 3 * time.Second
				cfg.MaxPageDelay = time.Second
			},
			wantErr: "page delay",
		},
		{
			name: "unknown sort",
			mutate: func(cfg *Config) {
				cfg.SortModes = []SortMode{"newest"}
			},
			wantErr: "sort mode",
		},
		{
			name: "missing profile",
			mutate: func(cfg *Config) {
				cfg.Profile = "sporty"
			},
			wantErr: "profile",
		},
		{
			name: "unknown store backend",
			mutate: func(cfg *Config) {
				cfg.StoreBackend = "redis"
			},
			wantErr: "store backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestExclusionsExcluded(t *testing.T) {
	ex := Exclusions{Models: map[string][]string{
		"BrandA": {"ModelX", "ModelY"},
		"skoda":  {"fabia"},
	}}

	if !ex.Excluded("BrandA", "ModelX") {
		t.Fatalf("exact pair should be excluded")
	}
	if ex.Excluded("BrandA", "OtherModel") {
		t.Fatalf("make-only match should be retained")
	}
	if ex.Excluded("OtherBrand", "ModelX") {
		t.Fatalf("model-only match should be retained")
	}
	if !ex.Excluded("Skoda", "Fabia") {
		t.Fatalf("case-insensitive match expected by default")
	}

	ex.CaseSensitive = true
	if ex.Excluded("Skoda", "Fabia") {
		t.Fatalf("case-sensitive mode should not match differing case")
	}
	if !ex.Excluded("skoda", "fabia") {
		t.Fatalf("case-sensitive mode should match identical case")
	}
}

func TestApplySettingsMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json5")
	content := `{
  // comments are allowed
  filters: {body: ["3", "4"], fuel: ["D"]},
  num_pages: 5,
  scoring_profiles: {standard: {weights: {price: 1}}},
  excluded_cars: {ford: ["fiesta"]}
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.ApplySettings(settings); err != nil {
		t.Fatalf("apply settings: %v", err)
	}

	if got := strings.Join(cfg.Filters.BodyTypes, ","); got != "3,4" {
		t.Fatalf("body=%s, want 3,4", got)
	}
	if cfg.Filters.CustomerType != "D" {
		t.Fatalf("custtype=%q, want default D", cfg.Filters.CustomerType)
	}
	if cfg.Pages != 5 {
		t.Fatalf("pages=%d, want 5", cfg.Pages)
	}
	profile, err := cfg.ActiveProfile()
	if err != nil {
		t.Fatalf("active profile: %v", err)
	}
	if profile.Weights.Price != 1 {
		t.Fatalf("price weight=%v, want 1", profile.Weights.Price)
	}
	if profile.Weights.Mileage != 3 {
		t.Fatalf("mileage weight=%v, want default 3", profile.Weights.Mileage)
	}
	if !cfg.Exclusions.Excluded("ford", "fiesta") || cfg.Exclusions.Excluded("opel", "corsa") {
		t.Fatalf("exclusion map should be replaced by the settings file")
	}
}

func TestApplySettingsKeepsExplicitZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json5")
	content := `{
  filters: {brands: [], emclass: ""},
  scoring_profiles: {standard: {weights: {seat_heating: 0, price: 5}, emission_next_token: ""}},
  excluded_cars: {}
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Exclusions.CaseSensitive = true
	if err := cfg.ApplySettings(settings); err != nil {
		t.Fatalf("apply settings: %v", err)
	}

	profile, err := cfg.ActiveProfile()
	if err != nil {
		t.Fatalf("active profile: %v", err)
	}
	if profile.Weights.SeatHeating != 0 || profile.Weights.Price != 5 {
		t.Fatalf("seat_heating=%v price=%v, want 0 and 5", profile.Weights.SeatHeating, profile.Weights.Price)
	}
	if profile.Weights.Mileage != 3 {
		t.Fatalf("mileage weight=%v, want default 3", profile.Weights.Mileage)
	}
	if profile.EmissionNextToken != "" || profile.EmissionTopToken == "" {
		t.Fatalf("emission tokens = %q/%q, want default top and cleared next", profile.EmissionTopToken, profile.EmissionNextToken)
	}
	if len(cfg.Filters.Brands) != 0 || cfg.Filters.EmissionClass != "" {
		t.Fatalf("brands=%v emclass=%q, want both cleared", cfg.Filters.Brands, cfg.Filters.EmissionClass)
	}
	if len(DefaultConfig().Filters.Brands) == 0 {
		t.Fatalf("defaults must not be mutated")
	}
	if cfg.Exclusions.Excluded("opel", "corsa") {
		t.Fatalf("empty excluded_cars should clear the exclusion map")
	}
	if !cfg.Exclusions.CaseSensitive {
		t.Fatalf("absent exclusions_case_sensitive must keep the current policy")
	}
}

func TestApplySettingsNewProfileStartsFromDefaults(t *testing.T) {
	cfg := DefaultConfig()
	settings := &Settings{
		Profile:         "cheap",
		ScoringProfiles: map[string]json5.RawMessage{"cheap": json5.RawMessage(`{weights: {price: 9}}`)},
	}
	if err := cfg.ApplySettings(settings); err != nil {
		t.Fatalf("apply settings: %v", err)
	}
	profile, err := cfg.ActiveProfile()
	if err != nil {
		t.Fatalf("active profile: %v", err)
	}
	if profile.Weights.Price != 9 || profile.Weights.Warranty != DefaultProfile().Weights.Warranty {
		t.Fatalf("weights = %+v", profile.Weights)
	}
	if cfg.Profiles["standard"].Weights.Price != DefaultProfile().Weights.Price {
		t.Fatalf("standard profile changed")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyOverrides(&Config{
		Pages:     7,
		SortModes: []SortMode{SortPrice},
		StorePath: "best.db",
	})
	if err != nil {
		t.Fatalf("apply overrides: %v", err)
	}
	if cfg.Pages != 7 || cfg.StorePath != "best.db" {
		t.Fatalf("pages=%d store=%q", cfg.Pages, cfg.StorePath)
	}
	if len(cfg.SortModes) != 1 || cfg.SortModes[0] != SortPrice {
		t.Fatalf("sort modes = %v", cfg.SortModes)
	}
	if cfg.OutputDir != DefaultConfig().OutputDir || cfg.TopN != DefaultConfig().TopN {
		t.Fatalf("unset overrides must keep current values")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("CARSCOUT_TEST_INT", "7")
	n, ok, err := EnvInt("CARSCOUT_TEST_INT")
	if err != nil || !ok || n != 7 {
		t.Fatalf("EnvInt = %d/%v/%v, want 7/true/nil", n, ok, err)
	}

	t.Setenv("CARSCOUT_TEST_INT", "seven")
	if _, _, err := EnvInt("CARSCOUT_TEST_INT"); err == nil {
		t.Fatalf("expected parse error")
	}

	if _, ok, _ := EnvInt("CARSCOUT_TEST_UNSET"); ok {
		t.Fatalf("unset key should not be ok")
	}
}
