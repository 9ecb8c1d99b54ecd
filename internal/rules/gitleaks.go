package rules

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

// GitleaksSeverity is assigned to rules imported from gitleaks,
// whose configuration format carries no severity.
const GitleaksSeverity = "high"

// FromGitleaks builds a database from gitleaks' default configuration.
func FromGitleaks() (*Database, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load default gitleaks configuration: %w", err)
	}
	return fromGitleaksConfig(detector.Config)
}

// LoadGitleaksConfig builds a database from a gitleaks TOML configuration file.
func LoadGitleaksConfig(path string) (*Database, error) {
	// A private viper instance keeps the global one untouched.
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("gitleaks config file not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("error reading gitleaks config file %s: %w", path, err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("error unmarshaling gitleaks config from %s: %w", path, err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("error translating gitleaks config from %s: %w", path, err)
	}

	return fromGitleaksConfig(cfg)
}

// fromGitleaksConfig converts gitleaks rules into definitions.
// Rules are ordered by rule ID so ordinals are stable between runs;
// path-only rules (no content regex) are skipped.
func fromGitleaksConfig(cfg config.Config) (*Database, error) {
	defs := make([]Definition, 0, len(cfg.Rules))
	for _, id := range slices.Sorted(maps.Keys(cfg.Rules)) {
		rule := cfg.Rules[id]
		if rule.Regex == nil {
			continue
		}
		defs = append(defs, Definition{
			Title:    id,
			Severity: GitleaksSeverity,
			Regex:    rule.Regex.String(),
		})
	}
	return New(defs)
}
