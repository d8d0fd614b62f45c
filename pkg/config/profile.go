package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Plinth-Labs/maquette/pkg/drift"
)

// SheetThresholds are the sheet-level acceptance floors.
type SheetThresholds struct {
	MinOverallSimilarity float64 `yaml:"minOverallSimilarity" json:"minOverallSimilarity"`
	MinPassRate          float64 `yaml:"minPassRate" json:"minPassRate"`
}

// ToleranceProfile bundles every drift acceptance knob: per-category
// envelopes, sheet floors, the gate's drift score threshold and the
// strict flag. Deployments override the defaults with a YAML file.
type ToleranceProfile struct {
	Name           string           `yaml:"name" json:"name"`
	DriftThreshold float64          `yaml:"driftThreshold" json:"driftThreshold"`
	Strict         bool             `yaml:"strict" json:"strict"`
	Sheet          SheetThresholds  `yaml:"sheet" json:"sheet"`
	Categories     drift.Tolerances `yaml:"categories" json:"categories"`
}

// DefaultProfile returns the compiled-in profile: standard category
// envelopes, 0.92 sheet floors, a 0.10 drift score threshold.
func DefaultProfile() *ToleranceProfile {
	return &ToleranceProfile{
		Name:           "default",
		DriftThreshold: 0.10,
		Sheet: SheetThresholds{
			MinOverallSimilarity: drift.DefaultMinSheetSimilarity,
			MinPassRate:          drift.DefaultMinSheetPassRate,
		},
		Categories: drift.DefaultTolerances(),
	}
}

// LoadToleranceProfile reads a profile YAML over the compiled-in
// defaults. A category named in the file replaces its default envelope
// wholesale; omitted categories keep theirs. An empty path returns the
// defaults untouched.
func LoadToleranceProfile(path string) (*ToleranceProfile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tolerance profile: %w", err)
	}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parse tolerance profile %s: %w", path, err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("tolerance profile %s: %w", path, err)
	}
	return profile, nil
}

// Validate checks every knob is in range and every category is known.
func (p *ToleranceProfile) Validate() error {
	if err := checkFraction("driftThreshold", p.DriftThreshold); err != nil {
		return err
	}
	if err := checkFraction("sheet.minOverallSimilarity", p.Sheet.MinOverallSimilarity); err != nil {
		return err
	}
	if err := checkFraction("sheet.minPassRate", p.Sheet.MinPassRate); err != nil {
		return err
	}

	known := drift.DefaultTolerances()
	for cat, tol := range p.Categories {
		if _, ok := known[cat]; !ok {
			return fmt.Errorf("unknown panel category %q", cat)
		}
		prefix := "categories." + string(cat)
		if err := checkFraction(prefix+".maxStructuralDrift", tol.MaxStructuralDrift); err != nil {
			return err
		}
		if err := checkFraction(prefix+".minImageSimilarity", tol.MinImageSimilarity); err != nil {
			return err
		}
		if err := checkFraction(prefix+".minEdgeF1", tol.MinEdgeF1); err != nil {
			return err
		}
		if tol.MaxHashDistance < 0 || tol.MaxHashDistance > 64 {
			return fmt.Errorf("%s.maxHashDistance is %d, want 0..64", prefix, tol.MaxHashDistance)
		}
	}
	return nil
}

// ComparatorOptions returns the drift comparator options this profile
// implies. The strict flag and drift threshold are the gate's to apply.
func (p *ToleranceProfile) ComparatorOptions() []drift.ComparatorOption {
	return []drift.ComparatorOption{
		drift.WithTolerances(p.Categories),
		drift.WithSheetThresholds(p.Sheet.MinOverallSimilarity, p.Sheet.MinPassRate),
	}
}

func checkFraction(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s is %g, want 0..1", name, v)
	}
	return nil
}
