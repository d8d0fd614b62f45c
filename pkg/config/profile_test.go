package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Plinth-Labs/maquette/pkg/drift"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestLoadToleranceProfile_EmptyPathIsDefault(t *testing.T) {
	p, err := LoadToleranceProfile("")
	if err != nil {
		t.Fatalf("LoadToleranceProfile(\"\"): %v", err)
	}
	if p.Name != "default" {
		t.Errorf("name = %q, want default", p.Name)
	}
	if p.DriftThreshold != 0.10 {
		t.Errorf("drift threshold = %g, want 0.10", p.DriftThreshold)
	}
	if p.Sheet.MinPassRate != drift.DefaultMinSheetPassRate {
		t.Errorf("pass rate floor = %g, want %g", p.Sheet.MinPassRate, drift.DefaultMinSheetPassRate)
	}
	if len(p.Categories) != len(drift.DefaultTolerances()) {
		t.Errorf("categories = %d, want %d", len(p.Categories), len(drift.DefaultTolerances()))
	}
}

func TestLoadToleranceProfile_OverlaysDefaults(t *testing.T) {
	path := writeProfile(t, `
name: museum-competition
driftThreshold: 0.05
strict: true
sheet:
  minOverallSimilarity: 0.95
  minPassRate: 0.9
categories:
  floor_plans:
    maxStructuralDrift: 0.02
    minImageSimilarity: 0.97
    maxHashDistance: 1
    minEdgeF1: 0.8
`)

	p, err := LoadToleranceProfile(path)
	if err != nil {
		t.Fatalf("LoadToleranceProfile: %v", err)
	}
	if p.Name != "museum-competition" || !p.Strict {
		t.Errorf("header fields not loaded: %+v", p)
	}
	if p.DriftThreshold != 0.05 {
		t.Errorf("drift threshold = %g, want 0.05", p.DriftThreshold)
	}

	// The named category is replaced wholesale.
	fp := p.Categories[drift.CategoryFloorPlans]
	if fp.MaxStructuralDrift != 0.02 || fp.MaxHashDistance != 1 {
		t.Errorf("floor plan envelope not overridden: %+v", fp)
	}
	// Unnamed categories keep their defaults.
	if p.Categories[drift.CategoryElevations] != drift.DefaultTolerances()[drift.CategoryElevations] {
		t.Errorf("elevation envelope changed: %+v", p.Categories[drift.CategoryElevations])
	}
}

func TestLoadToleranceProfile_UnknownCategory(t *testing.T) {
	path := writeProfile(t, `
categories:
  watercolor_sketches:
    maxStructuralDrift: 0.5
`)

	_, err := LoadToleranceProfile(path)
	if err == nil || !strings.Contains(err.Error(), "watercolor_sketches") {
		t.Fatalf("unknown category not rejected: %v", err)
	}
}

func TestLoadToleranceProfile_OutOfRange(t *testing.T) {
	for _, body := range []string{
		"driftThreshold: 1.5",
		"sheet:\n  minPassRate: -0.1",
		"categories:\n  views_3d:\n    minImageSimilarity: 2.0",
		"categories:\n  views_3d:\n    maxHashDistance: 65",
	} {
		if _, err := LoadToleranceProfile(writeProfile(t, body)); err == nil {
			t.Errorf("profile %q accepted", body)
		}
	}
}

func TestLoadToleranceProfile_MissingFile(t *testing.T) {
	if _, err := LoadToleranceProfile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestLoadToleranceProfile_MalformedYAML(t *testing.T) {
	if _, err := LoadToleranceProfile(writeProfile(t, ":\t not yaml [")); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}

func TestComparatorOptions(t *testing.T) {
	opts := DefaultProfile().ComparatorOptions()
	if len(opts) != 2 {
		t.Fatalf("got %d options, want 2", len(opts))
	}
}
