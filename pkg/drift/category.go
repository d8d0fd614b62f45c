// Package drift measures structural and perceptual divergence between
// a geometric baseline and generated panel artifacts. Structural drift
// compares building descriptions; image drift compares raster panels
// through a similarity score, a perceptual hash and an edge alignment
// score, judged against per-category tolerances.
package drift

import "strings"

// Category groups panel types that share drift tolerances. Orthographic
// drawings tolerate almost no divergence; contextual and decorative
// panels tolerate plenty.
type Category string

const (
	CategorySite       Category = "site_context"
	CategoryFloorPlans Category = "floor_plans"
	CategoryElevations Category = "elevations_sections"
	Category3D         Category = "views_3d"
	CategoryDiagrams   Category = "diagrams_legends"
)

// Tolerance is the acceptance envelope for one panel category.
type Tolerance struct {
	// MaxStructuralDrift bounds the weighted structural drift score.
	MaxStructuralDrift float64 `yaml:"maxStructuralDrift" json:"maxStructuralDrift"`
	// MinImageSimilarity is the floor on the pixel similarity score.
	MinImageSimilarity float64 `yaml:"minImageSimilarity" json:"minImageSimilarity"`
	// MaxHashDistance bounds the perceptual hash Hamming distance.
	MaxHashDistance int `yaml:"maxHashDistance" json:"maxHashDistance"`
	// MinEdgeF1 is the floor on the edge alignment score, applied only
	// when edge scoring is enabled.
	MinEdgeF1 float64 `yaml:"minEdgeF1" json:"minEdgeF1"`
}

// Tolerances maps categories to their acceptance envelopes.
type Tolerances map[Category]Tolerance

// DefaultTolerances returns the standard envelope per category. The
// numbers are empirical; they ship as defaults, not constants, and can
// be overridden per deployment.
func DefaultTolerances() Tolerances {
	return Tolerances{
		CategorySite:       {MaxStructuralDrift: 0.15, MinImageSimilarity: 0.90, MaxHashDistance: 8, MinEdgeF1: 0.65},
		CategoryFloorPlans: {MaxStructuralDrift: 0.05, MinImageSimilarity: 0.95, MaxHashDistance: 2, MinEdgeF1: 0.65},
		CategoryElevations: {MaxStructuralDrift: 0.08, MinImageSimilarity: 0.95, MaxHashDistance: 5, MinEdgeF1: 0.65},
		Category3D:         {MaxStructuralDrift: 0.12, MinImageSimilarity: 0.90, MaxHashDistance: 8, MinEdgeF1: 0.65},
		CategoryDiagrams:   {MaxStructuralDrift: 0.20, MinImageSimilarity: 0.85, MaxHashDistance: 10, MinEdgeF1: 0.65},
	}
}

// For returns the envelope for a category, falling back to the diagrams
// envelope for categories the map does not carry.
func (t Tolerances) For(c Category) Tolerance {
	if tol, ok := t[c]; ok {
		return tol
	}
	if tol, ok := t[CategoryDiagrams]; ok {
		return tol
	}
	return DefaultTolerances()[CategoryDiagrams]
}

// CategoryForPanel classifies a panel type string. Unknown types land
// in the diagrams category, the most lenient envelope.
func CategoryForPanel(panelType string) Category {
	switch {
	case panelType == "site_plan" || panelType == "location_plan":
		return CategorySite
	case strings.HasPrefix(panelType, "floor_plan"):
		return CategoryFloorPlans
	case strings.HasPrefix(panelType, "elevation_") || strings.HasPrefix(panelType, "section_"):
		return CategoryElevations
	case panelType == "hero_3d" || panelType == "axonometric" || panelType == "perspective":
		return Category3D
	default:
		return CategoryDiagrams
	}
}
