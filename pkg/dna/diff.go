package dna

import (
	"fmt"
	"sort"
	"strconv"
)

// Violation kinds are stable codes consumed by the consistency gate and
// its reports.
const (
	KindDimensionDrift       = "DIMENSION_DRIFT"
	KindMaterialAdded        = "MATERIAL_ADDED"
	KindMaterialRemoved      = "MATERIAL_REMOVED"
	KindMaterialColorChanged = "MATERIAL_COLOR_CHANGED"
	KindStyleChanged         = "STYLE_CHANGED"
	KindProjectTypeChanged   = "PROJECT_TYPE_CHANGED"
)

// Drift score weights. Dimensions dominate: a resized building drifts
// harder than a recolored one.
const (
	weightDimensions  = 0.4
	weightMaterials   = 0.3
	weightStyle       = 0.2
	weightProjectType = 0.1
)

// DefaultDimensionTolerance is the per-field relative drift above which
// a dimension change becomes a violation.
const DefaultDimensionTolerance = 0.05

// DefaultDriftThreshold is the overall score above which HasDrift trips.
const DefaultDriftThreshold = 0.10

// Violation is one typed structural difference between two descriptions.
type Violation struct {
	Field     string  `json:"field"`
	Kind      string  `json:"kind"`
	Base      string  `json:"base,omitempty"`
	Candidate string  `json:"candidate,omitempty"`
	Delta     float64 `json:"delta,omitempty"`
}

// StructuralDrift is the result of diffing a candidate description
// against a base.
type StructuralDrift struct {
	DimensionDrift float64 `json:"dimensionDrift"`
	// MaxDimensionDrift is the worst single-field relative drift,
	// recorded even below the violation tolerance. Per-panel envelopes
	// bound this, not the mean.
	MaxDimensionDrift  float64     `json:"maxDimensionDrift"`
	MaterialDrift      float64     `json:"materialDrift"`
	StyleChanged       bool        `json:"styleChanged"`
	ProjectTypeChanged bool        `json:"projectTypeChanged"`
	Score              float64     `json:"score"`
	HasDrift           bool        `json:"hasDrift"`
	Violations         []Violation `json:"violations,omitempty"`
}

// Differ computes structural drift with configurable tolerances.
type Differ struct {
	dimTolerance   float64
	driftThreshold float64
}

// DifferOption configures a Differ.
type DifferOption func(*Differ)

// WithDimensionTolerance overrides the per-field dimension tolerance.
func WithDimensionTolerance(t float64) DifferOption {
	return func(d *Differ) { d.dimTolerance = t }
}

// WithDriftThreshold overrides the overall HasDrift threshold.
func WithDriftThreshold(t float64) DifferOption {
	return func(d *Differ) { d.driftThreshold = t }
}

// NewDiffer constructs a Differ with the default tolerances.
func NewDiffer(opts ...DifferOption) *Differ {
	d := &Differ{
		dimTolerance:   DefaultDimensionTolerance,
		driftThreshold: DefaultDriftThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Diff compares candidate against base using the default tolerances.
func Diff(base, candidate BuildingDescription) StructuralDrift {
	return NewDiffer().Diff(base, candidate)
}

// Diff compares candidate against base. Both sides are normalized
// first, so input ordering and formatting never register as drift.
func (df *Differ) Diff(base, candidate BuildingDescription) StructuralDrift {
	b := Normalize(base)
	c := Normalize(candidate)

	out := StructuralDrift{}

	out.DimensionDrift = df.diffDimensions(b.Dimensions, c.Dimensions, &out)
	out.MaterialDrift = df.diffMaterials(b.Materials, c.Materials, &out)

	if b.Style != c.Style {
		out.StyleChanged = true
		out.Violations = append(out.Violations, Violation{
			Field: "style", Kind: KindStyleChanged, Base: b.Style, Candidate: c.Style,
		})
	}
	if b.ProjectType != c.ProjectType {
		out.ProjectTypeChanged = true
		out.Violations = append(out.Violations, Violation{
			Field: "projectType", Kind: KindProjectTypeChanged, Base: b.ProjectType, Candidate: c.ProjectType,
		})
	}

	score := weightDimensions*out.DimensionDrift + weightMaterials*out.MaterialDrift
	if out.StyleChanged {
		score += weightStyle
	}
	if out.ProjectTypeChanged {
		score += weightProjectType
	}
	out.Score = clampUnit(score)
	// A tolerance breach on any single field is drift even when the
	// weighted score stays under the threshold.
	out.HasDrift = out.Score > df.driftThreshold || len(out.Violations) > 0

	return out
}

// diffDimensions returns the mean relative drift across the linear
// dimensions and the floor count. Zero-base terms are skipped rather
// than dividing by zero.
func (df *Differ) diffDimensions(b, c Dimensions, out *StructuralDrift) float64 {
	terms := []struct {
		field string
		base  float64
		cand  float64
	}{
		{"dimensions.lengthM", b.LengthM, c.LengthM},
		{"dimensions.widthM", b.WidthM, c.WidthM},
		{"dimensions.heightM", b.HeightM, c.HeightM},
		{"dimensions.floors", float64(b.Floors), float64(c.Floors)},
	}

	var sum float64
	var counted int
	for _, term := range terms {
		if term.base == 0 {
			continue
		}
		rel := abs(term.base-term.cand) / term.base
		sum += rel
		counted++
		if rel > out.MaxDimensionDrift {
			out.MaxDimensionDrift = rel
		}
		if rel > df.dimTolerance {
			out.Violations = append(out.Violations, Violation{
				Field:     term.field,
				Kind:      KindDimensionDrift,
				Base:      formatFloat(term.base),
				Candidate: formatFloat(term.cand),
				Delta:     rel,
			})
		}
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}

// diffMaterials keys both schedules by name+application and scores
// added, removed and recolored entries against the larger schedule.
// Materials require exact agreement: every difference is a violation.
func (df *Differ) diffMaterials(b, c []Material, out *StructuralDrift) float64 {
	if len(b) == 0 && len(c) == 0 {
		return 0
	}

	baseByKey := make(map[string]Material, len(b))
	for _, m := range b {
		baseByKey[materialKey(m)] = m
	}
	candByKey := make(map[string]Material, len(c))
	for _, m := range c {
		candByKey[materialKey(m)] = m
	}

	var changes int
	for _, key := range sortedKeys(baseByKey) {
		bm := baseByKey[key]
		cm, ok := candByKey[key]
		if !ok {
			changes++
			out.Violations = append(out.Violations, Violation{
				Field: "materials." + key, Kind: KindMaterialRemoved, Base: bm.Name,
			})
			continue
		}
		if bm.Color != cm.Color {
			changes++
			out.Violations = append(out.Violations, Violation{
				Field: "materials." + key, Kind: KindMaterialColorChanged,
				Base: bm.Color, Candidate: cm.Color,
			})
		}
	}
	for _, key := range sortedKeys(candByKey) {
		if _, ok := baseByKey[key]; !ok {
			changes++
			out.Violations = append(out.Violations, Violation{
				Field: "materials." + key, Kind: KindMaterialAdded, Candidate: candByKey[key].Name,
			})
		}
	}

	denom := len(b)
	if len(c) > denom {
		denom = len(c)
	}
	return float64(changes) / float64(denom)
}

func materialKey(m Material) string {
	return fmt.Sprintf("%s|%s", m.Name, m.Application)
}

func sortedKeys(m map[string]Material) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func clampUnit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
