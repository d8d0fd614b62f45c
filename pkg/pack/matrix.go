package pack

// Requirement is one mandatory slot on a presentation sheet. The slot
// is satisfied when any panel type in AnyOf was produced; Panel is the
// canonical type named in retry lists when it was not.
type Requirement struct {
	Panel string
	AnyOf []string
}

func (r Requirement) satisfiedBy(produced map[string]bool) bool {
	accepted := r.AnyOf
	if len(accepted) == 0 {
		accepted = []string{r.Panel}
	}
	for _, t := range accepted {
		if produced[t] {
			return true
		}
	}
	return false
}

// Matrix is the sheet completeness contract: which panel types must be
// present before a sheet may be composited, and which are merely
// recommended.
type Matrix struct {
	required    []Requirement
	recommended []string
}

// NewMatrix builds a matrix from explicit requirements, in order.
func NewMatrix(required ...Requirement) *Matrix {
	return &Matrix{required: required}
}

// WithRecommended adds advisory panel types. Their absence never blocks
// the gate; it only surfaces as a report warning.
func (m *Matrix) WithRecommended(types ...string) *Matrix {
	m.recommended = append(m.recommended, types...)
	return m
}

// DefaultMatrix is the standard presentation sheet contract: a site or
// location plan, the ground floor plan, front and back elevations, one
// section, one 3D exterior view, the material legend and the title
// block. Side elevations and the second section are recommended.
func DefaultMatrix() *Matrix {
	return NewMatrix(
		Requirement{Panel: PanelSitePlan, AnyOf: []string{PanelSitePlan, PanelLocationPlan}},
		Requirement{Panel: PanelFloorPlanGround},
		Requirement{Panel: PanelElevationNorth},
		Requirement{Panel: PanelElevationSouth},
		Requirement{Panel: PanelSectionAA},
		Requirement{Panel: PanelHero3D, AnyOf: []string{PanelHero3D, PanelAxonometric, PanelPerspective}},
		Requirement{Panel: PanelMaterialLegend},
		Requirement{Panel: PanelTitleBlock},
	).WithRecommended(PanelElevationEast, PanelElevationWest, PanelSectionBB)
}

// Required returns the canonical panel types of all requirements.
func (m *Matrix) Required() []string {
	out := make([]string, len(m.required))
	for i, r := range m.required {
		out[i] = r.Panel
	}
	return out
}

// MissingFrom returns the canonical panel types of requirements not
// satisfied by the produced set, in requirement order. An empty result
// means the sheet is complete.
func (m *Matrix) MissingFrom(produced []string) []string {
	have := make(map[string]bool, len(produced))
	for _, t := range produced {
		have[t] = true
	}
	var missing []string
	for _, r := range m.required {
		if !r.satisfiedBy(have) {
			missing = append(missing, r.Panel)
		}
	}
	return missing
}

// RecommendedMissing returns the advisory panel types absent from the
// produced set.
func (m *Matrix) RecommendedMissing(produced []string) []string {
	have := make(map[string]bool, len(produced))
	for _, t := range produced {
		have[t] = true
	}
	var missing []string
	for _, t := range m.recommended {
		if !have[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
