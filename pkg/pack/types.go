// Package pack assembles canonical geometry into one structural
// artifact per panel type and hashes the set into a single aggregate
// geometry hash. The two-level hash (per panel, then aggregate) lets
// the consistency gate attribute a mismatch to a specific panel type
// instead of only knowing that something drifted.
package pack

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// Panel type identifiers. These are wire-stable: panel results arriving
// from the generation layer are tagged with them.
const (
	PanelSitePlan        = "site_plan"
	PanelLocationPlan    = "location_plan"
	PanelFloorPlanGround = "floor_plan_ground"
	PanelElevationNorth  = "elevation_north"
	PanelElevationSouth  = "elevation_south"
	PanelElevationEast   = "elevation_east"
	PanelElevationWest   = "elevation_west"
	PanelSectionAA       = "section_a_a"
	PanelSectionBB       = "section_b_b"
	PanelHero3D          = "hero_3d"
	PanelAxonometric     = "axonometric"
	PanelPerspective     = "perspective"
	PanelMaterialLegend  = "material_legend"
	PanelTitleBlock      = "title_block"
)

// SchemaVersion is the pack layout version written by this assembler.
// Packs whose majors differ are not comparable.
const SchemaVersion = "1.1.0"

// FloorPlanPanel returns the panel type for a floor plan at the given
// level. Level 0 is the ground floor.
func FloorPlanPanel(floor int) string {
	if floor <= 0 {
		return PanelFloorPlanGround
	}
	return fmt.Sprintf("floor_plan_level_%d", floor)
}

// Panel is one structural artifact of a canonical pack.
type Panel struct {
	Type     string          `json:"type"`
	Artifact json.RawMessage `json:"artifact"`
	Hash     string          `json:"hash"`
}

// Pack is the full set of structural panels derived from one building
// description, plus the aggregate geometry hash. Packs carry no
// timestamps: identical geometry always assembles byte-identically.
type Pack struct {
	SchemaVersion string           `json:"schemaVersion"`
	DesignHash    string           `json:"designHash"`
	GeometryHash  string           `json:"geometryHash"`
	Panels        map[string]Panel `json:"panels"`
}

// CacheKey identifies the pack for cache lookups. The design hash alone
// is not enough: solve-level walls and openings feed the geometry hash
// but not the design fingerprint, so two packs can share a design hash
// while disagreeing structurally.
func (p *Pack) CacheKey() string {
	return p.DesignHash + ":" + p.GeometryHash
}

// PanelTypes returns the pack's panel types in sorted order.
func (p *Pack) PanelTypes() []string {
	types := make([]string, 0, len(p.Panels))
	for t := range p.Panels {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// PanelHash returns the hash of one panel.
func (p *Pack) PanelHash(panelType string) (string, bool) {
	panel, ok := p.Panels[panelType]
	if !ok {
		return "", false
	}
	return panel.Hash, true
}

// ChangedPanels returns the panel types whose hashes differ between the
// two packs, including types present on only one side, sorted. When
// aggregate hashes disagree this names the panels responsible.
func (p *Pack) ChangedPanels(other *Pack) []string {
	seen := make(map[string]bool)
	var changed []string
	for t, panel := range p.Panels {
		seen[t] = true
		o, ok := other.Panels[t]
		if !ok || o.Hash != panel.Hash {
			changed = append(changed, t)
		}
	}
	for t := range other.Panels {
		if !seen[t] {
			changed = append(changed, t)
		}
	}
	sort.Strings(changed)
	return changed
}

// CompatibleSchema reports whether a stored pack's schema version can
// be compared against the current one. Majors must match.
func CompatibleSchema(current, stored string) (bool, error) {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("pack: invalid current schema version %q: %w", current, err)
	}
	got, err := semver.NewVersion(stored)
	if err != nil {
		return false, fmt.Errorf("pack: invalid stored schema version %q: %w", stored, err)
	}
	return cur.Major() == got.Major(), nil
}
