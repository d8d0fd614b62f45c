package pack

import (
	"fmt"
	"log/slog"

	"github.com/Plinth-Labs/maquette/pkg/canonical"
	"github.com/Plinth-Labs/maquette/pkg/dna"
	"github.com/Plinth-Labs/maquette/pkg/geometry"
)

// Assembler turns a building description into a canonical pack. The
// description is normalized first, so semantically identical inputs
// always assemble to identical hashes.
type Assembler struct {
	builder *geometry.Builder
	log     *slog.Logger
	version string
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithGeometryBuilder overrides the canonical geometry builder.
func WithGeometryBuilder(b *geometry.Builder) AssemblerOption {
	return func(a *Assembler) { a.builder = b }
}

// WithLogger sets the assembler's logger.
func WithLogger(l *slog.Logger) AssemblerOption {
	return func(a *Assembler) { a.log = l }
}

// WithSchemaVersion overrides the schema version stamped on packs.
func WithSchemaVersion(v string) AssemblerOption {
	return func(a *Assembler) { a.version = v }
}

// NewAssembler constructs an Assembler. The schema version must parse
// as semver.
func NewAssembler(opts ...AssemblerOption) (*Assembler, error) {
	a := &Assembler{version: SchemaVersion}
	for _, opt := range opts {
		opt(a)
	}
	if a.builder == nil {
		a.builder = geometry.NewBuilder()
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if _, err := CompatibleSchema(a.version, a.version); err != nil {
		return nil, err
	}
	return a, nil
}

// Assemble is a convenience wrapper using a default Assembler.
func Assemble(desc dna.BuildingDescription) (*Pack, error) {
	a, err := NewAssembler()
	if err != nil {
		return nil, err
	}
	return a.Assemble(desc)
}

// BuildCanonicalGeometry normalizes the description and projects it
// into canonical elevation geometry.
func (a *Assembler) BuildCanonicalGeometry(desc dna.BuildingDescription) geometry.Canonical {
	return a.builder.Build(dna.Normalize(desc).GeometryInput())
}

// Assemble builds the full canonical pack for a description: one panel
// per floor plan level, four elevations, two sections and the hero
// view, each hashed individually, plus the aggregate geometry hash over
// the sorted panel hash map.
func (a *Assembler) Assemble(desc dna.BuildingDescription) (*Pack, error) {
	norm := dna.Normalize(desc)

	designHash, err := dna.Fingerprint(norm)
	if err != nil {
		return nil, fmt.Errorf("pack: fingerprint description: %w", err)
	}

	input := norm.GeometryInput()
	geom := a.builder.Build(input)
	heights := a.builder.FloorHeights(input)

	north := geom[geometry.FacadeNorth]

	panels := make(map[string]Panel)
	add := func(panelType string, view interface{}) error {
		artifact, err := canonical.MarshalCanonical(view)
		if err != nil {
			return fmt.Errorf("pack: serialize panel %s: %w", panelType, err)
		}
		panels[panelType] = Panel{
			Type:     panelType,
			Artifact: artifact,
			Hash:     canonical.SumHex(artifact),
		}
		return nil
	}

	for floor := range heights {
		if err := add(FloorPlanPanel(floor), planView{
			Panel:        FloorPlanPanel(floor),
			Floor:        floor,
			LengthM:      norm.Dimensions.LengthM,
			WidthM:       norm.Dimensions.WidthM,
			FloorHeightM: heights[floor],
			Rooms:        roomsOnFloor(norm.Rooms, floor),
			Walls:        wallsOnFloor(norm.Walls, floor),
			Openings:     openingsOnFloor(norm.Openings, floor),
		}); err != nil {
			return nil, err
		}
	}

	exterior := exteriorMaterials(norm.Materials)
	for _, facade := range geometry.AllFacades() {
		panelType := elevationPanel(facade)
		if err := add(panelType, elevationView{
			Panel:     panelType,
			Facade:    facade,
			Elevation: geom[facade],
			Materials: exterior,
		}); err != nil {
			return nil, err
		}
	}

	if err := add(PanelSectionAA, sectionView{
		Panel:         PanelSectionAA,
		CutAxis:       "transverse",
		ExtentM:       norm.Dimensions.WidthM,
		FloorHeightsM: heights,
		TotalHeightM:  north.TotalHeightM,
		Levels:        north.Levels,
	}); err != nil {
		return nil, err
	}
	if err := add(PanelSectionBB, sectionView{
		Panel:         PanelSectionBB,
		CutAxis:       "longitudinal",
		ExtentM:       norm.Dimensions.LengthM,
		FloorHeightsM: heights,
		TotalHeightM:  north.TotalHeightM,
		Levels:        north.Levels,
	}); err != nil {
		return nil, err
	}

	if err := add(PanelHero3D, heroView{
		Panel:         PanelHero3D,
		Dimensions:    norm.Dimensions,
		Style:         norm.Style,
		Materials:     norm.Materials,
		OpeningCounts: openingCounts(geom),
	}); err != nil {
		return nil, err
	}

	hashes := make(map[string]string, len(panels))
	for t, panel := range panels {
		hashes[t] = panel.Hash
	}

	p := &Pack{
		SchemaVersion: a.version,
		DesignHash:    designHash,
		GeometryHash:  canonical.HashFields(hashes),
		Panels:        panels,
	}
	a.log.Debug("canonical pack assembled",
		"panels", len(p.Panels),
		"geometry_hash", p.GeometryHash,
		"design_hash", p.DesignHash)
	return p, nil
}

// planView is the structural slice hashed for one floor plan panel.
type planView struct {
	Panel        string             `json:"panel"`
	Floor        int                `json:"floor"`
	LengthM      float64            `json:"lengthM"`
	WidthM       float64            `json:"widthM"`
	FloorHeightM float64            `json:"floorHeightM"`
	Rooms        []dna.Room         `json:"rooms,omitempty"`
	Walls        []geometry.Wall    `json:"walls,omitempty"`
	Openings     []geometry.Opening `json:"openings,omitempty"`
}

// elevationView is the structural slice hashed for one elevation panel.
// Only exterior-visible materials participate, so an interior recolor
// never shows up as elevation drift.
type elevationView struct {
	Panel     string              `json:"panel"`
	Facade    geometry.Facade     `json:"facade"`
	Elevation *geometry.Elevation `json:"elevation"`
	Materials []dna.Material      `json:"materials,omitempty"`
}

type sectionView struct {
	Panel         string    `json:"panel"`
	CutAxis       string    `json:"cutAxis"`
	ExtentM       float64   `json:"extentM"`
	FloorHeightsM []float64 `json:"floorHeightsM"`
	TotalHeightM  float64   `json:"totalHeightM"`
	Levels        int       `json:"levels"`
}

type heroView struct {
	Panel         string         `json:"panel"`
	Dimensions    dna.Dimensions `json:"dimensions"`
	Style         string         `json:"style,omitempty"`
	Materials     []dna.Material `json:"materials,omitempty"`
	OpeningCounts map[string]int `json:"openingCounts,omitempty"`
}

func elevationPanel(f geometry.Facade) string {
	switch f {
	case geometry.FacadeNorth:
		return PanelElevationNorth
	case geometry.FacadeSouth:
		return PanelElevationSouth
	case geometry.FacadeEast:
		return PanelElevationEast
	default:
		return PanelElevationWest
	}
}

func roomsOnFloor(rooms []dna.Room, floor int) []dna.Room {
	var out []dna.Room
	for _, r := range rooms {
		if r.Floor == floor {
			out = append(out, r)
		}
	}
	return out
}

func wallsOnFloor(walls []geometry.Wall, floor int) []geometry.Wall {
	var out []geometry.Wall
	for _, w := range walls {
		if w.Floor == floor {
			out = append(out, w)
		}
	}
	return out
}

func openingsOnFloor(openings []geometry.Opening, floor int) []geometry.Opening {
	var out []geometry.Opening
	for _, o := range openings {
		if o.Floor == floor {
			out = append(out, o)
		}
	}
	return out
}

func exteriorMaterials(materials []dna.Material) []dna.Material {
	var out []dna.Material
	for _, m := range materials {
		if m.Application != "interior" {
			out = append(out, m)
		}
	}
	return out
}

func openingCounts(geom geometry.Canonical) map[string]int {
	counts := make(map[string]int, len(geom))
	for facade, el := range geom {
		counts[string(facade)] = len(el.OpeningRects)
	}
	return counts
}
