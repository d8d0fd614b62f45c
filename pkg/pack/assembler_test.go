package pack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Plinth-Labs/maquette/pkg/dna"
	"github.com/Plinth-Labs/maquette/pkg/geometry"
)

// packFixture is a two-storey 10x8 envelope with a full perimeter on
// the ground floor.
func packFixture() dna.BuildingDescription {
	return dna.BuildingDescription{
		Style:       "modern",
		ProjectType: "residential",
		Dimensions:  dna.Dimensions{LengthM: 10, WidthM: 8, HeightM: 6, Floors: 2},
		Materials: []dna.Material{
			{Name: "render", Color: "white", Application: "facade"},
			{Name: "slate", Color: "grey", Application: "roof"},
			{Name: "pine", Color: "clear", Application: "interior"},
		},
		Rooms: []dna.Room{
			{Name: "living", Floor: 0, AreaM2: 30},
			{Name: "bedroom", Floor: 1, AreaM2: 16},
		},
		Walls: []geometry.Wall{
			{ID: "wall_0_ext_0", Start: geometry.Point{X: 10, Y: 8}, End: geometry.Point{X: 0, Y: 8}, Floor: 0, ThicknessM: 0.3},
			{ID: "wall_0_ext_1", Start: geometry.Point{X: 0, Y: 8}, End: geometry.Point{X: 0, Y: 0}, Floor: 0, ThicknessM: 0.3},
			{ID: "wall_0_ext_2", Start: geometry.Point{X: 0, Y: 0}, End: geometry.Point{X: 10, Y: 0}, Floor: 0, ThicknessM: 0.3},
			{ID: "wall_0_ext_3", Start: geometry.Point{X: 10, Y: 0}, End: geometry.Point{X: 10, Y: 8}, Floor: 0, ThicknessM: 0.3},
		},
	}
}

func mustAssemble(t *testing.T, desc dna.BuildingDescription) *Pack {
	t.Helper()
	p, err := Assemble(desc)
	require.NoError(t, err)
	return p
}

func TestAssembler_Deterministic(t *testing.T) {
	first := mustAssemble(t, packFixture())
	second := mustAssemble(t, packFixture())

	require.Equal(t, first.GeometryHash, second.GeometryHash)
	require.Equal(t, first.DesignHash, second.DesignHash)
	require.Equal(t, first.PanelTypes(), second.PanelTypes())
	for _, pt := range first.PanelTypes() {
		h1, _ := first.PanelHash(pt)
		h2, _ := second.PanelHash(pt)
		require.Equal(t, h1, h2, "panel %s hash unstable", pt)
	}
}

func TestAssembler_WidthChangeChangesGeometryHash(t *testing.T) {
	narrow := packFixture()
	narrow.Walls = nil
	narrow.Dimensions.WidthM = 10

	wide := packFixture()
	wide.Walls = nil
	wide.Dimensions.WidthM = 12

	pNarrow := mustAssemble(t, narrow)
	pWide := mustAssemble(t, wide)
	require.NotEqual(t, pNarrow.GeometryHash, pWide.GeometryHash)
}

func TestAssembler_PanelSet(t *testing.T) {
	p := mustAssemble(t, packFixture())

	require.Equal(t, []string{
		PanelElevationEast,
		PanelElevationNorth,
		PanelElevationSouth,
		PanelElevationWest,
		PanelFloorPlanGround,
		"floor_plan_level_1",
		PanelHero3D,
		PanelSectionAA,
		PanelSectionBB,
	}, p.PanelTypes())

	require.Equal(t, SchemaVersion, p.SchemaVersion)
	require.Len(t, p.DesignHash, 32)
	require.True(t, strings.HasPrefix(p.GeometryHash, "sha256:"))
	for _, panel := range p.Panels {
		require.True(t, strings.HasPrefix(panel.Hash, "sha256:"))
		require.NotEmpty(t, panel.Artifact)
	}
}

func TestAssembler_InputOrderingInvariance(t *testing.T) {
	base := packFixture()

	shuffled := packFixture()
	shuffled.Materials = []dna.Material{
		shuffled.Materials[2], shuffled.Materials[0], shuffled.Materials[1],
	}
	shuffled.Style = "  Modern "

	p1 := mustAssemble(t, base)
	p2 := mustAssemble(t, shuffled)
	require.Equal(t, p1.GeometryHash, p2.GeometryHash)
	require.Equal(t, p1.DesignHash, p2.DesignHash)
}

func TestAssembler_FacadeChangeAttributedToItsPanels(t *testing.T) {
	base := packFixture()

	withWindow := packFixture()
	withWindow.Openings = []geometry.Opening{
		{Type: geometry.OpeningWindow, Facade: geometry.FacadeNorth, Floor: 0},
	}

	p1 := mustAssemble(t, base)
	p2 := mustAssemble(t, withWindow)

	// A north-facade window touches the north elevation, the ground
	// plan and the hero view; nothing else.
	require.Equal(t, []string{
		PanelElevationNorth,
		PanelFloorPlanGround,
		PanelHero3D,
	}, p1.ChangedPanels(p2))

	// Openings are geometry, not design identity.
	require.Equal(t, p1.DesignHash, p2.DesignHash)
	require.NotEqual(t, p1.GeometryHash, p2.GeometryHash)
}

func TestAssembler_InteriorRecolorOnlyTouchesHero(t *testing.T) {
	base := packFixture()

	recolored := packFixture()
	recolored.Materials[2].Color = "stained"

	p1 := mustAssemble(t, base)
	p2 := mustAssemble(t, recolored)

	require.Equal(t, []string{PanelHero3D}, p1.ChangedPanels(p2))
	require.NotEqual(t, p1.DesignHash, p2.DesignHash)
}

func TestAssembler_SectionExtents(t *testing.T) {
	p := mustAssemble(t, packFixture())

	aa := p.Panels[PanelSectionAA]
	require.Contains(t, string(aa.Artifact), `"cutAxis":"transverse"`)
	require.Contains(t, string(aa.Artifact), `"extentM":8`)

	bb := p.Panels[PanelSectionBB]
	require.Contains(t, string(bb.Artifact), `"cutAxis":"longitudinal"`)
	require.Contains(t, string(bb.Artifact), `"extentM":10`)
}

func TestFloorPlanPanel(t *testing.T) {
	require.Equal(t, PanelFloorPlanGround, FloorPlanPanel(0))
	require.Equal(t, PanelFloorPlanGround, FloorPlanPanel(-1))
	require.Equal(t, "floor_plan_level_2", FloorPlanPanel(2))
}

func TestCompatibleSchema(t *testing.T) {
	ok, err := CompatibleSchema("1.1.0", "1.0.3")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = CompatibleSchema("1.1.0", "2.0.0")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = CompatibleSchema("1.1.0", "not-a-version")
	require.Error(t, err)
}

func TestNewAssembler_RejectsBadSchemaVersion(t *testing.T) {
	_, err := NewAssembler(WithSchemaVersion("vNext"))
	require.Error(t, err)
}
