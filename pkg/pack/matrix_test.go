package pack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatrix_CompleteSheet(t *testing.T) {
	produced := []string{
		PanelSitePlan, PanelFloorPlanGround,
		PanelElevationNorth, PanelElevationSouth, PanelElevationEast, PanelElevationWest,
		PanelSectionAA, PanelSectionBB,
		PanelHero3D, PanelMaterialLegend, PanelTitleBlock,
	}

	m := DefaultMatrix()
	require.Empty(t, m.MissingFrom(produced))
	require.Empty(t, m.RecommendedMissing(produced))
}

func TestMatrix_MissingPanelsListedInOrder(t *testing.T) {
	m := NewMatrix(
		Requirement{Panel: PanelFloorPlanGround},
		Requirement{Panel: PanelElevationNorth},
		Requirement{Panel: PanelElevationSouth},
		Requirement{Panel: PanelSectionAA},
	)

	missing := m.MissingFrom([]string{PanelHero3D, PanelAxonometric})
	require.Equal(t, []string{
		PanelFloorPlanGround,
		PanelElevationNorth,
		PanelElevationSouth,
		PanelSectionAA,
	}, missing)
}

func TestMatrix_AlternativesSatisfyRequirement(t *testing.T) {
	m := DefaultMatrix()

	produced := []string{
		PanelLocationPlan, PanelFloorPlanGround,
		PanelElevationNorth, PanelElevationSouth,
		PanelSectionAA, PanelAxonometric,
		PanelMaterialLegend, PanelTitleBlock,
	}
	require.Empty(t, m.MissingFrom(produced))
}

func TestMatrix_RecommendedNeverBlocks(t *testing.T) {
	m := DefaultMatrix()

	produced := []string{
		PanelSitePlan, PanelFloorPlanGround,
		PanelElevationNorth, PanelElevationSouth,
		PanelSectionAA, PanelHero3D,
		PanelMaterialLegend, PanelTitleBlock,
	}
	require.Empty(t, m.MissingFrom(produced))
	require.Equal(t, []string{
		PanelElevationEast, PanelElevationWest, PanelSectionBB,
	}, m.RecommendedMissing(produced))
}

func TestMatrix_EmptyProducedSet(t *testing.T) {
	m := DefaultMatrix()
	missing := m.MissingFrom(nil)
	require.Equal(t, m.Required(), missing)
}
