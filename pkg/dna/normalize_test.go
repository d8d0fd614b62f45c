package dna

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_MaterialsByApplicationPriority(t *testing.T) {
	d := BuildingDescription{
		Materials: []Material{
			{Name: "oak", Application: "interior"},
			{Name: "slate", Application: "roof"},
			{Name: "render", Application: "facade"},
			{Name: "granite", Application: "plinth"},
		},
	}

	n := Normalize(d)
	apps := make([]string, len(n.Materials))
	for i, m := range n.Materials {
		apps[i] = m.Application
	}
	require.Equal(t, []string{"facade", "roof", "plinth", "interior"}, apps)
}

func TestNormalize_UnknownApplicationsSortLast(t *testing.T) {
	d := BuildingDescription{
		Materials: []Material{
			{Name: "zinc", Application: "gutter"},
			{Name: "larch", Application: "cladding"},
			{Name: "render", Application: "facade"},
		},
	}

	n := Normalize(d)
	require.Equal(t, "facade", n.Materials[0].Application)
	// Unknown applications after known ones, alphabetically.
	require.Equal(t, "cladding", n.Materials[1].Application)
	require.Equal(t, "gutter", n.Materials[2].Application)
}

func TestNormalize_RoomsByFloorThenAreaDescending(t *testing.T) {
	d := BuildingDescription{
		Rooms: []Room{
			{Name: "bedroom", Floor: 1, AreaM2: 14},
			{Name: "kitchen", Floor: 0, AreaM2: 12},
			{Name: "living", Floor: 0, AreaM2: 28},
			{Name: "bathroom", Floor: 1, AreaM2: 6},
		},
	}

	n := Normalize(d)
	names := make([]string, len(n.Rooms))
	for i, r := range n.Rooms {
		names[i] = r.Name
	}
	require.Equal(t, []string{"living", "kitchen", "bedroom", "bathroom"}, names)
}

func TestNormalize_RoomAreaFromDimensions(t *testing.T) {
	d := BuildingDescription{
		Rooms: []Room{{Name: "study", WidthM: 3.5, DepthM: 2.8}},
	}
	n := Normalize(d)
	require.InDelta(t, 9.8, n.Rooms[0].AreaM2, 1e-9)
}

func TestNormalize_RoundsToTwoDecimals(t *testing.T) {
	d := BuildingDescription{
		Dimensions: Dimensions{LengthM: 12.3456, WidthM: 8.006, HeightM: 6.994},
	}
	n := Normalize(d)
	require.InDelta(t, 12.35, n.Dimensions.LengthM, 1e-9)
	require.InDelta(t, 8.01, n.Dimensions.WidthM, 1e-9)
	require.InDelta(t, 6.99, n.Dimensions.HeightM, 1e-9)
}

func TestNormalize_CategoricalTokensLowerCased(t *testing.T) {
	d := BuildingDescription{
		Style:       "  Modern  ",
		ProjectType: "Residential",
		Materials:   []Material{{Name: "  Red Brick ", Color: "RED", Application: " Facade "}},
	}
	n := Normalize(d)
	require.Equal(t, "modern", n.Style)
	require.Equal(t, "residential", n.ProjectType)
	require.Equal(t, "Red Brick", n.Materials[0].Name, "material names keep their case")
	require.Equal(t, "red", n.Materials[0].Color)
	require.Equal(t, "facade", n.Materials[0].Application)
}

func TestNormalize_Idempotent(t *testing.T) {
	d := BuildingDescription{
		Style:       "Modern",
		ProjectType: "residential",
		Dimensions:  Dimensions{LengthM: 12.345, WidthM: 8, HeightM: 7, Floors: 2},
		Materials: []Material{
			{Name: "slate", Application: "roof"},
			{Name: "render", Color: "White", Application: "facade"},
		},
		Rooms: []Room{
			{Name: "kitchen", Floor: 0, AreaM2: 12.333},
			{Name: "living", Floor: 0, AreaM2: 28.1},
		},
	}

	once := Normalize(d)
	twice := Normalize(once)
	require.Equal(t, once, twice)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	d := BuildingDescription{
		Materials: []Material{
			{Name: "oak", Application: "interior"},
			{Name: "render", Application: "facade"},
		},
	}
	_ = Normalize(d)
	require.Equal(t, "oak", d.Materials[0].Name, "input slice must be untouched")
}

func TestRound2(t *testing.T) {
	require.InDelta(t, 1.24, Round2(1.236), 1e-9)
	// 0.125 is exactly representable, so the half rounds away from zero.
	require.InDelta(t, 0.13, Round2(0.125), 1e-9)
	require.InDelta(t, -0.13, Round2(-0.125), 1e-9)
	require.Equal(t, 0.0, Round2(nan()))
}

func nan() float64 {
	z := 0.0
	return z / z
}
