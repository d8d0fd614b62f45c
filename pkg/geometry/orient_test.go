package geometry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrientWall_ClockwiseEnvelope(t *testing.T) {
	// Clockwise-wound 10x8 envelope: each edge's outward normal picks
	// its facade.
	cases := []struct {
		name  string
		start Point
		end   Point
		want  Facade
	}{
		{"north edge", Point{X: 10, Y: 8}, Point{X: 0, Y: 8}, FacadeNorth},
		{"west edge", Point{X: 0, Y: 8}, Point{X: 0, Y: 0}, FacadeWest},
		{"south edge", Point{X: 0, Y: 0}, Point{X: 10, Y: 0}, FacadeSouth},
		{"east edge", Point{X: 10, Y: 0}, Point{X: 10, Y: 8}, FacadeEast},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := OrientWall(Wall{Start: tc.start, End: tc.end})
			require.Equal(t, tc.want, got)
		})
	}
}

func TestOrientWall_DegenerateDefaultsNorth(t *testing.T) {
	w := Wall{Start: Point{X: 3, Y: 3}, End: Point{X: 3, Y: 3}}
	require.Equal(t, FacadeNorth, OrientWall(w))
}

func TestOrientWall_ExplicitFacadeWins(t *testing.T) {
	// Geometrically a south edge, declared east.
	w := Wall{Start: Point{X: 0, Y: 0}, End: Point{X: 10, Y: 0}, Facade: FacadeEast}
	require.Equal(t, FacadeEast, OrientWall(w))
}

func TestIsExterior_BoundingBoxTolerance(t *testing.T) {
	b := Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 8}

	onEdge := Wall{Start: Point{X: 0, Y: 0.05}, End: Point{X: 0, Y: 7.95}}
	require.True(t, IsExterior(onEdge, b, 0.1))

	interior := Wall{Start: Point{X: 4, Y: 2}, End: Point{X: 4, Y: 6}}
	require.False(t, IsExterior(interior, b, 0.1))

	flagged := Wall{Start: Point{X: 4, Y: 2}, End: Point{X: 4, Y: 6}, Exterior: true}
	require.True(t, IsExterior(flagged, b, 0.1))
}

func TestIsExterior_JustOutsideTolerance(t *testing.T) {
	b := Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 8}
	w := Wall{Start: Point{X: 0.11, Y: 2}, End: Point{X: 0.11, Y: 6}}
	require.False(t, IsExterior(w, b, 0.1))
}

func TestNearestEdgeFacade(t *testing.T) {
	b := Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 8}
	require.Equal(t, FacadeSouth, NearestEdgeFacade(Point{X: 5, Y: 0.2}, b))
	require.Equal(t, FacadeNorth, NearestEdgeFacade(Point{X: 5, Y: 7.9}, b))
	require.Equal(t, FacadeWest, NearestEdgeFacade(Point{X: 0.3, Y: 4}, b))
	require.Equal(t, FacadeEast, NearestEdgeFacade(Point{X: 9.8, Y: 4}, b))
}

func TestParseFacade(t *testing.T) {
	f, err := ParseFacade("S")
	require.NoError(t, err)
	require.Equal(t, FacadeSouth, f)

	_, err = ParseFacade("SE")
	require.Error(t, err)
}
