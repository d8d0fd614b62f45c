package geometry

import "math"

// degenerateLengthM is the wall length below which orientation is
// meaningless.
const degenerateLengthM = 1e-6

// OrientWall classifies a wall as N/S/E/W from its outward normal: the
// direction vector rotated 90° clockwise, which points outward for the
// clockwise-wound envelopes the solvers emit. The dominant normal axis
// picks the facade. An explicit Facade on the wall wins; near-zero-length
// walls default to north.
func OrientWall(w Wall) Facade {
	switch w.Facade {
	case FacadeNorth, FacadeSouth, FacadeEast, FacadeWest, FacadeInterior:
		return w.Facade
	}

	dx := w.End.X - w.Start.X
	dy := w.End.Y - w.Start.Y
	if math.Hypot(dx, dy) < degenerateLengthM {
		return FacadeNorth
	}

	nx, ny := dy, -dx
	if math.Abs(nx) > math.Abs(ny) {
		if nx > 0 {
			return FacadeEast
		}
		return FacadeWest
	}
	if ny > 0 {
		return FacadeNorth
	}
	return FacadeSouth
}

// IsExterior reports whether a wall belongs to the building envelope:
// explicitly flagged, or both endpoints within tolM of an edge of the
// plan bounding box.
func IsExterior(w Wall, b Bounds, tolM float64) bool {
	if w.Exterior {
		return true
	}
	return nearBoundsEdge(w.Start, b, tolM) && nearBoundsEdge(w.End, b, tolM)
}

func nearBoundsEdge(p Point, b Bounds, tolM float64) bool {
	return math.Abs(p.X-b.MinX) <= tolM ||
		math.Abs(p.X-b.MaxX) <= tolM ||
		math.Abs(p.Y-b.MinY) <= tolM ||
		math.Abs(p.Y-b.MaxY) <= tolM
}

// axisCoord projects a plan point onto the horizontal axis of a facade:
// plan X for north/south elevations, plan Y for east/west.
func axisCoord(p Point, f Facade) float64 {
	if f == FacadeEast || f == FacadeWest {
		return p.Y
	}
	return p.X
}

// axisExtent returns the bounding-box extent along the facade's
// horizontal axis.
func axisExtent(b Bounds, f Facade) (float64, float64) {
	if f == FacadeEast || f == FacadeWest {
		return b.MinY, b.MaxY
	}
	return b.MinX, b.MaxX
}

// NearestEdgeFacade returns the facade whose bounding-box edge is
// closest to p. Used as the last-resort opening match when only plan
// coordinates are known.
func NearestEdgeFacade(p Point, b Bounds) Facade {
	dN := math.Abs(b.MaxY - p.Y)
	dS := math.Abs(p.Y - b.MinY)
	dE := math.Abs(b.MaxX - p.X)
	dW := math.Abs(p.X - b.MinX)

	best, f := dN, FacadeNorth
	if dS < best {
		best, f = dS, FacadeSouth
	}
	if dE < best {
		best, f = dE, FacadeEast
	}
	if dW < best {
		f = FacadeWest
	}
	return f
}
