package geometry

import "math"

// PolygonArea returns the unsigned area of a polygon via the shoelace
// formula. Degenerate polygons (< 3 vertices) have zero area.
func PolygonArea(poly []Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	var sum float64
	n := len(poly)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math.Abs(sum) / 2
}

// PolygonCentroid returns the area-weighted centroid. Degenerate polygons
// fall back to the vertex average.
func PolygonCentroid(poly []Point) Point {
	n := len(poly)
	if n == 0 {
		return Point{}
	}

	var cx, cy, signed float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
		signed += cross
		cx += (poly[i].X + poly[j].X) * cross
		cy += (poly[i].Y + poly[j].Y) * cross
	}
	signed /= 2

	if math.Abs(signed) < 1e-10 {
		var sx, sy float64
		for _, p := range poly {
			sx += p.X
			sy += p.Y
		}
		return Point{X: sx / float64(n), Y: sy / float64(n)}
	}

	return Point{X: cx / (6 * signed), Y: cy / (6 * signed)}
}

// PointInPolygon reports whether p lies inside poly (ray casting; points
// on the boundary count as inside).
func PointInPolygon(p Point, poly []Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := poly[i], poly[j]
		if onSegment(p, pi, pj) {
			return true
		}
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			xCross := (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if p.X < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// SegmentsIntersect reports whether segments ab and cd intersect,
// including shared endpoints and collinear overlap.
func SegmentsIntersect(a, b, c, d Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(a, c, d):
		return true
	case d2 == 0 && onSegment(b, c, d):
		return true
	case d3 == 0 && onSegment(c, a, b):
		return true
	case d4 == 0 && onSegment(d, a, b):
		return true
	}
	return false
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func onSegment(p, a, b Point) bool {
	const eps = 1e-9
	if math.Abs(cross(a, b, p)) > eps {
		return false
	}
	return p.X >= math.Min(a.X, b.X)-eps && p.X <= math.Max(a.X, b.X)+eps &&
		p.Y >= math.Min(a.Y, b.Y)-eps && p.Y <= math.Max(a.Y, b.Y)+eps
}
