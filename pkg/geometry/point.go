// Package geometry derives canonical per-facade elevation geometry from a
// floor-plan solve: wall outlines, opening rectangles, and a ground line
// for each facade, deterministic for identical input.
package geometry

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is a 2D plan coordinate in metres.
//
// Upstream solvers emit points either as a two-element array [x, y] or as
// an object {"x":..,"y":..}. Both forms are accepted at ingestion and
// normalized here; no other code handles the wire variants.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p *Point) UnmarshalJSON(data []byte) error {
	// Array form first: [x, y].
	var arr []float64
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) != 2 {
			return fmt.Errorf("geometry: point array must have 2 elements, got %d", len(arr))
		}
		p.X, p.Y = arr[0], arr[1]
		return nil
	}

	var obj struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("geometry: point must be [x,y] or {x,y}: %w", err)
	}
	p.X, p.Y = obj.X, obj.Y
	return nil
}

// Distance returns the Euclidean distance to q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Lerp returns the point at fraction t between p and q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + t*(q.X-p.X),
		Y: p.Y + t*(q.Y-p.Y),
	}
}

// Line is a 2D segment in elevation space (X along the facade, Y up).
type Line struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Rect is an axis-aligned rectangle in elevation space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds is an axis-aligned plan bounding box.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the X extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Depth returns the Y extent.
func (b Bounds) Depth() float64 { return b.MaxY - b.MinY }

// Expand grows the bounds to include p.
func (b Bounds) Expand(p Point) Bounds {
	if p.X < b.MinX {
		b.MinX = p.X
	}
	if p.Y < b.MinY {
		b.MinY = p.Y
	}
	if p.X > b.MaxX {
		b.MaxX = p.X
	}
	if p.Y > b.MaxY {
		b.MaxY = p.Y
	}
	return b
}

// BoundsOf computes the bounding box of pts. Empty input yields the zero
// bounds.
func BoundsOf(pts []Point) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		b = b.Expand(p)
	}
	return b
}
