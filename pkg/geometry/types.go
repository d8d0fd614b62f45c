package geometry

import "fmt"

// Facade identifies a cardinal elevation of the building.
type Facade string

const (
	FacadeNorth Facade = "N"
	FacadeSouth Facade = "S"
	FacadeEast  Facade = "E"
	FacadeWest  Facade = "W"

	// FacadeInterior marks walls that belong to no elevation.
	FacadeInterior Facade = "INT"
)

// AllFacades returns the four cardinal facades in canonical order.
func AllFacades() []Facade {
	return []Facade{FacadeNorth, FacadeSouth, FacadeEast, FacadeWest}
}

// ParseFacade normalizes a facade string. Unknown values are rejected so
// typos in upstream payloads surface at ingestion, not as empty
// elevations.
func ParseFacade(s string) (Facade, error) {
	switch Facade(s) {
	case FacadeNorth, FacadeSouth, FacadeEast, FacadeWest, FacadeInterior:
		return Facade(s), nil
	}
	return "", fmt.Errorf("geometry: unknown facade %q", s)
}

// OpeningType classifies a wall opening.
type OpeningType string

const (
	OpeningWindow   OpeningType = "window"
	OpeningDoor     OpeningType = "door"
	OpeningEntrance OpeningType = "entrance"
	OpeningGarage   OpeningType = "garage"
	OpeningFrench   OpeningType = "french"
	OpeningPatio    OpeningType = "patio"
	OpeningSliding  OpeningType = "sliding"
)

// IsDoor reports whether the opening reaches the floor (anything that is
// not a window counts against the door cap).
func (t OpeningType) IsDoor() bool {
	return t != OpeningWindow
}

// Wall is one plan-view wall segment of the input solve.
type Wall struct {
	ID         string  `json:"id"`
	Start      Point   `json:"start"`
	End        Point   `json:"end"`
	Floor      int     `json:"floor"`
	ThicknessM float64 `json:"thicknessM"`

	// Exterior forces exterior classification; unflagged walls are
	// classified geometrically against the plan bounding box.
	Exterior bool `json:"exterior,omitempty"`

	// Facade, when set, overrides orientation classification.
	Facade Facade `json:"facade,omitempty"`
}

// Length returns the wall's plan length in metres.
func (w Wall) Length() float64 {
	return w.Start.Distance(w.End)
}

// Midpoint returns the wall's plan midpoint.
func (w Wall) Midpoint() Point {
	return w.Start.Lerp(w.End, 0.5)
}

// WallPosition locates an opening along its host wall, normalized to
// [0,1] from the wall's start point.
type WallPosition struct {
	AlongWall float64 `json:"alongWall"`
}

// Opening is one door or window of the input solve. Position resolves in
// priority order: explicit Center coordinates, then Position along the
// referenced wall, then the host wall's centerline plus OffsetM.
type Opening struct {
	ID     string        `json:"id,omitempty"`
	Type   OpeningType   `json:"type"`
	WallID string        `json:"wallId,omitempty"`
	Facade Facade        `json:"facade,omitempty"`
	Floor  int           `json:"floor"`
	Center *Point        `json:"center,omitempty"`
	Pos    *WallPosition `json:"position,omitempty"`

	// OffsetM shifts the centerline fallback along the wall direction.
	OffsetM float64 `json:"offsetM,omitempty"`

	// Zero dimensions resolve to registry defaults for the type. SillM
	// is a pointer so an explicit floor-level sill on a window survives
	// defaulting.
	WidthM  float64  `json:"widthM,omitempty"`
	HeightM float64  `json:"heightM,omitempty"`
	SillM   *float64 `json:"sillM,omitempty"`
}

// Input is the floor-indexed solve the builder projects into elevations.
// LengthM and WidthM describe the overall massing and drive the bounding
// box fallback when walls are missing or malformed.
type Input struct {
	LengthM       float64   `json:"lengthM"`
	WidthM        float64   `json:"widthM"`
	Floors        int       `json:"floors"`
	FloorHeightsM []float64 `json:"floorHeightsM,omitempty"`
	Walls         []Wall    `json:"walls,omitempty"`
	Openings      []Opening `json:"openings,omitempty"`
}

// WallLine is one projected wall segment of an elevation. Horizontal
// coordinates run along the facade (plan X for N/S, plan Y for E/W);
// vertical coordinates are elevations above ground.
type WallLine struct {
	HMin       float64 `json:"hMin"`
	HMax       float64 `json:"hMax"`
	VMin       float64 `json:"vMin"`
	VMax       float64 `json:"vMax"`
	ThicknessM float64 `json:"thicknessM"`
	Floor      int     `json:"floor"`
}

// OpeningRect is one opening projected onto an elevation. SillM and
// HeadM are absolute elevations above ground.
type OpeningRect struct {
	HCenter float64     `json:"hCenter"`
	WidthM  float64     `json:"widthM"`
	SillM   float64     `json:"sillM"`
	HeadM   float64     `json:"headM"`
	Type    OpeningType `json:"type"`
	Floor   int         `json:"floor"`
}

// Elevation is the canonical 2D geometry of one facade.
//
// Invariant: WallLines is never empty and GroundLine always spans the
// facade extent, whatever the input looked like. Fallback records that
// the bounding-box synthesis ran.
type Elevation struct {
	Facade       Facade        `json:"facade"`
	WallLines    []WallLine    `json:"wallLines"`
	OpeningRects []OpeningRect `json:"openingRects"`
	GroundLine   Line          `json:"groundLine"`
	TotalHeightM float64       `json:"totalHeightM"`
	Levels       int           `json:"levels"`
	Fallback     bool          `json:"fallback,omitempty"`
}

// Canonical maps each cardinal facade to its elevation geometry. All
// four facades are always present.
type Canonical map[Facade]*Elevation
