package geometry

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// BuilderConfig bounds the builder's normalization policy. The zero
// value is not usable; start from DefaultBuilderConfig.
type BuilderConfig struct {
	// ExteriorToleranceM is how close to the plan bounding box a wall
	// endpoint must be to count as envelope (default 100mm).
	ExteriorToleranceM float64

	// DefaultFloorHeightM fills in missing per-floor heights.
	DefaultFloorHeightM float64

	// FallbackWallThicknessM is used for synthesized bounding-box walls.
	FallbackWallThicknessM float64

	// CornerClearanceM keeps opening rects clear of facade corners.
	CornerClearanceM float64

	// MaxWindowsPerFacade and MaxDoorsPerFacade cap openings after
	// deduplication. The cap bounds downstream panel complexity; it is
	// a normalization policy, not a rendering choice.
	MaxWindowsPerFacade int
	MaxDoorsPerFacade   int
}

// DefaultBuilderConfig returns the standard policy.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		ExteriorToleranceM:     0.1,
		DefaultFloorHeightM:    3.0,
		FallbackWallThicknessM: 0.3,
		CornerClearanceM:       0.2,
		MaxWindowsPerFacade:    6,
		MaxDoorsPerFacade:      2,
	}
}

// Builder projects a floor-plan solve into canonical per-facade
// elevation geometry. Build never fails: malformed walls and openings
// are skipped with a warning and empty facades are synthesized from the
// bounding box, so every input yields four non-empty elevations.
type Builder struct {
	cfg      BuilderConfig
	registry *Registry
	log      *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithConfig overrides the default policy.
func WithConfig(cfg BuilderConfig) BuilderOption {
	return func(b *Builder) { b.cfg = cfg }
}

// WithRegistry overrides the opening-defaults registry.
func WithRegistry(r *Registry) BuilderOption {
	return func(b *Builder) { b.registry = r }
}

// WithLogger sets the warning sink.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) { b.log = l }
}

// NewBuilder constructs a Builder with the default config, registry and
// logger unless overridden.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		cfg:      DefaultBuilderConfig(),
		registry: NewRegistry(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.registry == nil {
		b.registry = NewRegistry()
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	return b
}

// Build projects in into canonical elevation geometry for all four
// facades. Identical input yields byte-identical output.
func (b *Builder) Build(in Input) Canonical {
	floors := in.Floors
	if floors < 1 {
		floors = 1
	}
	heights := b.floorHeights(floors, in.FloorHeightsM)
	base := cumulative(heights)
	total := base[floors-1] + heights[floors-1]

	bounds, walls := b.planBounds(in)

	facadeWalls := b.classifyWalls(walls, bounds)
	out := Canonical{}
	for _, f := range AllFacades() {
		out[f] = &Elevation{
			Facade:       f,
			WallLines:    b.projectWalls(f, facadeWalls[f], base, heights),
			TotalHeightM: total,
			Levels:       floors,
		}
	}

	b.placeOpenings(in.Openings, walls, facadeWalls, bounds, out, base, heights)

	for _, f := range AllFacades() {
		el := out[f]
		if len(el.WallLines) == 0 {
			el.WallLines = b.fallbackLines(f, bounds, base, heights)
			el.Fallback = true
			b.log.Warn("elevation synthesized from bounding box",
				slog.String("facade", string(f)),
				slog.String("reason", "no exterior walls"),
				slog.Int("floors", floors))
		}
		sortWallLines(el.WallLines)
		sortOpeningRects(el.OpeningRects)
		hMin, hMax := elevationExtent(el.WallLines)
		el.GroundLine = Line{Start: Point{X: hMin}, End: Point{X: hMax}}
	}

	return out
}

// FloorHeights returns the per-floor heights the builder resolves for
// the input: explicit finite positive values where given, the
// configured default elsewhere. Always has at least one entry.
func (b *Builder) FloorHeights(in Input) []float64 {
	floors := in.Floors
	if floors < 1 {
		floors = 1
	}
	return b.floorHeights(floors, in.FloorHeightsM)
}

func (b *Builder) floorHeights(floors int, explicit []float64) []float64 {
	heights := make([]float64, floors)
	for i := range heights {
		h := b.cfg.DefaultFloorHeightM
		if i < len(explicit) && explicit[i] > 0 && !math.IsInf(explicit[i], 0) && !math.IsNaN(explicit[i]) {
			h = explicit[i]
		}
		heights[i] = h
	}
	return heights
}

func cumulative(heights []float64) []float64 {
	base := make([]float64, len(heights))
	var sum float64
	for i, h := range heights {
		base[i] = sum
		sum += h
	}
	return base
}

// planBounds derives the plan bounding box from wall endpoints, falling
// back to the massing rectangle, then to a unit extent so the facade
// geometry is never degenerate.
func (b *Builder) planBounds(in Input) (Bounds, []Wall) {
	walls := make([]Wall, 0, len(in.Walls))
	pts := make([]Point, 0, len(in.Walls)*2)
	for _, w := range in.Walls {
		if !finitePoint(w.Start) || !finitePoint(w.End) {
			b.log.Warn("wall skipped",
				slog.String("wall", w.ID),
				slog.String("reason", "non-finite endpoint"))
			continue
		}
		walls = append(walls, w)
		pts = append(pts, w.Start, w.End)
	}

	var bounds Bounds
	switch {
	case len(pts) > 0:
		bounds = BoundsOf(pts)
	case in.LengthM > 0 || in.WidthM > 0:
		bounds = Bounds{MaxX: in.LengthM, MaxY: in.WidthM}
	}

	if bounds.Width() < degenerateLengthM {
		bounds.MaxX = bounds.MinX + 1
		b.log.Warn("degenerate plan extent", slog.String("axis", "x"))
	}
	if bounds.Depth() < degenerateLengthM {
		bounds.MaxY = bounds.MinY + 1
		b.log.Warn("degenerate plan extent", slog.String("axis", "y"))
	}
	return bounds, walls
}

func finitePoint(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// classifyWalls buckets exterior walls by facade.
func (b *Builder) classifyWalls(walls []Wall, bounds Bounds) map[Facade][]Wall {
	byFacade := make(map[Facade][]Wall, 4)
	for _, w := range walls {
		if !IsExterior(w, bounds, b.cfg.ExteriorToleranceM) {
			continue
		}
		f := OrientWall(w)
		if f == FacadeInterior {
			continue
		}
		byFacade[f] = append(byFacade[f], w)
	}
	return byFacade
}

// projectWalls emits one wall line per exterior wall per its floor.
func (b *Builder) projectWalls(f Facade, walls []Wall, base, heights []float64) []WallLine {
	lines := make([]WallLine, 0, len(walls))
	for _, w := range walls {
		floor := clampFloor(w.Floor, len(base))
		h1 := axisCoord(w.Start, f)
		h2 := axisCoord(w.End, f)
		if h2 < h1 {
			h1, h2 = h2, h1
		}
		lines = append(lines, WallLine{
			HMin:       h1,
			HMax:       h2,
			VMin:       base[floor],
			VMax:       base[floor] + heights[floor],
			ThicknessM: w.ThicknessM,
			Floor:      floor,
		})
	}
	return lines
}

func (b *Builder) fallbackLines(f Facade, bounds Bounds, base, heights []float64) []WallLine {
	hMin, hMax := axisExtent(bounds, f)
	lines := make([]WallLine, len(base))
	for i := range base {
		lines[i] = WallLine{
			HMin:       hMin,
			HMax:       hMax,
			VMin:       base[i],
			VMax:       base[i] + heights[i],
			ThicknessM: b.cfg.FallbackWallThicknessM,
			Floor:      i,
		}
	}
	return lines
}

func clampFloor(floor, floors int) int {
	if floor < 0 {
		return 0
	}
	if floor >= floors {
		return floors - 1
	}
	return floor
}

// openingCandidate is one heuristic match of an opening to a facade.
type openingCandidate struct {
	facade Facade
	rect   OpeningRect
	key    string
}

// placeOpenings runs the three matching heuristics for every opening,
// deduplicates the candidates, applies the per-facade caps, and attaches
// the surviving rects to the elevations.
//
// The heuristics deliberately overlap (an opening can match by wall id
// and again by declared facade); the synthesized key collapses the
// duplicates, and the cap bounds whatever survives.
func (b *Builder) placeOpenings(openings []Opening, walls []Wall, facadeWalls map[Facade][]Wall, bounds Bounds, out Canonical, base, heights []float64) {
	wallByID := make(map[string]Wall, len(walls))
	for _, w := range walls {
		if w.ID != "" {
			wallByID[w.ID] = w
		}
	}

	var cands []openingCandidate
	for _, o := range openings {
		dims, known := b.registry.Defaults(o.Type)
		if !known {
			b.log.Warn("unknown opening type",
				slog.String("opening", o.ID),
				slog.String("type", string(o.Type)))
		}
		width := o.WidthM
		if width <= 0 {
			width = dims.WidthM
		}
		height := o.HeightM
		if height <= 0 {
			height = dims.HeightM
		}
		sill := dims.SillM
		if o.SillM != nil && *o.SillM >= 0 {
			sill = *o.SillM
		}

		floor := clampFloor(o.Floor, len(base))
		emit := func(f Facade, hCenter float64) {
			rect := OpeningRect{
				HCenter: b.clampCenter(hCenter, width, out[f].WallLines, bounds, f),
				WidthM:  width,
				SillM:   base[floor] + sill,
				HeadM:   base[floor] + sill + height,
				Type:    o.Type,
				Floor:   floor,
			}
			cands = append(cands, openingCandidate{
				facade: f,
				rect:   rect,
				key:    openingKey(o, rect),
			})
		}

		// Heuristic 1: explicit wall reference.
		if w, ok := wallByID[o.WallID]; ok {
			if f := OrientWall(w); f != FacadeInterior && IsExterior(w, bounds, b.cfg.ExteriorToleranceM) {
				emit(f, b.resolveOnWall(o, w, f))
			}
		}

		// Heuristic 2: declared facade.
		if f := o.Facade; f == FacadeNorth || f == FacadeSouth || f == FacadeEast || f == FacadeWest {
			emit(f, b.resolveOnFacade(o, f, facadeWalls[f], bounds))
		}

		// Heuristic 3: nearest bounding-box edge from plan coordinates.
		if o.Center != nil && finitePoint(*o.Center) {
			f := NearestEdgeFacade(*o.Center, bounds)
			emit(f, axisCoord(*o.Center, f))
		}
	}

	perFacade := dedupeCandidates(cands)
	for f, rects := range perFacade {
		out[f].OpeningRects = b.capRects(f, rects)
	}
}

// resolveOnWall resolves the opening's horizontal center against a known
// host wall: explicit coordinates win, then the position object, then
// the wall centerline shifted by the offset.
func (b *Builder) resolveOnWall(o Opening, w Wall, f Facade) float64 {
	if o.Center != nil && finitePoint(*o.Center) {
		return axisCoord(*o.Center, f)
	}
	if o.Pos != nil {
		t := clamp01(o.Pos.AlongWall)
		return axisCoord(w.Start.Lerp(w.End, t), f)
	}
	mid := w.Midpoint()
	if length := w.Length(); length > degenerateLengthM && o.OffsetM != 0 {
		t := 0.5 + o.OffsetM/length
		mid = w.Start.Lerp(w.End, clamp01(t))
	}
	return axisCoord(mid, f)
}

// resolveOnFacade picks a deterministic host wall for a facade-declared
// opening: the longest wall, ties broken by lowest start coordinate. A
// facade with no walls resolves against the bounding-box extent.
func (b *Builder) resolveOnFacade(o Opening, f Facade, walls []Wall, bounds Bounds) float64 {
	if len(walls) == 0 {
		hMin, hMax := axisExtent(bounds, f)
		center := (hMin + hMax) / 2
		if o.Center != nil && finitePoint(*o.Center) {
			center = axisCoord(*o.Center, f)
		} else if o.Pos != nil {
			center = hMin + clamp01(o.Pos.AlongWall)*(hMax-hMin)
		} else if o.OffsetM != 0 {
			center += o.OffsetM
		}
		return center
	}

	host := walls[0]
	for _, w := range walls[1:] {
		lw, lh := w.Length(), host.Length()
		if lw > lh || (lw == lh && axisCoord(w.Start, f) < axisCoord(host.Start, f)) {
			host = w
		}
	}
	return b.resolveOnWall(o, host, f)
}

// clampCenter keeps the opening rect inside the facade extent with the
// configured corner clearance.
func (b *Builder) clampCenter(hCenter, width float64, lines []WallLine, bounds Bounds, f Facade) float64 {
	hMin, hMax := elevationExtent(lines)
	if hMax-hMin < degenerateLengthM {
		hMin, hMax = axisExtent(bounds, f)
	}
	lo := hMin + b.cfg.CornerClearanceM + width/2
	hi := hMax - b.cfg.CornerClearanceM - width/2
	if lo > hi {
		return (hMin + hMax) / 2
	}
	return math.Min(math.Max(hCenter, lo), hi)
}

func elevationExtent(lines []WallLine) (float64, float64) {
	if len(lines) == 0 {
		return 0, 0
	}
	hMin, hMax := lines[0].HMin, lines[0].HMax
	for _, l := range lines[1:] {
		hMin = math.Min(hMin, l.HMin)
		hMax = math.Max(hMax, l.HMax)
	}
	return hMin, hMax
}

// openingKey is the dedupe identity: the explicit id when present, else
// type + floor + position rounded to 2dp.
func openingKey(o Opening, rect OpeningRect) string {
	if o.ID != "" {
		return o.ID
	}
	return fmt.Sprintf("%s|%d|%.2f", rect.Type, rect.Floor, rect.HCenter)
}

// dedupeCandidates keeps the first candidate per key, preserving
// heuristic priority order, and buckets survivors by facade.
func dedupeCandidates(cands []openingCandidate) map[Facade][]OpeningRect {
	seen := make(map[string]bool, len(cands))
	perFacade := make(map[Facade][]OpeningRect, 4)
	for _, c := range cands {
		if seen[c.key] {
			continue
		}
		seen[c.key] = true
		perFacade[c.facade] = append(perFacade[c.facade], c.rect)
	}
	return perFacade
}

// capRects enforces the per-facade window and door caps, keeping the
// leftmost openings along the facade.
func (b *Builder) capRects(f Facade, rects []OpeningRect) []OpeningRect {
	sortOpeningRects(rects)

	kept := rects[:0]
	windows, doors := 0, 0
	dropped := 0
	for _, r := range rects {
		if r.Type.IsDoor() {
			if doors >= b.cfg.MaxDoorsPerFacade {
				dropped++
				continue
			}
			doors++
		} else {
			if windows >= b.cfg.MaxWindowsPerFacade {
				dropped++
				continue
			}
			windows++
		}
		kept = append(kept, r)
	}
	if dropped > 0 {
		b.log.Debug("opening cap applied",
			slog.String("facade", string(f)),
			slog.Int("dropped", dropped))
	}
	return kept
}

func sortWallLines(lines []WallLine) {
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].HMin != lines[j].HMin {
			return lines[i].HMin < lines[j].HMin
		}
		if lines[i].Floor != lines[j].Floor {
			return lines[i].Floor < lines[j].Floor
		}
		return lines[i].HMax < lines[j].HMax
	})
}

func sortOpeningRects(rects []OpeningRect) {
	sort.Slice(rects, func(i, j int) bool {
		if rects[i].HCenter != rects[j].HCenter {
			return rects[i].HCenter < rects[j].HCenter
		}
		if rects[i].Floor != rects[j].Floor {
			return rects[i].Floor < rects[j].Floor
		}
		return rects[i].Type < rects[j].Type
	})
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
