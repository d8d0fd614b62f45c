package dna

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Plinth-Labs/maquette/pkg/geometry"
)

// applicationPriority fixes the material sort order, exterior to
// interior. Unknown applications sort after all known ones,
// alphabetically.
var applicationPriority = map[string]int{
	"facade":   0,
	"roof":     1,
	"plinth":   2,
	"trim":     3,
	"window":   4,
	"door":     5,
	"interior": 6,
	"other":    7,
}

// Normalize returns the canonical form of a description: categorical
// strings lower-cased, free text NFC-normalized and trimmed, dimensions
// rounded to 2 decimal places, materials ordered by application
// priority, rooms ordered by floor then descending area.
//
// Normalize is idempotent and never mutates its input; two semantically
// identical descriptions normalize byte-identically.
func Normalize(d BuildingDescription) BuildingDescription {
	out := d

	out.Style = canonicalToken(d.Style)
	out.ProjectType = canonicalToken(d.ProjectType)
	out.Notes = canonicalText(d.Notes)

	out.Dimensions = normalizeDimensions(d.Dimensions)
	out.Materials = normalizeMaterials(d.Materials)
	out.Rooms = normalizeRooms(d.Rooms)
	out.Walls = normalizeWalls(d.Walls)
	out.Openings = normalizeOpenings(d.Openings)

	return out
}

func normalizeDimensions(dim Dimensions) Dimensions {
	out := dim
	out.LengthM = Round2(dim.LengthM)
	out.WidthM = Round2(dim.WidthM)
	out.HeightM = Round2(dim.HeightM)
	if len(dim.FloorHeightsM) > 0 {
		out.FloorHeightsM = make([]float64, len(dim.FloorHeightsM))
		for i, h := range dim.FloorHeightsM {
			out.FloorHeightsM[i] = Round2(h)
		}
	}
	return out
}

func normalizeMaterials(mats []Material) []Material {
	if len(mats) == 0 {
		return nil
	}
	out := make([]Material, len(mats))
	for i, m := range mats {
		out[i] = Material{
			Name:        canonicalText(m.Name),
			Color:       canonicalToken(m.Color),
			Application: canonicalToken(m.Application),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := appRank(out[i].Application), appRank(out[j].Application)
		if pi != pj {
			return pi < pj
		}
		if out[i].Application != out[j].Application {
			return out[i].Application < out[j].Application
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Color < out[j].Color
	})
	return out
}

func appRank(app string) int {
	if p, ok := applicationPriority[app]; ok {
		return p
	}
	return len(applicationPriority)
}

func normalizeRooms(rooms []Room) []Room {
	if len(rooms) == 0 {
		return nil
	}
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		area := r.AreaM2
		if area == 0 && r.WidthM > 0 && r.DepthM > 0 {
			area = r.WidthM * r.DepthM
		}
		out[i] = Room{
			Name:   canonicalText(r.Name),
			Floor:  r.Floor,
			AreaM2: Round2(area),
			WidthM: Round2(r.WidthM),
			DepthM: Round2(r.DepthM),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		if out[i].AreaM2 != out[j].AreaM2 {
			return out[i].AreaM2 > out[j].AreaM2
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func normalizeWalls(walls []geometry.Wall) []geometry.Wall {
	if len(walls) == 0 {
		return nil
	}
	out := make([]geometry.Wall, len(walls))
	for i, w := range walls {
		out[i] = w
		out[i].Start = roundPoint(w.Start)
		out[i].End = roundPoint(w.End)
		out[i].ThicknessM = Round2(w.ThicknessM)
	}
	return out
}

func normalizeOpenings(openings []geometry.Opening) []geometry.Opening {
	if len(openings) == 0 {
		return nil
	}
	out := make([]geometry.Opening, len(openings))
	for i, o := range openings {
		out[i] = o
		out[i].WidthM = Round2(o.WidthM)
		out[i].HeightM = Round2(o.HeightM)
		out[i].OffsetM = Round2(o.OffsetM)
		if o.Center != nil {
			p := roundPoint(*o.Center)
			out[i].Center = &p
		}
		if o.SillM != nil {
			s := Round2(*o.SillM)
			out[i].SillM = &s
		}
	}
	return out
}

func roundPoint(p geometry.Point) geometry.Point {
	return geometry.Point{X: Round2(p.X), Y: Round2(p.Y)}
}

// Round2 rounds to 2 decimal places, half away from zero. Non-finite
// values collapse to zero so canonical serialization never sees them.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Round(x*100) / 100
}

// canonicalToken lower-cases a categorical value after NFC
// normalization and trimming.
func canonicalToken(s string) string {
	return strings.ToLower(canonicalText(s))
}

// canonicalText NFC-normalizes and trims free text, preserving case.
func canonicalText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
