// Package dna models the building description, the design DNA a sheet
// is generated from, and provides its canonical normalization, content
// fingerprinting and structural diffing.
package dna

import (
	"time"

	"github.com/Plinth-Labs/maquette/pkg/geometry"
)

// Dimensions is the overall massing of the building in metres.
type Dimensions struct {
	LengthM       float64   `json:"lengthM"`
	WidthM        float64   `json:"widthM"`
	HeightM       float64   `json:"heightM"`
	Floors        int       `json:"floors"`
	FloorHeightsM []float64 `json:"floorHeightsM,omitempty"`
}

// Material is one entry of the material schedule. Name and Application
// together identify a material; drift between two schedules is measured
// on that identity plus color.
type Material struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Application string `json:"application"`
}

// Room is one room of the brief. Area may be given directly or derived
// from explicit width and depth.
type Room struct {
	Name   string  `json:"name"`
	Floor  int     `json:"floor"`
	AreaM2 float64 `json:"areaM2,omitempty"`
	WidthM float64 `json:"widthM,omitempty"`
	DepthM float64 `json:"depthM,omitempty"`
}

// BuildingDescription is the full design DNA. Walls and openings arrive
// from the floor-plan solve when one exists; the massing dimensions
// stand in when it does not.
//
// ID, Notes and UpdatedAt are volatile metadata: they never contribute
// to the fingerprint.
type BuildingDescription struct {
	ID          string             `json:"id,omitempty"`
	Style       string             `json:"style,omitempty"`
	ProjectType string             `json:"projectType,omitempty"`
	Dimensions  Dimensions         `json:"dimensions"`
	Materials   []Material         `json:"materials,omitempty"`
	Rooms       []Room             `json:"rooms,omitempty"`
	Walls       []geometry.Wall    `json:"walls,omitempty"`
	Openings    []geometry.Opening `json:"openings,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	UpdatedAt   time.Time          `json:"updatedAt,omitempty"`
}

// GeometryInput projects the description into the solve the elevation
// builder consumes.
func (d BuildingDescription) GeometryInput() geometry.Input {
	return geometry.Input{
		LengthM:       d.Dimensions.LengthM,
		WidthM:        d.Dimensions.WidthM,
		Floors:        d.Dimensions.Floors,
		FloorHeightsM: d.Dimensions.FloorHeightsM,
		Walls:         d.Walls,
		Openings:      d.Openings,
	}
}
