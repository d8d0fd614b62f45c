package dna

import "github.com/Plinth-Labs/maquette/pkg/canonical"

// fingerprintView is the physically relevant projection of a
// description. IDs, notes, timestamps, and the solve-level walls and
// openings are deliberately absent: the fingerprint identifies the
// design, not one solver run of it.
type fingerprintView struct {
	Dimensions  Dimensions `json:"dimensions"`
	Materials   []Material `json:"materials,omitempty"`
	Style       string     `json:"style,omitempty"`
	ProjectType string     `json:"projectType,omitempty"`
}

// Fingerprint normalizes the description, projects it to its physically
// relevant fields, and hashes the canonical serialization. The result is
// stable under JSON key order and material shuffling, and it is a
// content fingerprint, not an integrity primitive.
func Fingerprint(d BuildingDescription) (string, error) {
	n := Normalize(d)
	return canonical.Fingerprint(fingerprintView{
		Dimensions:  n.Dimensions,
		Materials:   n.Materials,
		Style:       n.Style,
		ProjectType: n.ProjectType,
	})
}
