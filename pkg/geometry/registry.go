package geometry

// OpeningDefaults carries the fallback dimensions for one opening type,
// in metres.
type OpeningDefaults struct {
	WidthM  float64
	HeightM float64
	SillM   float64
}

// Registry resolves opening dimensions by type. Defaults follow UK
// building-regulation conventions and are fixed at construction; the
// builder never consults ambient state for them.
type Registry struct {
	defaults map[OpeningType]OpeningDefaults
}

// NewRegistry returns a registry with the standard defaults.
func NewRegistry() *Registry {
	return &Registry{
		defaults: map[OpeningType]OpeningDefaults{
			OpeningWindow:   {WidthM: 1.2, HeightM: 1.2, SillM: 0.9},
			OpeningDoor:     {WidthM: 0.9, HeightM: 2.1, SillM: 0},
			OpeningEntrance: {WidthM: 1.0, HeightM: 2.1, SillM: 0},
			OpeningGarage:   {WidthM: 2.4, HeightM: 2.1, SillM: 0},
			OpeningFrench:   {WidthM: 1.5, HeightM: 2.1, SillM: 0},
			OpeningPatio:    {WidthM: 2.4, HeightM: 2.1, SillM: 0},
			OpeningSliding:  {WidthM: 1.8, HeightM: 2.1, SillM: 0},
		},
	}
}

// Defaults returns the dimensions for t. Unknown types report ok=false
// so the caller can log the fallback before using window defaults.
func (r *Registry) Defaults(t OpeningType) (OpeningDefaults, bool) {
	d, ok := r.defaults[t]
	if !ok {
		return r.defaults[OpeningWindow], false
	}
	return d, true
}
