package dna

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func descFixture() BuildingDescription {
	return BuildingDescription{
		ID:          "brief-001",
		Style:       "modern",
		ProjectType: "residential",
		Dimensions:  Dimensions{LengthM: 15, WidthM: 12, HeightM: 7, Floors: 2},
		Materials: []Material{
			{Name: "render", Color: "white", Application: "facade"},
			{Name: "slate", Color: "grey", Application: "roof"},
			{Name: "oak", Color: "natural", Application: "trim"},
		},
		Rooms: []Room{
			{Name: "living", Floor: 0, AreaM2: 28},
			{Name: "kitchen", Floor: 0, AreaM2: 12},
		},
	}
}

func TestFingerprint_StableAcrossCalls(t *testing.T) {
	d := descFixture()
	f1, err := Fingerprint(d)
	require.NoError(t, err)
	f2, err := Fingerprint(d)
	require.NoError(t, err)
	require.Equal(t, f1, f2)
	require.Len(t, f1, 32)
}

func TestFingerprint_MaterialShuffleInvariant(t *testing.T) {
	a := descFixture()
	b := descFixture()
	b.Materials = []Material{b.Materials[2], b.Materials[0], b.Materials[1]}

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	require.Equal(t, fa, fb, "material order must not affect the fingerprint")
}

func TestFingerprint_KeyOrderInvariant(t *testing.T) {
	j1 := []byte(`{"style":"modern","dimensions":{"lengthM":15,"widthM":12,"heightM":7,"floors":2}}`)
	j2 := []byte(`{"dimensions":{"floors":2,"heightM":7,"widthM":12,"lengthM":15},"style":"modern"}`)

	d1, err := Parse(j1)
	require.NoError(t, err)
	d2, err := Parse(j2)
	require.NoError(t, err)

	f1, err := Fingerprint(d1)
	require.NoError(t, err)
	f2, err := Fingerprint(d2)
	require.NoError(t, err)
	require.Equal(t, f1, f2)
}

func TestFingerprint_VolatileMetadataExcluded(t *testing.T) {
	a := descFixture()
	b := descFixture()
	b.ID = "brief-999"
	b.Notes = "revised after client call"
	b.UpdatedAt = time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	require.Equal(t, fa, fb, "ids, notes and timestamps are not physical identity")
}

func TestFingerprint_SensitiveToPhysicalChange(t *testing.T) {
	a := descFixture()

	b := descFixture()
	b.Dimensions.LengthM = 15.5
	fa, _ := Fingerprint(a)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	require.NotEqual(t, fa, fb)

	c := descFixture()
	c.Materials[0].Color = "cream"
	fc, err := Fingerprint(c)
	require.NoError(t, err)
	require.NotEqual(t, fa, fc)

	d := descFixture()
	d.Style = "georgian"
	fd, err := Fingerprint(d)
	require.NoError(t, err)
	require.NotEqual(t, fa, fd)
}

func TestFingerprint_CaseAndWhitespaceInvariant(t *testing.T) {
	a := descFixture()
	b := descFixture()
	b.Style = "  MODERN "
	b.ProjectType = "Residential"

	fa, _ := Fingerprint(a)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	require.Equal(t, fa, fb)
}

func TestFingerprint_JSONRoundTripStable(t *testing.T) {
	d := descFixture()
	raw, err := json.Marshal(d)
	require.NoError(t, err)

	back, err := Parse(raw)
	require.NoError(t, err)

	f1, _ := Fingerprint(d)
	f2, err := Fingerprint(back)
	require.NoError(t, err)
	require.Equal(t, f1, f2)
}
