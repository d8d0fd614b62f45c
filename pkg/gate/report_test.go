package gate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashPrefix(t *testing.T) {
	require.Equal(t, "aabbccddeeff",
		HashPrefix("sha256:aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899"))
	require.Equal(t, "5f2b9c0d1e3a", HashPrefix("5f2b9c0d1e3a4b5c6d7e8f9012345678"))
	require.Equal(t, "abc", HashPrefix("abc"))
	require.Equal(t, "(empty)", HashPrefix(""))
	require.Equal(t, "(empty)", HashPrefix("sha256:"))
}

func TestReport_ReasonCodesDeduplicated(t *testing.T) {
	r := &Report{
		Violations: []Violation{
			{Code: KindHashMismatch, Message: "a"},
			{Code: KindImageDriftExceeded, Message: "b"},
			{Code: KindImageDriftExceeded, Message: "c"},
		},
	}
	require.Equal(t, []string{"HASH_MISMATCH", "IMAGE_DRIFT_EXCEEDED"}, r.ReasonCodes())
	require.Nil(t, (&Report{}).ReasonCodes())
}

func TestReport_Summary(t *testing.T) {
	r := &Report{
		RunID:        "run-7",
		SheetID:      "sheet-3",
		DriftScore:   0.25,
		DriftSignals: 4,
		TotalChecks:  16,
		Violations: []Violation{
			{Code: KindHashMismatch, Message: "two distinct geometry hashes", Panels: []string{"elevation_east"}},
		},
		Warnings: []Violation{
			{Code: KindDegradedComparison, Message: "candidate image unreadable", Panels: []string{"hero_3d"}},
		},
		MissingPanels: []string{"title_block"},
	}

	s := r.Summary()
	require.Contains(t, s, "run run-7 sheet sheet-3")
	require.Contains(t, s, "drift score 0.250 (4 of 16 checks)")
	require.Contains(t, s, "violation HASH_MISMATCH: two distinct geometry hashes (panels: elevation_east)")
	require.Contains(t, s, "warning DEGRADED_COMPARISON: candidate image unreadable (panels: hero_3d)")
	require.Contains(t, s, "missing mandatory: title_block")
}

func TestReport_JSONRoundTrip(t *testing.T) {
	r := &Report{
		RunID:                  "run-9",
		DriftScore:             0.5,
		DriftSignals:           8,
		TotalChecks:            16,
		GeometryHash:           "sha256:ab",
		ObservedGeometryHashes: []string{"sha256:ab", "sha256:cd"},
		EvaluatedAt:            time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	}

	raw, err := r.JSON()
	require.NoError(t, err)

	var back Report
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, r.RunID, back.RunID)
	require.Equal(t, r.ObservedGeometryHashes, back.ObservedGeometryHashes)
	require.True(t, r.EvaluatedAt.Equal(back.EvaluatedAt))
}
