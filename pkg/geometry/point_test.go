package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoint_UnmarshalArrayForm(t *testing.T) {
	var p Point
	require.NoError(t, json.Unmarshal([]byte(`[4.5, 2.25]`), &p))
	require.Equal(t, Point{X: 4.5, Y: 2.25}, p)
}

func TestPoint_UnmarshalObjectForm(t *testing.T) {
	var p Point
	require.NoError(t, json.Unmarshal([]byte(`{"x": 4.5, "y": 2.25}`), &p))
	require.Equal(t, Point{X: 4.5, Y: 2.25}, p)
}

func TestPoint_UnmarshalRejectsBadShapes(t *testing.T) {
	var p Point
	require.Error(t, json.Unmarshal([]byte(`[1, 2, 3]`), &p))
	require.Error(t, json.Unmarshal([]byte(`"4,2"`), &p))
}

func TestPoint_BothFormsDecodeIdentically(t *testing.T) {
	// Walls arrive with either coordinate encoding, sometimes mixed in
	// one payload. After ingestion there is only Point.
	var a, b Wall
	require.NoError(t, json.Unmarshal([]byte(`{"id":"w1","start":[0,0],"end":[10,0]}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"w1","start":{"x":0,"y":0},"end":{"x":10,"y":0}}`), &b))
	require.Equal(t, a, b)
}

func TestBoundsOf(t *testing.T) {
	b := BoundsOf([]Point{{X: 2, Y: 3}, {X: -1, Y: 7}, {X: 5, Y: 0}})
	require.Equal(t, Bounds{MinX: -1, MinY: 0, MaxX: 5, MaxY: 7}, b)
	require.Equal(t, 6.0, b.Width())
	require.Equal(t, 7.0, b.Depth())
}
