package drift

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func checkerImage(w, h, cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSimilarity_IdenticalImages(t *testing.T) {
	img := checkerImage(64, 64, 8)
	require.InDelta(t, 1.0, Similarity(img, img), 1e-9)
}

func TestSimilarity_OppositeImages(t *testing.T) {
	black := solidImage(64, 64, color.Black)
	white := solidImage(64, 64, color.White)
	require.InDelta(t, 0.0, Similarity(black, white), 0.01)
}

func TestSimilarity_MinorNoiseStaysHigh(t *testing.T) {
	base := checkerImage(64, 64, 8)
	noisy := checkerImage(64, 64, 8)
	noisy.Set(3, 3, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	noisy.Set(40, 17, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	require.Greater(t, Similarity(base, noisy), 0.99)
}

func TestPerceptualHash_Identical(t *testing.T) {
	img := checkerImage(64, 64, 8)
	require.Equal(t, 0, PerceptualHash(img).Distance(PerceptualHash(img)))
}

func TestPerceptualHash_DistinctPatterns(t *testing.T) {
	a := checkerImage(64, 64, 8)
	b := checkerImage(64, 64, 16)
	require.Greater(t, PerceptualHash(a).Distance(PerceptualHash(b)), 0)
}

func TestPerceptualHash_ScaleInvariant(t *testing.T) {
	small := checkerImage(64, 64, 8)
	large := checkerImage(256, 256, 32)
	require.LessOrEqual(t, PerceptualHash(small).Distance(PerceptualHash(large)), 2)
}

func TestPHash_String(t *testing.T) {
	require.Equal(t, "00000000000000ff", PHash(0xff).String())
}

func TestDecodeImage_RejectsGarbage(t *testing.T) {
	_, err := decodeImage([]byte("not an image"))
	require.Error(t, err)
}

func TestAspectMismatch(t *testing.T) {
	square := solidImage(64, 64, color.White)
	wide := solidImage(128, 64, color.White)
	scaled := solidImage(128, 128, color.White)

	require.True(t, aspectMismatch(square, wide))
	require.False(t, aspectMismatch(square, scaled))
}

func TestEdgeScore_IdenticalPattern(t *testing.T) {
	img := checkerImage(128, 128, 16)
	m := EdgeScore(img, img, DefaultEdgeTolerancePx)
	require.InDelta(t, 1.0, m.F1, 1e-9)
	require.Greater(t, m.BaselineEdges, 0)
	require.Equal(t, m.BaselineEdges, m.CandidateEdges)
}

func TestEdgeScore_BlankImagesScoreZero(t *testing.T) {
	blank := solidImage(128, 128, color.White)
	m := EdgeScore(blank, blank, DefaultEdgeTolerancePx)
	require.Zero(t, m.F1)
	require.Zero(t, m.BaselineEdges)
}

func TestEdgeScore_MissingGeometryDropsRecall(t *testing.T) {
	full := checkerImage(128, 128, 16)
	blank := solidImage(128, 128, color.White)
	m := EdgeScore(full, blank, DefaultEdgeTolerancePx)
	require.Less(t, m.Recall, 0.01)
	require.Less(t, m.F1, 0.01)
}
