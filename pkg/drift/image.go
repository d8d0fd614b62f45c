package drift

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"math/bits"

	_ "image/jpeg"
	_ "image/png"
)

// sampleGrid is the per-side resolution both images are resampled to
// before pixel comparison. Comparisons at artifact resolution would
// punish compression noise, not drift.
const sampleGrid = 64

// phashGrid is the perceptual hash resolution: an 8x8 luminance
// average thresholded at its mean, read out as 64 bits.
const phashGrid = 8

// aspectSlack is the allowed relative aspect-ratio mismatch before a
// comparison is degraded instead of resampled.
const aspectSlack = 0.01

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("drift: decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("drift: empty image %dx%d", b.Dx(), b.Dy())
	}
	return img, nil
}

// aspectMismatch reports whether two images differ enough in aspect
// ratio that resampling them onto a common grid would compare stretched
// content.
func aspectMismatch(a, b image.Image) bool {
	ab, bb := a.Bounds(), b.Bounds()
	ra := float64(ab.Dx()) / float64(ab.Dy())
	rb := float64(bb.Dx()) / float64(bb.Dy())
	return math.Abs(ra-rb) > aspectSlack*math.Max(ra, rb)
}

// luminanceGrid resamples the image to an n-by-n grid of box-averaged
// luminance values in [0,255], row major.
func luminanceGrid(img image.Image, n int) []float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	grid := make([]float64, n*n)

	for cy := 0; cy < n; cy++ {
		y0 := b.Min.Y + cy*h/n
		y1 := b.Min.Y + (cy+1)*h/n
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for cx := 0; cx < n; cx++ {
			x0 := b.Min.X + cx*w/n
			x1 := b.Min.X + (cx+1)*w/n
			if x1 <= x0 {
				x1 = x0 + 1
			}

			var sum float64
			var count int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					r, g, bl, _ := img.At(x, y).RGBA()
					// ITU-R BT.601 luma from 16-bit channels.
					lum := (0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8))
					sum += lum
					count++
				}
			}
			grid[cy*n+cx] = sum / float64(count)
		}
	}
	return grid
}

// Similarity is 1 minus the normalized mean luminance difference over a
// common resampled grid. 1 means pixel-identical at comparison
// resolution, 0 means maximally different.
func Similarity(a, b image.Image) float64 {
	ga := luminanceGrid(a, sampleGrid)
	gb := luminanceGrid(b, sampleGrid)

	var sum float64
	for i := range ga {
		sum += math.Abs(ga[i] - gb[i])
	}
	return 1 - sum/(float64(len(ga))*255)
}

// PHash is an 8x8 average-luminance perceptual hash. It is a
// content fingerprint for near-duplicate detection, not a security
// primitive.
type PHash uint64

// PerceptualHash computes the image's perceptual hash: each of the 64
// cells contributes a 1 bit when its luminance is above the grid mean.
func PerceptualHash(img image.Image) PHash {
	grid := luminanceGrid(img, phashGrid)

	var mean float64
	for _, v := range grid {
		mean += v
	}
	mean /= float64(len(grid))

	var h PHash
	for i, v := range grid {
		if v > mean {
			h |= 1 << uint(i)
		}
	}
	return h
}

// Distance is the Hamming distance between two perceptual hashes.
func (h PHash) Distance(other PHash) int {
	return bits.OnesCount64(uint64(h ^ other))
}

func (h PHash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}
