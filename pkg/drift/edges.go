package drift

import (
	"image"
	"math"
)

// edgeGrid is the per-side resolution used for edge extraction. Edge
// geometry needs more detail than the similarity grid.
const edgeGrid = 128

// edgeThresholdFrac marks a cell as an edge when its gradient magnitude
// exceeds this fraction of the image's maximum gradient.
const edgeThresholdFrac = 0.25

// DefaultEdgeTolerancePx is the dilation radius, in edge-grid pixels,
// within which baseline and candidate edges are considered aligned.
const DefaultEdgeTolerancePx = 3

// EdgeMetrics reports how well candidate edges align with baseline
// edges under dilation tolerance.
type EdgeMetrics struct {
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
	BaselineEdges  int     `json:"baselineEdges"`
	CandidateEdges int     `json:"candidateEdges"`
}

// EdgeScore extracts edge maps from both images and scores their
// alignment. Precision asks how much of the candidate's linework sits
// on baseline geometry; recall asks how much baseline geometry the
// candidate reproduced; F1 combines the two. Two edge-free images score
// zero, not one: a blank render matches nothing.
func EdgeScore(baseline, candidate image.Image, tolerancePx int) EdgeMetrics {
	if tolerancePx < 0 {
		tolerancePx = 0
	}
	base := edgeMap(baseline)
	cand := edgeMap(candidate)

	baseDil := dilate(base, edgeGrid, tolerancePx)
	candDil := dilate(cand, edgeGrid, tolerancePx)

	var baseCount, candCount, matchedBase, matchedCand int
	for i := range base {
		if base[i] {
			baseCount++
			if candDil[i] {
				matchedBase++
			}
		}
		if cand[i] {
			candCount++
			if baseDil[i] {
				matchedCand++
			}
		}
	}

	precision := float64(matchedCand) / float64(max1(candCount))
	recall := float64(matchedBase) / float64(max1(baseCount))

	var f1 float64
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return EdgeMetrics{
		Precision:      precision,
		Recall:         recall,
		F1:             f1,
		BaselineEdges:  baseCount,
		CandidateEdges: candCount,
	}
}

// edgeMap resamples to the edge grid and thresholds Sobel gradient
// magnitude against the image maximum.
func edgeMap(img image.Image) []bool {
	lum := luminanceGrid(img, edgeGrid)
	n := edgeGrid

	mag := make([]float64, n*n)
	var maxMag float64
	for y := 1; y < n-1; y++ {
		for x := 1; x < n-1; x++ {
			gx := (lum[(y-1)*n+x+1] + 2*lum[y*n+x+1] + lum[(y+1)*n+x+1]) -
				(lum[(y-1)*n+x-1] + 2*lum[y*n+x-1] + lum[(y+1)*n+x-1])
			gy := (lum[(y+1)*n+x-1] + 2*lum[(y+1)*n+x] + lum[(y+1)*n+x+1]) -
				(lum[(y-1)*n+x-1] + 2*lum[(y-1)*n+x] + lum[(y-1)*n+x+1])
			m := math.Hypot(gx, gy)
			mag[y*n+x] = m
			if m > maxMag {
				maxMag = m
			}
		}
	}

	edges := make([]bool, n*n)
	if maxMag == 0 {
		return edges
	}
	threshold := edgeThresholdFrac * maxMag
	for i, m := range mag {
		edges[i] = m > threshold
	}
	return edges
}

// dilate grows the edge map by a circular structuring element of the
// given radius.
func dilate(edges []bool, n, radius int) []bool {
	if radius == 0 {
		out := make([]bool, len(edges))
		copy(out, edges)
		return out
	}

	out := make([]bool, len(edges))
	r2 := radius * radius
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if !edges[y*n+x] {
				continue
			}
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					if dx*dx+dy*dy > r2 {
						continue
					}
					ny, nx := y+dy, x+dx
					if ny < 0 || ny >= n || nx < 0 || nx >= n {
						continue
					}
					out[ny*n+nx] = true
				}
			}
		}
	}
	return out
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
