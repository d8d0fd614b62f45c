package drift

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/Plinth-Labs/maquette/pkg/dna"
)

// FetchFunc resolves an artifact reference into raster bytes. Fetches
// run under a per-panel timeout; a failed or late fetch degrades that
// panel instead of blocking the batch.
type FetchFunc func(ctx context.Context, ref string) ([]byte, error)

// PanelPair is one panel's baseline and candidate sides. Raster content
// may be given inline or as references for the comparator's fetcher.
// Descriptions are optional; when both are present the panel also gets
// a structural diff.
type PanelPair struct {
	PanelType    string
	Baseline     []byte
	Candidate    []byte
	BaselineRef  string
	CandidateRef string

	BaseDescription *dna.BuildingDescription
	CandDescription *dna.BuildingDescription
}

// Comparison is one panel's drift verdict. Passed is three-state: true,
// false, or nil when the comparison was degraded and nothing may be
// concluded. Degraded panels never count as passing.
type Comparison struct {
	PanelType    string               `json:"panelType"`
	Category     Category             `json:"category"`
	Structural   *dna.StructuralDrift `json:"structuralDrift,omitempty"`
	Similarity   float64              `json:"imageSimilarity"`
	HashDistance int                  `json:"perceptualHashDistance"`
	Edges        *EdgeMetrics         `json:"edges,omitempty"`
	// ImageCompared distinguishes a measured similarity of zero from
	// "no raster comparison happened".
	ImageCompared bool     `json:"imageCompared,omitempty"`
	Passed        *bool    `json:"passed"`
	Degraded      bool     `json:"degraded,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// SheetReport aggregates panel comparisons for one sheet.
type SheetReport struct {
	Panels            []Comparison `json:"panels"`
	OverallSimilarity float64      `json:"overallSimilarity"`
	PassRate          float64      `json:"passRate"`
	Passed            bool         `json:"passed"`
	DegradedCount     int          `json:"degradedCount,omitempty"`
}

// Sheet-level acceptance defaults.
const (
	DefaultMinSheetSimilarity = 0.92
	DefaultMinSheetPassRate   = 0.92
)

// DefaultFetchTimeout bounds one artifact fetch.
const DefaultFetchTimeout = 10 * time.Second

// Comparator evaluates panel drift against category tolerances. Panel
// comparisons are pure and independent; batches run on a bounded worker
// pool sized to the CPU count.
type Comparator struct {
	tol             Tolerances
	differ          *dna.Differ
	workers         int
	fetch           FetchFunc
	fetchTimeout    time.Duration
	edgeScoring     bool
	edgeTolerancePx int
	minSimilarity   float64
	minPassRate     float64
	log             *slog.Logger
}

// ComparatorOption configures a Comparator.
type ComparatorOption func(*Comparator)

// WithTolerances overrides the category tolerance table.
func WithTolerances(t Tolerances) ComparatorOption {
	return func(c *Comparator) { c.tol = t }
}

// WithDiffer overrides the structural differ.
func WithDiffer(d *dna.Differ) ComparatorOption {
	return func(c *Comparator) { c.differ = d }
}

// WithWorkers bounds batch parallelism.
func WithWorkers(n int) ComparatorOption {
	return func(c *Comparator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithFetcher wires an artifact fetcher with a per-fetch timeout.
func WithFetcher(fetch FetchFunc, timeout time.Duration) ComparatorOption {
	return func(c *Comparator) {
		c.fetch = fetch
		if timeout > 0 {
			c.fetchTimeout = timeout
		}
	}
}

// WithEdgeScoring enables the edge alignment criterion with the given
// dilation tolerance in edge-grid pixels.
func WithEdgeScoring(tolerancePx int) ComparatorOption {
	return func(c *Comparator) {
		c.edgeScoring = true
		c.edgeTolerancePx = tolerancePx
	}
}

// WithSheetThresholds overrides the sheet-level acceptance floors.
func WithSheetThresholds(minSimilarity, minPassRate float64) ComparatorOption {
	return func(c *Comparator) {
		c.minSimilarity = minSimilarity
		c.minPassRate = minPassRate
	}
}

// WithComparatorLogger sets the comparator's logger.
func WithComparatorLogger(l *slog.Logger) ComparatorOption {
	return func(c *Comparator) { c.log = l }
}

// NewComparator constructs a Comparator with default tolerances.
func NewComparator(opts ...ComparatorOption) *Comparator {
	c := &Comparator{
		tol:             DefaultTolerances(),
		differ:          dna.NewDiffer(),
		workers:         runtime.NumCPU(),
		fetchTimeout:    DefaultFetchTimeout,
		edgeTolerancePx: DefaultEdgeTolerancePx,
		minSimilarity:   DefaultMinSheetSimilarity,
		minPassRate:     DefaultMinSheetPassRate,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = 1
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// CompareImages scores two raster buffers against a category envelope
// using a default comparator.
func CompareImages(baseline, candidate []byte, category Category) Comparison {
	c := NewComparator()
	out := Comparison{Category: category}
	c.compareRaster(&out, c.tol.For(category), baseline, candidate)
	return out
}

// ComparePanel evaluates one panel pair: structural diff when both
// descriptions are present, raster comparison when both sides yield
// image bytes. A failed load or an aspect mismatch degrades the panel.
func (c *Comparator) ComparePanel(ctx context.Context, pair PanelPair) Comparison {
	category := CategoryForPanel(pair.PanelType)
	tol := c.tol.For(category)
	out := Comparison{PanelType: pair.PanelType, Category: category}

	structuralOK := true
	hasStructural := false
	if pair.BaseDescription != nil && pair.CandDescription != nil {
		d := c.differ.Diff(*pair.BaseDescription, *pair.CandDescription)
		out.Structural = &d
		hasStructural = true
		structuralOK = StructuralMeasure(&d) <= tol.MaxStructuralDrift
	}

	baseline, baseAttempted := c.resolve(ctx, pair.Baseline, pair.BaselineRef, &out)
	candidate, candAttempted := c.resolve(ctx, pair.Candidate, pair.CandidateRef, &out)

	if out.Degraded {
		// A side was expected but could not be produced. Unknown, never
		// a pass.
		c.log.Warn("panel comparison degraded",
			"panel", pair.PanelType, "warnings", out.Warnings)
		return out
	}

	hasImages := baseAttempted && candAttempted
	if hasImages {
		c.compareRaster(&out, tol, baseline, candidate)
		if out.Degraded {
			c.log.Warn("panel comparison degraded",
				"panel", pair.PanelType, "warnings", out.Warnings)
			return out
		}
	}

	if !hasStructural && !hasImages {
		out.Degraded = true
		out.Warnings = append(out.Warnings, "no comparable content on either side")
		return out
	}

	passed := structuralOK
	if hasImages && out.Passed != nil {
		passed = passed && *out.Passed
	}
	out.Passed = &passed
	return out
}

// resolve produces one side's raster bytes. The second return reports
// whether this side participates in image comparison at all; sides with
// neither inline data nor a reference simply do not.
func (c *Comparator) resolve(ctx context.Context, data []byte, ref string, out *Comparison) ([]byte, bool) {
	if len(data) > 0 {
		return data, true
	}
	if ref == "" {
		return nil, false
	}
	if c.fetch == nil {
		out.Degraded = true
		out.Passed = nil
		out.Warnings = append(out.Warnings, "artifact "+ref+" referenced but no fetcher configured")
		return nil, true
	}

	fctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()
	fetched, err := c.fetch(fctx, ref)
	if err != nil {
		out.Degraded = true
		out.Passed = nil
		out.Warnings = append(out.Warnings, "fetch "+ref+" failed: "+err.Error())
		return nil, true
	}
	return fetched, true
}

// compareRaster fills the image-level fields and the image verdict.
func (c *Comparator) compareRaster(out *Comparison, tol Tolerance, baseline, candidate []byte) {
	baseImg, err := decodeImage(baseline)
	if err != nil {
		out.Degraded = true
		out.Passed = nil
		out.Warnings = append(out.Warnings, "baseline image unreadable: "+err.Error())
		return
	}
	candImg, err := decodeImage(candidate)
	if err != nil {
		out.Degraded = true
		out.Passed = nil
		out.Warnings = append(out.Warnings, "candidate image unreadable: "+err.Error())
		return
	}
	if aspectMismatch(baseImg, candImg) {
		out.Degraded = true
		out.Passed = nil
		out.Warnings = append(out.Warnings, "image aspect ratios do not match")
		return
	}

	out.Similarity = Similarity(baseImg, candImg)
	out.HashDistance = PerceptualHash(baseImg).Distance(PerceptualHash(candImg))
	out.ImageCompared = true

	passed := out.Similarity >= tol.MinImageSimilarity && out.HashDistance <= tol.MaxHashDistance

	if c.edgeScoring {
		m := EdgeScore(baseImg, candImg, c.edgeTolerancePx)
		out.Edges = &m
		passed = passed && m.F1 >= tol.MinEdgeF1
	}

	out.Passed = &passed
}

// CompareSheet evaluates every panel pair on a bounded worker pool and
// aggregates the sheet verdict: mean similarity over image-compared
// panels and the fraction of panels that passed. Degraded panels drag
// the pass rate down, never up. Cancelling the context degrades the
// not-yet-evaluated panels.
func (c *Comparator) CompareSheet(ctx context.Context, pairs []PanelPair) SheetReport {
	report := SheetReport{Panels: make([]Comparison, len(pairs))}
	if len(pairs) == 0 {
		return report
	}

	type panelResult struct {
		index int
		comp  Comparison
	}

	results := make(chan panelResult, len(pairs))
	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup

	for i, pair := range pairs {
		wg.Add(1)
		go func(idx int, p PanelPair) {
			defer wg.Done()
			// A finished context beats an open worker slot.
			select {
			case <-ctx.Done():
				results <- panelResult{index: idx, comp: cancelledComparison(p)}
				return
			default:
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results <- panelResult{index: idx, comp: cancelledComparison(p)}
				return
			}
			defer func() { <-sem }()

			results <- panelResult{index: idx, comp: c.ComparePanel(ctx, p)}
		}(i, pair)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		report.Panels[r.index] = r.comp
	}

	var simSum float64
	var simCount, passCount int
	for _, p := range report.Panels {
		if p.Degraded {
			report.DegradedCount++
			continue
		}
		if p.Passed != nil && *p.Passed {
			passCount++
		}
		if p.ImageCompared {
			simSum += p.Similarity
			simCount++
		}
	}

	if simCount > 0 {
		report.OverallSimilarity = simSum / float64(simCount)
	}
	report.PassRate = float64(passCount) / float64(len(pairs))
	// The similarity floor only binds when raster comparisons happened;
	// a structural-only batch is judged on pass rate alone.
	simOK := simCount == 0 || report.OverallSimilarity >= c.minSimilarity
	report.Passed = simOK && report.PassRate >= c.minPassRate
	return report
}

func cancelledComparison(p PanelPair) Comparison {
	return Comparison{
		PanelType: p.PanelType,
		Category:  CategoryForPanel(p.PanelType),
		Degraded:  true,
		Warnings:  []string{"comparison cancelled"},
	}
}

// StructuralMeasure condenses a structural diff into the drift fraction
// a category envelope bounds: the worst single dimension excursion or
// the material change fraction, whichever is larger, and 1 outright for
// a categorical identity change.
func StructuralMeasure(d *dna.StructuralDrift) float64 {
	m := d.MaxDimensionDrift
	if d.MaterialDrift > m {
		m = d.MaterialDrift
	}
	if d.StyleChanged || d.ProjectTypeChanged {
		m = 1
	}
	return m
}
