// Package gate folds conditioning hashes, the mandatory panel
// inventory and image drift into one composition decision per sheet.
// A sheet composites only through an Accepted decision.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Plinth-Labs/maquette/pkg/drift"
	"github.com/Plinth-Labs/maquette/pkg/pack"
	"github.com/Plinth-Labs/maquette/pkg/store/ledger"
)

// PanelResult is one externally generated panel as reported by the
// orchestration layer. Results are immutable; a regenerated panel
// arrives as a new PanelResult, never by mutating an old one.
type PanelResult struct {
	PanelType                string `json:"panelType"`
	ArtifactRef              string `json:"artifactRef,omitempty"`
	Artifact                 []byte `json:"-"`
	ConditioningGeometryHash string `json:"conditioningGeometryHash"`
	ConditioningDesignHash   string `json:"conditioningDesignHash"`

	// Baseline imagery for drift comparison, inline or by reference.
	// Panels without a baseline are gated on hashes alone.
	Baseline    []byte `json:"-"`
	BaselineRef string `json:"baselineRef,omitempty"`
}

// EvaluationInput carries everything one gate run needs.
type EvaluationInput struct {
	SheetID string
	Pack    *pack.Pack
	Panels  []PanelResult
}

// Options tune gate behavior. Strict mode raises typed errors on
// rejection and retry; lenient mode returns the same decisions and
// reports without erroring.
type Options struct {
	Strict         bool
	DriftThreshold float64
}

// DefaultDriftThreshold is the drift score above which a sheet is
// rejected outright.
const DefaultDriftThreshold = 0.10

// Evaluator runs gate evaluations. Construct once, reuse across sheets;
// evaluation itself is pure given the inputs and the injected clock.
type Evaluator struct {
	matrix     *pack.Matrix
	comparator *drift.Comparator
	policy     *Policy
	issuer     *ClearanceIssuer
	ledger     ledger.Ledger
	opts       Options
	log        *slog.Logger
	now        func() time.Time
	runID      func() string
}

type EvaluatorOption func(*Evaluator)

// WithMatrix replaces the mandatory panel matrix.
func WithMatrix(m *pack.Matrix) EvaluatorOption {
	return func(e *Evaluator) {
		if m != nil {
			e.matrix = m
		}
	}
}

// WithComparator replaces the image drift comparator.
func WithComparator(c *drift.Comparator) EvaluatorOption {
	return func(e *Evaluator) {
		if c != nil {
			e.comparator = c
		}
	}
}

// WithPolicy installs a site-specific accept veto.
func WithPolicy(p *Policy) EvaluatorOption {
	return func(e *Evaluator) { e.policy = p }
}

// WithClearanceIssuer makes accepted decisions carry a signed clearance.
func WithClearanceIssuer(ci *ClearanceIssuer) EvaluatorOption {
	return func(e *Evaluator) { e.issuer = ci }
}

// WithLedger records every decision before it is returned.
func WithLedger(l ledger.Ledger) EvaluatorOption {
	return func(e *Evaluator) { e.ledger = l }
}

func WithOptions(o Options) EvaluatorOption {
	return func(e *Evaluator) { e.opts = o }
}

func WithEvaluatorLogger(l *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock injects the evaluation timestamp source.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRunIDs injects the run ID source.
func WithRunIDs(fn func() string) EvaluatorOption {
	return func(e *Evaluator) {
		if fn != nil {
			e.runID = fn
		}
	}
}

func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		matrix:     pack.DefaultMatrix(),
		comparator: drift.NewComparator(),
		opts:       Options{DriftThreshold: DefaultDriftThreshold},
		log:        slog.Default(),
		now:        time.Now,
		runID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateConsistencyGate runs a one-shot evaluation with default
// wiring. Callers needing a fetcher, policy, clearance or ledger build
// an Evaluator instead.
func EvaluateConsistencyGate(ctx context.Context, panels []PanelResult, authoritative *pack.Pack, opts Options) (*Decision, error) {
	return NewEvaluator(WithOptions(opts)).Evaluate(ctx, EvaluationInput{Pack: authoritative, Panels: panels})
}

// Evaluate runs the gate once. The decision is returned even when
// strict mode also returns a typed error, so callers always have the
// full report.
func (e *Evaluator) Evaluate(ctx context.Context, in EvaluationInput) (*Decision, error) {
	report := &Report{
		RunID:       e.runID(),
		SheetID:     in.SheetID,
		EvaluatedAt: e.now().UTC(),
	}
	dec := NewDecision(report)

	if v := malformedInput(in); v != nil {
		report.Violations = append(report.Violations, *v)
		dec.resolve(StateRejectedFatal, v.String())
		return e.finish(ctx, dec)
	}

	report.GeometryHash = in.Pack.GeometryHash
	report.DesignHash = in.Pack.DesignHash

	signals, checks := e.checkHashes(in, report)

	produced := make([]string, 0, len(in.Panels))
	for _, p := range in.Panels {
		produced = append(produced, p.PanelType)
	}
	report.MissingPanels = e.matrix.MissingFrom(produced)
	report.RecommendedMissing = e.matrix.RecommendedMissing(produced)
	if len(report.MissingPanels) > 0 {
		report.Violations = append(report.Violations, Violation{
			Code:    KindMissingMandatoryPanel,
			Message: fmt.Sprintf("%d mandatory panel(s) absent", len(report.MissingPanels)),
			Panels:  report.MissingPanels,
		})
	}

	// Image drift is skipped when the sheet is short of panels; the
	// inventory alone already resolves to retry.
	if len(report.MissingPanels) == 0 {
		s, c := e.compareImagery(ctx, in, report)
		signals, checks = signals+s, checks+c
	}

	report.DriftSignals, report.TotalChecks = signals, checks
	if checks > 0 {
		report.DriftScore = float64(signals) / float64(checks)
	}

	thr := e.opts.DriftThreshold
	if thr <= 0 {
		thr = DefaultDriftThreshold
	}
	fatal := report.DriftScore > thr || hasFatalViolation(report.Violations)

	// The policy only runs on sheets that would otherwise be accepted,
	// and it fails closed.
	if !fatal && len(report.MissingPanels) == 0 && e.policy != nil {
		allowed, err := e.policy.Allow(report)
		switch {
		case err != nil:
			report.Violations = append(report.Violations, Violation{
				Code:    KindPolicyRejected,
				Message: fmt.Sprintf("policy evaluation failed: %v", err),
			})
			fatal = true
		case !allowed:
			report.Violations = append(report.Violations, Violation{
				Code:    KindPolicyRejected,
				Message: fmt.Sprintf("rejected by policy %q", e.policy.Expr()),
			})
			fatal = true
		}
	}

	switch {
	case fatal:
		dec.resolve(StateRejectedFatal, rejectionReason(report, thr))
	case len(report.MissingPanels) > 0:
		dec.RetryPanels = report.MissingPanels
		dec.resolve(StateRetryPanels, fmt.Sprintf("missing mandatory panels: %s", strings.Join(report.MissingPanels, ", ")))
	default:
		dec.resolve(StateAccepted, "")
	}

	return e.finish(ctx, dec)
}

// finish mints clearance, records the decision and applies strict mode.
// Every decision is written to the ledger before it is returned.
func (e *Evaluator) finish(ctx context.Context, dec *Decision) (*Decision, error) {
	report := dec.Report

	if dec.State == StateAccepted && e.issuer != nil {
		token, err := e.issuer.Mint(dec)
		if err != nil {
			e.log.Error("clearance mint failed", "runId", report.RunID, "error", err)
		} else {
			dec.Clearance = token
		}
	}

	if e.ledger != nil {
		entry := ledger.Entry{
			RunID:        report.RunID,
			SheetID:      report.SheetID,
			Decision:     string(dec.State),
			ReasonCodes:  report.ReasonCodes(),
			GeometryHash: report.GeometryHash,
			DesignHash:   report.DesignHash,
			DriftScore:   report.DriftScore,
			RetryPanels:  dec.RetryPanels,
			CreatedAt:    report.EvaluatedAt,
		}
		if err := e.ledger.Append(ctx, entry); err != nil {
			e.log.Error("ledger append failed", "runId", report.RunID, "error", err)
		}
	}

	e.log.Info("gate evaluated",
		"runId", report.RunID,
		"sheetId", report.SheetID,
		"state", dec.State,
		"driftScore", report.DriftScore,
		"violations", len(report.Violations),
		"warnings", len(report.Warnings))

	if !e.opts.Strict {
		return dec, nil
	}
	switch dec.State {
	case StateRejectedFatal:
		return dec, gateErrorFrom(report)
	case StateRetryPanels:
		return dec, &GateError{
			Kind:   KindMissingMandatoryPanel,
			Detail: fmt.Sprintf("%d mandatory panel(s) absent", len(dec.RetryPanels)),
			Panels: dec.RetryPanels,
		}
	default:
		return dec, nil
	}
}

// checkHashes runs the conditioning hash checks: cross-panel geometry
// hash agreement, agreement with the authoritative pack, and per-panel
// design fingerprint agreement. Two checks per panel.
func (e *Evaluator) checkHashes(in EvaluationInput, report *Report) (signals, checks int) {
	authGeo := in.Pack.GeometryHash
	authDesign := in.Pack.DesignHash

	seen := make(map[string]bool)
	var observed []string
	var offAuthoritative []string
	var designMismatched []string

	for _, p := range in.Panels {
		checks += 2

		h := p.ConditioningGeometryHash
		if !seen[h] {
			seen[h] = true
			observed = append(observed, h)
		}
		if h != authGeo {
			signals++
			offAuthoritative = append(offAuthoritative, p.PanelType)
		}

		if p.ConditioningDesignHash != authDesign {
			signals++
			designMismatched = append(designMismatched, p.PanelType)
		}
	}
	report.ObservedGeometryHashes = observed

	if len(observed) > 1 {
		prefixes := make([]string, len(observed))
		for i, h := range observed {
			prefixes[i] = HashPrefix(h)
		}
		sort.Strings(offAuthoritative)
		report.Violations = append(report.Violations, Violation{
			Code: KindHashMismatch,
			Message: fmt.Sprintf("panels conditioned on %d distinct geometry hashes (%s), authoritative is %s",
				len(observed), strings.Join(prefixes, ", "), HashPrefix(authGeo)),
			Panels: offAuthoritative,
		})
	} else if len(observed) == 1 && observed[0] != authGeo {
		report.Violations = append(report.Violations, Violation{
			Code: KindHashMismatch,
			Message: fmt.Sprintf("all panels conditioned on stale geometry %s, authoritative is %s",
				HashPrefix(observed[0]), HashPrefix(authGeo)),
		})
	}

	if len(designMismatched) > 0 {
		sort.Strings(designMismatched)
		report.Violations = append(report.Violations, Violation{
			Code: KindStructuralDriftExceeded,
			Message: fmt.Sprintf("%d panel(s) conditioned on a design fingerprint other than %s",
				len(designMismatched), HashPrefix(authDesign)),
			Panels: designMismatched,
		})
	}
	return signals, checks
}

// compareImagery runs the drift comparator over panels that carry both
// a baseline and a candidate side, and folds the results into the
// report. One check per compared panel; degraded panels are checks
// without signals.
func (e *Evaluator) compareImagery(ctx context.Context, in EvaluationInput, report *Report) (signals, checks int) {
	var pairs []drift.PanelPair
	for _, p := range in.Panels {
		if len(p.Baseline) == 0 && p.BaselineRef == "" {
			continue
		}
		if len(p.Artifact) == 0 && p.ArtifactRef == "" {
			continue
		}
		pairs = append(pairs, drift.PanelPair{
			PanelType:    p.PanelType,
			Baseline:     p.Baseline,
			BaselineRef:  p.BaselineRef,
			Candidate:    p.Artifact,
			CandidateRef: p.ArtifactRef,
		})
	}
	if len(pairs) == 0 {
		return 0, 0
	}

	sheet := e.comparator.CompareSheet(ctx, pairs)
	report.Sheet = &sheet
	report.PerPanel = sheet.Panels

	for _, p := range sheet.Panels {
		checks++
		switch {
		case p.Degraded:
			report.Warnings = append(report.Warnings, Violation{
				Code:    KindDegradedComparison,
				Message: degradedMessage(p),
				Panels:  []string{p.PanelType},
			})
		case p.Passed != nil && !*p.Passed:
			signals++
			report.Violations = append(report.Violations, Violation{
				Code:    panelFailureKind(p),
				Message: panelFailureMessage(p),
				Panels:  []string{p.PanelType},
			})
		}
	}

	if !sheet.Passed {
		report.Violations = append(report.Violations, Violation{
			Code: KindImageDriftExceeded,
			Message: fmt.Sprintf("sheet similarity %.3f, panel pass rate %.3f below acceptance floor",
				sheet.OverallSimilarity, sheet.PassRate),
		})
	}
	return signals, checks
}

// panelFailureKind attributes a failed comparison: a panel that never
// reached raster comparison failed on its structural diff.
func panelFailureKind(p drift.Comparison) Kind {
	if !p.ImageCompared {
		return KindStructuralDriftExceeded
	}
	return KindImageDriftExceeded
}

func panelFailureMessage(p drift.Comparison) string {
	if !p.ImageCompared {
		return fmt.Sprintf("structural drift %.3f above %s envelope",
			drift.StructuralMeasure(p.Structural), p.Category)
	}
	msg := fmt.Sprintf("similarity %.3f, hash distance %d against %s tolerance",
		p.Similarity, p.HashDistance, p.Category)
	if p.Edges != nil {
		msg += fmt.Sprintf(", edge F1 %.3f", p.Edges.F1)
	}
	return msg
}

func degradedMessage(p drift.Comparison) string {
	if len(p.Warnings) > 0 {
		return p.Warnings[0]
	}
	return "comparison degraded"
}

// malformedInput rejects input the gate cannot reason about.
func malformedInput(in EvaluationInput) *Violation {
	switch {
	case in.Pack == nil:
		return &Violation{Code: KindMalformedGeometryInput, Message: "no authoritative pack"}
	case in.Pack.GeometryHash == "" || in.Pack.DesignHash == "":
		return &Violation{Code: KindMalformedGeometryInput, Message: "authoritative pack carries no hashes"}
	}
	for i, p := range in.Panels {
		if p.PanelType == "" {
			return &Violation{
				Code:    KindMalformedGeometryInput,
				Message: fmt.Sprintf("panel result %d has no panel type", i),
			}
		}
	}
	return nil
}

// hasFatalViolation reports whether any violation forces rejection.
// Missing panels resolve to retry instead, unless something fatal also
// tripped.
func hasFatalViolation(violations []Violation) bool {
	for _, v := range violations {
		if v.Code != KindMissingMandatoryPanel {
			return true
		}
	}
	return false
}

func rejectionReason(report *Report, threshold float64) string {
	for _, v := range report.Violations {
		if v.Code != KindMissingMandatoryPanel {
			return v.String()
		}
	}
	return fmt.Sprintf("drift score %.3f above threshold %.3f", report.DriftScore, threshold)
}

// gateErrorFrom converts the first fatal violation into the typed error
// strict mode raises. Further violations are summarized in the detail.
func gateErrorFrom(report *Report) error {
	var first *Violation
	fatalCount := 0
	for i := range report.Violations {
		if report.Violations[i].Code == KindMissingMandatoryPanel {
			continue
		}
		fatalCount++
		if first == nil {
			first = &report.Violations[i]
		}
	}
	if first == nil {
		return &GateError{
			Kind:   KindStructuralDriftExceeded,
			Detail: fmt.Sprintf("drift score %.3f above threshold", report.DriftScore),
		}
	}
	detail := first.Message
	if fatalCount > 1 {
		detail = fmt.Sprintf("%s (and %d further violation(s))", detail, fatalCount-1)
	}
	return &GateError{Kind: first.Code, Detail: detail, Panels: first.Panels}
}
