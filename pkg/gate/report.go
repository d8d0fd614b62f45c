package gate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Plinth-Labs/maquette/pkg/drift"
)

// Violation is one typed finding. The same shape carries hard
// violations and advisory warnings; only the list it lands in differs.
type Violation struct {
	Code    Kind     `json:"code"`
	Message string   `json:"message"`
	Panels  []string `json:"panels,omitempty"`
}

func (v Violation) String() string {
	if len(v.Panels) > 0 {
		return fmt.Sprintf("%s: %s (panels: %s)", v.Code, v.Message, strings.Join(v.Panels, ", "))
	}
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// Report is the full evidence trail of one gate evaluation. It is
// assembled once per run and immutable afterwards.
type Report struct {
	RunID   string `json:"runId"`
	SheetID string `json:"sheetId,omitempty"`

	// DriftScore is driftSignals / totalChecks. Degraded comparisons
	// count as checks but never as signals.
	DriftScore   float64 `json:"driftScore"`
	DriftSignals int     `json:"driftSignals"`
	TotalChecks  int     `json:"totalChecks"`

	Violations []Violation `json:"violations,omitempty"`
	Warnings   []Violation `json:"warnings,omitempty"`

	PerPanel []drift.Comparison `json:"perPanel,omitempty"`
	Sheet    *drift.SheetReport `json:"sheet,omitempty"`

	MissingPanels      []string `json:"missingPanels,omitempty"`
	RecommendedMissing []string `json:"recommendedMissing,omitempty"`

	GeometryHash string `json:"geometryHash,omitempty"`
	DesignHash   string `json:"designHash,omitempty"`
	// ObservedGeometryHashes lists the distinct conditioning hashes the
	// panels arrived with, in first-seen order.
	ObservedGeometryHashes []string `json:"observedGeometryHashes,omitempty"`

	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// ReasonCodes returns the distinct violation codes, in first-seen order.
func (r *Report) ReasonCodes() []string {
	seen := make(map[Kind]bool)
	var codes []string
	for _, v := range r.Violations {
		if !seen[v.Code] {
			seen[v.Code] = true
			codes = append(codes, string(v.Code))
		}
	}
	return codes
}

// JSON renders the report for machine consumers.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Summary renders the report for logs and terminals.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s", r.RunID)
	if r.SheetID != "" {
		fmt.Fprintf(&b, " sheet %s", r.SheetID)
	}
	fmt.Fprintf(&b, ": drift score %.3f (%d of %d checks)\n", r.DriftScore, r.DriftSignals, r.TotalChecks)
	for _, v := range r.Violations {
		fmt.Fprintf(&b, "  violation %s\n", v)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "  warning %s\n", w)
	}
	if len(r.MissingPanels) > 0 {
		fmt.Fprintf(&b, "  missing mandatory: %s\n", strings.Join(r.MissingPanels, ", "))
	}
	if len(r.RecommendedMissing) > 0 {
		fmt.Fprintf(&b, "  missing recommended: %s\n", strings.Join(r.RecommendedMissing, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// HashPrefix shortens a hash for human-facing messages. The algorithm
// prefix is dropped so prefixed and bare hashes read alike.
func HashPrefix(h string) string {
	h = strings.TrimPrefix(h, "sha256:")
	if h == "" {
		return "(empty)"
	}
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
