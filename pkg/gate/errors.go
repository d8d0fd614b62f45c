package gate

import (
	"fmt"
	"strings"
)

// Kind is a stable reason code. Downstream retry logic matches on these
// strings, so they must not change between releases.
type Kind string

const (
	// --- Input ---
	KindMalformedGeometryInput Kind = "MALFORMED_GEOMETRY_INPUT"

	// --- Conditioning hashes ---
	KindHashMismatch            Kind = "HASH_MISMATCH"
	KindStructuralDriftExceeded Kind = "STRUCTURAL_DRIFT_EXCEEDED"

	// --- Panel inventory ---
	KindMissingMandatoryPanel Kind = "MISSING_MANDATORY_PANEL"

	// --- Image comparison ---
	KindDegradedComparison Kind = "DEGRADED_COMPARISON"
	KindImageDriftExceeded Kind = "IMAGE_DRIFT_EXCEEDED"

	// --- Policy hook ---
	KindPolicyRejected Kind = "POLICY_REJECTED"
)

// AllReasonCodes returns the full set of stable reason codes.
func AllReasonCodes() []string {
	return []string{
		string(KindMalformedGeometryInput),
		string(KindHashMismatch),
		string(KindStructuralDriftExceeded),
		string(KindMissingMandatoryPanel),
		string(KindDegradedComparison),
		string(KindImageDriftExceeded),
		string(KindPolicyRejected),
	}
}

// Sentinels for errors.Is checks, one per kind.
var (
	ErrMalformedGeometryInput  = &GateError{Kind: KindMalformedGeometryInput}
	ErrHashMismatch            = &GateError{Kind: KindHashMismatch}
	ErrStructuralDriftExceeded = &GateError{Kind: KindStructuralDriftExceeded}
	ErrMissingMandatoryPanel   = &GateError{Kind: KindMissingMandatoryPanel}
	ErrDegradedComparison      = &GateError{Kind: KindDegradedComparison}
	ErrImageDriftExceeded      = &GateError{Kind: KindImageDriftExceeded}
	ErrPolicyRejected          = &GateError{Kind: KindPolicyRejected}
)

// GateError is the typed error strict mode raises. Kind carries the
// reason code, Panels the affected panel types.
type GateError struct {
	Kind   Kind
	Detail string
	Panels []string
}

func (e *GateError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if len(e.Panels) > 0 {
		fmt.Fprintf(&b, " (panels: %s)", strings.Join(e.Panels, ", "))
	}
	return b.String()
}

// Is matches any GateError of the same kind, so callers can test
// errors.Is(err, gate.ErrHashMismatch) regardless of detail.
func (e *GateError) Is(target error) bool {
	t, ok := target.(*GateError)
	return ok && t.Kind == e.Kind
}
