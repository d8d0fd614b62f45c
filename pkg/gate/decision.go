package gate

// State is a gate decision state. Pending moves to exactly one of the
// three terminal states; terminal decisions never change.
type State string

const (
	StatePending       State = "PENDING"
	StateAccepted      State = "ACCEPTED"
	StateRetryPanels   State = "RETRY_PANELS"
	StateRejectedFatal State = "REJECTED_FATAL"
)

// Decision is the outcome of one gate evaluation.
type Decision struct {
	State State `json:"state"`
	// RetryPanels lists the panels to regenerate when State is
	// RETRY_PANELS. Only those panels are flagged, never the sheet.
	RetryPanels []string `json:"retryPanels,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Report      *Report  `json:"report"`
	// Clearance is the signed composition token, present only on
	// accepted decisions minted by an evaluator with an issuer.
	Clearance string `json:"clearance,omitempty"`
}

// NewDecision returns a pending decision wrapping the run's report.
func NewDecision(report *Report) *Decision {
	return &Decision{State: StatePending, Report: report}
}

// Terminal reports whether the decision has been resolved.
func (d *Decision) Terminal() bool {
	return d.State != StatePending
}

// Accepted reports whether the sheet may be composited.
func (d *Decision) Accepted() bool {
	return d.State == StateAccepted
}

// resolve moves a pending decision to a terminal state. The first
// resolution wins; later calls are no-ops.
func (d *Decision) resolve(s State, reason string) {
	if d.Terminal() {
		return
	}
	d.State = s
	d.Reason = reason
}
