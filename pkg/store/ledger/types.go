package ledger

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no ledger rows match a lookup.
var ErrNotFound = errors.New("not found")

// Entry is one recorded gate decision. The ledger is append-only: a
// re-evaluated sheet gets a new row under a fresh run ID, existing rows
// are never updated or deleted.
type Entry struct {
	RunID        string    `json:"run_id"`
	SheetID      string    `json:"sheet_id"`
	Decision     string    `json:"decision"`
	ReasonCodes  []string  `json:"reason_codes,omitempty"`
	GeometryHash string    `json:"geometry_hash"`
	DesignHash   string    `json:"design_hash"`
	DriftScore   float64   `json:"drift_score"`
	RetryPanels  []string  `json:"retry_panels,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
