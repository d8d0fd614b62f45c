// Package ledger records gate decisions durably. Every evaluation run
// appends exactly one entry, whatever the outcome, so the history of a
// sheet's composition attempts can be audited later.
package ledger

import "context"

// Ledger is the durable record of gate decisions.
type Ledger interface {
	// Append records one decision.
	Append(ctx context.Context, e Entry) error

	// Get retrieves one decision by run ID.
	Get(ctx context.Context, runID string) (Entry, error)

	// List retrieves every decision recorded for a sheet, oldest first.
	List(ctx context.Context, sheetID string) ([]Entry, error)

	// Close releases the underlying store.
	Close() error
}
