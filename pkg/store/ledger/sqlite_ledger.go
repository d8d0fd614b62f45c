package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens and migrates an embedded SQLite ledger at path.
// Use ":memory:" for throwaway ledgers.
func OpenSQLite(ctx context.Context, path string) (*SQLLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	l := NewSQLLedger(db)
	if err := l.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite ledger: %w", err)
	}
	return l, nil
}
