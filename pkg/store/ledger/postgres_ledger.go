package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// OpenPostgres opens and migrates a shared Postgres ledger. The DSN is
// passed through to lib/pq unchanged.
func OpenPostgres(ctx context.Context, dsn string) (*SQLLedger, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres ledger: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres ledger: %w", err)
	}
	l := NewSQLLedger(db)
	if err := l.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate postgres ledger: %w", err)
	}
	return l, nil
}
