package ledger

import (
	"context"
	"fmt"
	"strings"
)

// Open builds a ledger from a DSN. Supported schemes:
//
//	file:path/to/decisions.jsonl   append-only JSONL file
//	sqlite:path/to/gate.db         embedded sqlite database
//	postgres://...                 postgres database
func Open(ctx context.Context, dsn string) (Ledger, error) {
	switch {
	case strings.HasPrefix(dsn, "file:"):
		return NewFileLedger(strings.TrimPrefix(dsn, "file:"))
	case strings.HasPrefix(dsn, "sqlite:"):
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unrecognized ledger dsn %q", dsn)
	}
}
