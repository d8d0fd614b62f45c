package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLLedger implements Ledger using database/sql.
// It supports both Postgres and SQLite via standard drivers; the $N
// placeholder form is understood by both.
type SQLLedger struct {
	db *sql.DB
}

func NewSQLLedger(db *sql.DB) *SQLLedger {
	return &SQLLedger{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS gate_decisions (
	run_id TEXT PRIMARY KEY,
	sheet_id TEXT,
	decision TEXT,
	reason_codes TEXT,
	geometry_hash TEXT,
	design_hash TEXT,
	drift_score REAL,
	retry_panels TEXT,
	created_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_gate_decisions_sheet ON gate_decisions (sheet_id);
`

func (s *SQLLedger) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLLedger) Append(ctx context.Context, e Entry) error {
	codes, err := json.Marshal(e.ReasonCodes)
	if err != nil {
		return fmt.Errorf("encode reason codes: %w", err)
	}
	panels, err := json.Marshal(e.RetryPanels)
	if err != nil {
		return fmt.Errorf("encode retry panels: %w", err)
	}

	query := `
		INSERT INTO gate_decisions (run_id, sheet_id, decision, reason_codes, geometry_hash, design_hash, drift_score, retry_panels, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		e.RunID, e.SheetID, e.Decision, string(codes),
		e.GeometryHash, e.DesignHash, e.DriftScore, string(panels), e.CreatedAt,
	)
	return err
}

const selectColumns = `run_id, sheet_id, decision, reason_codes, geometry_hash, design_hash, drift_score, retry_panels, created_at`

func (s *SQLLedger) Get(ctx context.Context, runID string) (Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM gate_decisions WHERE run_id = $1`
	row := s.db.QueryRowContext(ctx, query, runID)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

func (s *SQLLedger) List(ctx context.Context, sheetID string) ([]Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM gate_decisions WHERE sheet_id = $1 ORDER BY created_at, run_id`
	rows, err := s.db.QueryContext(ctx, query, sheetID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLLedger) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var codes, panels string
	if err := row.Scan(&e.RunID, &e.SheetID, &e.Decision, &codes,
		&e.GeometryHash, &e.DesignHash, &e.DriftScore, &panels, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	if codes != "" {
		if err := json.Unmarshal([]byte(codes), &e.ReasonCodes); err != nil {
			return Entry{}, fmt.Errorf("decode reason codes: %w", err)
		}
	}
	if panels != "" {
		if err := json.Unmarshal([]byte(panels), &e.RetryPanels); err != nil {
			return Entry{}, fmt.Errorf("decode retry panels: %w", err)
		}
	}
	return e, nil
}
