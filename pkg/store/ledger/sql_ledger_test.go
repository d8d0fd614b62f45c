package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func testEntry(now time.Time) Entry {
	return Entry{
		RunID:        "run-1",
		SheetID:      "sheet-9",
		Decision:     "REJECTED_FATAL",
		ReasonCodes:  []string{"HASH_MISMATCH"},
		GeometryHash: "sha256:aabbccddeeff0011",
		DesignHash:   "0011223344556677",
		DriftScore:   0.25,
		CreatedAt:    now,
	}
}

func TestSQLLedger_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer func() { _ = db.Close() }()

	l := NewSQLLedger(db)
	ctx := context.Background()
	e := testEntry(time.Now())

	mock.ExpectExec("INSERT INTO gate_decisions").
		WithArgs(e.RunID, e.SheetID, e.Decision, `["HASH_MISMATCH"]`,
			e.GeometryHash, e.DesignHash, e.DriftScore, `null`, e.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := l.Append(ctx, e); err != nil {
		t.Errorf("error was not expected while appending: %s", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %s", err)
	}
}

func TestSQLLedger_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer func() { _ = db.Close() }()

	l := NewSQLLedger(db)
	ctx := context.Background()
	now := time.Now()
	e := testEntry(now)

	rows := sqlmock.NewRows([]string{
		"run_id", "sheet_id", "decision", "reason_codes",
		"geometry_hash", "design_hash", "drift_score", "retry_panels", "created_at",
	}).AddRow(e.RunID, e.SheetID, e.Decision, `["HASH_MISMATCH"]`,
		e.GeometryHash, e.DesignHash, e.DriftScore, `["elevation_north"]`, now)

	mock.ExpectQuery("SELECT (.+) FROM gate_decisions WHERE run_id").
		WithArgs("run-1").
		WillReturnRows(rows)

	got, err := l.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.Decision != "REJECTED_FATAL" {
		t.Errorf("expected decision REJECTED_FATAL, got %s", got.Decision)
	}
	if len(got.ReasonCodes) != 1 || got.ReasonCodes[0] != "HASH_MISMATCH" {
		t.Errorf("reason codes not decoded: %v", got.ReasonCodes)
	}
	if len(got.RetryPanels) != 1 || got.RetryPanels[0] != "elevation_north" {
		t.Errorf("retry panels not decoded: %v", got.RetryPanels)
	}
}

func TestSQLLedger_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer func() { _ = db.Close() }()

	l := NewSQLLedger(db)

	mock.ExpectQuery("SELECT (.+) FROM gate_decisions WHERE run_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"run_id"}))

	_, err = l.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLLedger_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer func() { _ = db.Close() }()

	l := NewSQLLedger(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"run_id", "sheet_id", "decision", "reason_codes",
		"geometry_hash", "design_hash", "drift_score", "retry_panels", "created_at",
	}).
		AddRow("run-1", "sheet-9", "RETRY_PANELS", `["MISSING_MANDATORY_PANEL"]`, "h", "d", 0.0, `["title_block"]`, now).
		AddRow("run-2", "sheet-9", "ACCEPTED", `null`, "h", "d", 0.0, `null`, now.Add(time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM gate_decisions WHERE sheet_id").
		WithArgs("sheet-9").
		WillReturnRows(rows)

	got, err := l.List(context.Background(), "sheet-9")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].RunID != "run-1" || got[1].RunID != "run-2" {
		t.Errorf("entries out of order: %s, %s", got[0].RunID, got[1].RunID)
	}
}
