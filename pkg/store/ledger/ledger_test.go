package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestFileLedger_AppendAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	l, err := NewFileLedger(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer func() { _ = l.Close() }()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first := Entry{RunID: "run-1", SheetID: "sheet-1", Decision: "RETRY_PANELS",
		RetryPanels: []string{"material_legend", "title_block"}, CreatedAt: base}
	second := Entry{RunID: "run-2", SheetID: "sheet-1", Decision: "ACCEPTED",
		GeometryHash: "sha256:ab12", DriftScore: 0.02, CreatedAt: base.Add(time.Hour)}
	other := Entry{RunID: "run-3", SheetID: "sheet-2", Decision: "ACCEPTED", CreatedAt: base}

	for _, e := range []Entry{first, second, other} {
		if err := l.Append(ctx, e); err != nil {
			t.Fatalf("append %s: %s", e.RunID, err)
		}
	}

	got, err := l.List(ctx, "sheet-1")
	if err != nil {
		t.Fatalf("list: %s", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for sheet-1, got %d", len(got))
	}
	if got[0].RunID != "run-1" || got[1].RunID != "run-2" {
		t.Errorf("entries not in append order: %s, %s", got[0].RunID, got[1].RunID)
	}
	if got[1].GeometryHash != "sha256:ab12" {
		t.Errorf("geometry hash not preserved: %s", got[1].GeometryHash)
	}
}

func TestFileLedger_Get(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	l, err := NewFileLedger(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer func() { _ = l.Close() }()

	ctx := context.Background()
	e := Entry{RunID: "run-42", SheetID: "sheet-7", Decision: "REJECTED_FATAL",
		ReasonCodes: []string{"HASH_MISMATCH", "IMAGE_DRIFT_EXCEEDED"},
		CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	if err := l.Append(ctx, e); err != nil {
		t.Fatalf("append: %s", err)
	}

	got, err := l.Get(ctx, "run-42")
	if err != nil {
		t.Fatalf("get: %s", err)
	}
	if got.Decision != "REJECTED_FATAL" || len(got.ReasonCodes) != 2 {
		t.Errorf("entry not round-tripped: %+v", got)
	}

	if _, err := l.Get(ctx, "run-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileLedger_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	l, err := NewFileLedger(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer func() { _ = l.Close() }()

	got, err := l.List(context.Background(), "sheet-1")
	if err != nil {
		t.Fatalf("list on empty ledger: %s", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no entries, got %d", len(got))
	}
}

func TestOpen_Schemes(t *testing.T) {
	ctx := context.Background()

	l, err := Open(ctx, "file:"+filepath.Join(t.TempDir(), "d.jsonl"))
	if err != nil {
		t.Fatalf("open file dsn: %s", err)
	}
	if _, ok := l.(*FileLedger); !ok {
		t.Errorf("file dsn opened %T", l)
	}
	_ = l.Close()

	l, err = Open(ctx, "sqlite:"+filepath.Join(t.TempDir(), "gate.db"))
	if err != nil {
		t.Fatalf("open sqlite dsn: %s", err)
	}
	if _, ok := l.(*SQLLedger); !ok {
		t.Errorf("sqlite dsn opened %T", l)
	}
	_ = l.Close()

	if _, err := Open(ctx, "cassandra://nope"); err == nil {
		t.Error("unrecognized dsn accepted")
	}
}
