package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileLedger implements Ledger as an append-only JSONL file, one
// decision per line. Meant for dev and single-process use; the mutex
// serializes access within this process only.
type FileLedger struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

func NewFileLedger(path string) (*FileLedger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure ledger dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	return &FileLedger{path: path, f: f}, nil
}

func (l *FileLedger) Append(ctx context.Context, e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode ledger entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return l.f.Sync()
}

func (l *FileLedger) Get(ctx context.Context, runID string) (Entry, error) {
	entries, err := l.read()
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.RunID == runID {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// List returns a sheet's entries in file order, which is append order.
func (l *FileLedger) List(ctx context.Context, sheetID string) ([]Entry, error) {
	entries, err := l.read()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0)
	for _, e := range entries {
		if e.SheetID == sheetID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *FileLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

func (l *FileLedger) read() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Entry
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("corrupt ledger line: %w", err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
