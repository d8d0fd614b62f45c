// Package artifacts persists rendered panel rasters and their envelopes
// in content-addressed storage. Every blob is keyed by the sha256 of its
// own bytes, so a ref either resolves to exactly the content that
// produced it or to nothing.
package artifacts

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Plinth-Labs/maquette/pkg/canonical"
)

var (
	// ErrArtifactNotFound reports a ref with no stored blob behind it.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrArtifactCorrupt reports stored bytes that no longer hash to
	// their own ref.
	ErrArtifactCorrupt = errors.New("artifact corrupt")
)

// Store is content-addressed blob storage for panel artifacts.
type Store interface {
	// Store persists data and returns its "sha256:<hex>" content ref.
	// Storing the same bytes twice is a no-op.
	Store(ctx context.Context, data []byte) (string, error)
	// Get retrieves the blob for a content ref, verifying that the
	// bytes still hash to the ref.
	Get(ctx context.Context, ref string) ([]byte, error)
	// Exists reports whether a blob is present for a content ref.
	Exists(ctx context.Context, ref string) (bool, error)
	// Delete removes the blob for a content ref. Deleting an absent
	// blob is not an error.
	Delete(ctx context.Context, ref string) error
}

// refKey validates a content ref and returns the bare hex digest used
// as the storage key.
func refKey(ref string) (string, error) {
	raw := canonical.StripPrefix(ref)
	if raw == ref {
		return "", fmt.Errorf("invalid content ref %q: missing %q prefix", ref, canonical.HashPrefix)
	}
	if len(raw) != 64 {
		return "", fmt.Errorf("invalid content ref %q: digest is %d hex chars, want 64", ref, len(raw))
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("invalid content ref %q: %w", ref, err)
	}
	return raw, nil
}

// verifyRef checks fetched bytes against the ref they were requested
// under.
func verifyRef(ref string, data []byte) error {
	if got := canonical.SumHex(data); got != ref {
		return fmt.Errorf("artifact %s: %w (stored bytes hash to %s)", ref, ErrArtifactCorrupt, got)
	}
	return nil
}

// FileStore keeps blobs as flat files under a root directory. Writes go
// through a temp file and a rename, so a crash never leaves a partial
// blob at its final path.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore opens a blob directory, creating it if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure panel blob dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) blobPath(raw string) string {
	return filepath.Join(s.baseDir, raw+".blob")
}

func (s *FileStore) Store(ctx context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := canonical.SumHex(data)
	path := s.blobPath(canonical.StripPrefix(ref))

	if _, err := os.Stat(path); err == nil {
		return ref, nil
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write panel blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("commit panel blob: %w", err)
	}
	return ref, nil
}

func (s *FileStore) Get(ctx context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := refKey(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.blobPath(raw))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, ref)
		}
		return nil, fmt.Errorf("read panel blob %s: %w", ref, err)
	}
	if err := verifyRef(ref, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *FileStore) Exists(ctx context.Context, ref string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := refKey(ref)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(s.blobPath(raw)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat panel blob %s: %w", ref, err)
	}
	return true, nil
}

func (s *FileStore) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := refKey(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(s.blobPath(raw)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete panel blob %s: %w", ref, err)
	}
	return nil
}
