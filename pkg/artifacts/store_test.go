package artifacts

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Plinth-Labs/maquette/pkg/canonical"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()
	data := []byte("north elevation raster bytes")

	ref, err := store.Store(ctx, data)
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if !strings.HasPrefix(ref, canonical.HashPrefix) {
		t.Fatalf("ref %q missing hash prefix", ref)
	}
	if ref != canonical.SumHex(data) {
		t.Errorf("ref %q does not match content hash", ref)
	}

	again, err := store.Store(ctx, data)
	if err != nil {
		t.Fatalf("second Store failed: %v", err)
	}
	if again != ref {
		t.Errorf("restoring same bytes gave ref %q, want %q", again, ref)
	}

	got, err := store.Get(ctx, ref)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get returned %q, want %q", got, data)
	}

	ok, err := store.Exists(ctx, ref)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("Exists = false for stored blob")
	}
}

func TestFileStore_GetVerifiesContent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()

	ref, err := store.Store(ctx, []byte("original panel"))
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	// Overwrite the blob in place. The ref no longer matches the bytes.
	path := filepath.Join(dir, canonical.StripPrefix(ref)+".blob")
	if err := os.WriteFile(path, []byte("tampered panel"), 0o644); err != nil {
		t.Fatalf("overwrite blob: %v", err)
	}

	_, err = store.Get(ctx, ref)
	if !errors.Is(err, ErrArtifactCorrupt) {
		t.Fatalf("Get after tamper = %v, want ErrArtifactCorrupt", err)
	}
}

func TestFileStore_GetMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	_, err = store.Get(context.Background(), canonical.SumHex([]byte("never stored")))
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("Get missing = %v, want ErrArtifactNotFound", err)
	}
}

func TestFileStore_RejectsMalformedRefs(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()

	for _, ref := range []string{
		"",
		"deadbeef",
		"sha256:zz00",
		"sha256:abcd",
		"md5:d41d8cd98f00b204e9800998ecf8427e",
	} {
		if _, err := store.Get(ctx, ref); err == nil {
			t.Errorf("Get(%q) accepted a malformed ref", ref)
		}
		if _, err := store.Exists(ctx, ref); err == nil {
			t.Errorf("Exists(%q) accepted a malformed ref", ref)
		}
		if err := store.Delete(ctx, ref); err == nil {
			t.Errorf("Delete(%q) accepted a malformed ref", ref)
		}
	}
}

func TestFileStore_DeleteIdempotent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()

	ref, err := store.Store(ctx, []byte("short-lived"))
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}

	ok, err := store.Exists(ctx, ref)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Error("Exists = true after Delete")
	}
}
