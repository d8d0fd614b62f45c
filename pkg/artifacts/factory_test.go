package artifacts

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewStoreFromEnv_Default(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("ARTIFACT_STORAGE_TYPE", "")
	t.Setenv("DATA_DIR", tmpDir)

	store, err := NewStoreFromEnv(context.Background())
	if err != nil {
		t.Fatalf("NewStoreFromEnv failed: %v", err)
	}

	fs, ok := store.(*FileStore)
	if !ok {
		t.Fatalf("expected *FileStore, got %T", store)
	}
	if want := filepath.Join(tmpDir, "panels"); fs.baseDir != want {
		t.Errorf("baseDir = %s, want %s", fs.baseDir, want)
	}
}

func TestNewStoreFromEnv_ExplicitFS(t *testing.T) {
	t.Setenv("ARTIFACT_STORAGE_TYPE", "fs")
	t.Setenv("DATA_DIR", t.TempDir())

	store, err := NewStoreFromEnv(context.Background())
	if err != nil {
		t.Fatalf("NewStoreFromEnv failed: %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Fatalf("expected *FileStore, got %T", store)
	}
}

func TestNewStoreFromEnv_S3MissingBucket(t *testing.T) {
	t.Setenv("ARTIFACT_STORAGE_TYPE", "s3")
	t.Setenv("ARTIFACT_S3_BUCKET", "")

	if _, err := NewStoreFromEnv(context.Background()); err == nil {
		t.Fatal("s3 backend without a bucket accepted")
	}
}

func TestNewStore_GCSMissingBucket(t *testing.T) {
	_, err := NewStore(context.Background(), StoreConfig{Backend: StoreTypeGCS})
	if err == nil {
		t.Fatal("gcs backend without a bucket accepted")
	}
}

func TestNewStore_UnknownBackend(t *testing.T) {
	_, err := NewStore(context.Background(), StoreConfig{Backend: "tape"})
	if err == nil {
		t.Fatal("unknown backend accepted")
	}
}
