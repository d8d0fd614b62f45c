package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// StoreType selects an artifact storage backend.
type StoreType string

const (
	StoreTypeFS  StoreType = "fs"
	StoreTypeS3  StoreType = "s3"
	StoreTypeGCS StoreType = "gcs"
)

// StoreConfig selects and parameterizes a storage backend. GCS fields
// are flat so the struct builds without the gcp tag.
type StoreConfig struct {
	Backend   StoreType
	Dir       string // fs backend root
	S3        S3StoreConfig
	GCSBucket string
	GCSPrefix string
}

// NewStore builds the configured backend. An empty backend means the
// filesystem store.
func NewStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = StoreTypeFS
	}

	switch backend {
	case StoreTypeFS:
		dir := cfg.Dir
		if dir == "" {
			dir = filepath.Join("data", "panels")
		}
		return NewFileStore(dir)

	case StoreTypeS3:
		if cfg.S3.Bucket == "" {
			return nil, errors.New("s3 panel storage requires a bucket")
		}
		s3cfg := cfg.S3
		if s3cfg.Region == "" {
			s3cfg.Region = "us-east-1"
		}
		return NewS3Store(ctx, s3cfg)

	case StoreTypeGCS:
		if cfg.GCSBucket == "" {
			return nil, errors.New("gcs panel storage requires a bucket")
		}
		return newGCSStore(ctx, cfg.GCSBucket, cfg.GCSPrefix)

	default:
		return nil, fmt.Errorf("unsupported panel storage backend: %s", backend)
	}
}

// NewStoreFromEnv builds a store from environment configuration.
//
// ARTIFACT_STORAGE_TYPE selects "fs" (default), "s3" or "gcs".
//
// fs:  DATA_DIR, blobs live under <DATA_DIR>/panels (default "data")
// s3:  ARTIFACT_S3_BUCKET (required), ARTIFACT_S3_REGION or AWS_REGION,
//      ARTIFACT_S3_ENDPOINT for MinIO and LocalStack, ARTIFACT_S3_PREFIX
// gcs: ARTIFACT_GCS_BUCKET (required), ARTIFACT_GCS_PREFIX; requires
//      the gcp build tag
func NewStoreFromEnv(ctx context.Context) (Store, error) {
	cfg := StoreConfig{
		Backend: StoreType(os.Getenv("ARTIFACT_STORAGE_TYPE")),
		S3: S3StoreConfig{
			Bucket:   os.Getenv("ARTIFACT_S3_BUCKET"),
			Region:   os.Getenv("ARTIFACT_S3_REGION"),
			Endpoint: os.Getenv("ARTIFACT_S3_ENDPOINT"),
			Prefix:   os.Getenv("ARTIFACT_S3_PREFIX"),
		},
		GCSBucket: os.Getenv("ARTIFACT_GCS_BUCKET"),
		GCSPrefix: os.Getenv("ARTIFACT_GCS_PREFIX"),
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.Dir = filepath.Join(dataDir, "panels")
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = os.Getenv("AWS_REGION")
	}
	return NewStore(ctx, cfg)
}
