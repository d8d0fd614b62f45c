//go:build !gcp

package artifacts

import (
	"context"
	"errors"
)

func newGCSStore(ctx context.Context, bucket, prefix string) (Store, error) {
	return nil, errors.New("gcs storage is not enabled in this build (use -tags gcp)")
}
