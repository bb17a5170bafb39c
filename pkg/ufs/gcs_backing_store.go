package ufs

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/buildbarn/bb-blockworker/pkg/cloud/gcp"
	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type gcsBackingStore struct {
	bucket       gcp.StorageBucketHandle
	objectPrefix string
}

// NewGCSBackingStore creates a BackingStore that reads objects from a
// Google Cloud Storage bucket.
func NewGCSBackingStore(bucket gcp.StorageBucketHandle, objectPrefix string) BackingStore {
	return &gcsBackingStore{
		bucket:       bucket,
		objectPrefix: objectPrefix,
	}
}

func (bs *gcsBackingStore) OpenRange(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	if offset < 0 || length < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Invalid range [%d, %d)", offset, offset+length)
	}
	r, err := bs.bucket.Object(bs.objectPrefix+path).NewRangeReader(ctx, offset, length)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, status.Errorf(codes.NotFound, "Object %#v does not exist", path)
		}
		if ctxErr := util.StatusFromContext(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, util.StatusWrapfWithCode(err, codes.Unavailable, "Failed to read object %#v", path)
	}
	return r, nil
}
