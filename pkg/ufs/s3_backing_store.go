package ufs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	cloud_aws "github.com/buildbarn/bb-blockworker/pkg/cloud/aws"
	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type s3BackingStore struct {
	s3Client  cloud_aws.S3Client
	bucket    *string
	keyPrefix string
}

// NewS3BackingStore creates a BackingStore that reads objects from an
// S3 bucket, using HTTP range requests.
func NewS3BackingStore(s3Client cloud_aws.S3Client, bucket, keyPrefix string) BackingStore {
	return &s3BackingStore{
		s3Client:  s3Client,
		bucket:    aws.String(bucket),
		keyPrefix: keyPrefix,
	}
}

func (bs *s3BackingStore) OpenRange(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	if offset < 0 || length <= 0 {
		if length == 0 {
			return io.NopCloser(eofReader{}), nil
		}
		return nil, status.Errorf(codes.InvalidArgument, "Invalid range [%d, %d)", offset, offset+length)
	}
	result, err := bs.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: bs.bucket,
		Key:    aws.String(bs.keyPrefix + path),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, status.Errorf(codes.NotFound, "Object %#v does not exist", path)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange" {
			// Ranges starting past the end of the object.
			return io.NopCloser(eofReader{}), nil
		}
		if ctxErr := util.StatusFromContext(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, util.StatusWrapfWithCode(err, codes.Unavailable, "Failed to read object %#v", path)
	}
	return result.Body, nil
}

type eofReader struct{}

func (eofReader) Read(p []byte) (int, error) {
	return 0, io.EOF
}
