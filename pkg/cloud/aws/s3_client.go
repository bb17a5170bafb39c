package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client contains the methods of the AWS SDK's S3 client that are
// needed to read blocks from S3 backing stores. It can be replaced in
// unit tests.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ S3Client = &s3.Client{}
