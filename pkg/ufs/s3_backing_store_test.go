package ufs_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/buildbarn/bb-blockworker/internal/mock"
	"github.com/buildbarn/bb-blockworker/pkg/testutil"
	"github.com/buildbarn/bb-blockworker/pkg/ufs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestS3BackingStore(t *testing.T) {
	ctrl := gomock.NewController(t)

	s3Client := mock.NewMockS3Client(ctrl)
	backingStore := ufs.NewS3BackingStore(s3Client, "my-bucket", "prefix/")

	t.Run("Success", func(t *testing.T) {
		s3Client.EXPECT().GetObject(gomock.Any(), &s3.GetObjectInput{
			Bucket: aws.String("my-bucket"),
			Key:    aws.String("prefix/dir/file"),
			Range:  aws.String("bytes=100-149"),
		}).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("Hello")),
		}, nil)

		r, err := backingStore.OpenRange(context.Background(), "dir/file", 100, 50)
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, []byte("Hello"), data)
	})

	t.Run("NotFound", func(t *testing.T) {
		s3Client.EXPECT().GetObject(gomock.Any(), gomock.Any()).
			Return(nil, &types.NoSuchKey{})

		_, err := backingStore.OpenRange(context.Background(), "dir/file", 0, 50)
		testutil.RequireEqualStatus(t, status.Error(codes.NotFound, "Object \"dir/file\" does not exist"), err)
	})

	t.Run("EmptyRange", func(t *testing.T) {
		r, err := backingStore.OpenRange(context.Background(), "dir/file", 0, 0)
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Empty(t, data)
	})
}
