package ufs

import (
	"context"
	"net/http"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/buildbarn/bb-blockworker/pkg/clock"
	"github.com/buildbarn/bb-blockworker/pkg/cloud/aws"
	"github.com/buildbarn/bb-blockworker/pkg/cloud/gcp"
	pb "github.com/buildbarn/bb-blockworker/pkg/configuration/ufs"
	bb_http "github.com/buildbarn/bb-blockworker/pkg/http"
	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewBackingStoreFromConfiguration creates a BackingStore based on
// parameters provided in a configuration file. The resulting backing
// store is instrumented with Prometheus metrics, labeled with the name
// of the mount.
func NewBackingStoreFromConfiguration(ctx context.Context, configuration *pb.BackingStoreConfiguration, name string) (BackingStore, error) {
	if configuration == nil {
		return nil, status.Errorf(codes.InvalidArgument, "No configuration provided for backing store %#v", name)
	}
	var backingStore BackingStore
	switch {
	case configuration.Local != nil:
		backingStore = NewLocalBackingStore(configuration.Local.Path)
	case configuration.S3 != nil:
		cfg, err := aws.NewConfigFromConfiguration(ctx, configuration.S3.AWSSession, "S3BackingStore")
		if err != nil {
			return nil, util.StatusWrap(err, "Failed to create AWS config")
		}
		s3Configuration := configuration.S3
		s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
			if endpoint := s3Configuration.Endpoint; endpoint != "" {
				o.BaseEndpoint = &endpoint
			}
			o.UsePathStyle = s3Configuration.UsePathStyle
		})
		backingStore = NewS3BackingStore(s3Client, s3Configuration.Bucket, s3Configuration.KeyPrefix)
	case configuration.GCS != nil:
		gcsClient, err := storage.NewClient(ctx, gcp.NewClientOptionsFromConfiguration(configuration.GCS.ClientOptions)...)
		if err != nil {
			return nil, util.StatusWrap(err, "Failed to create Google Cloud Storage client")
		}
		backingStore = NewGCSBackingStore(
			gcp.NewWrappedStorageClient(gcsClient).Bucket(configuration.GCS.Bucket),
			configuration.GCS.ObjectPrefix)
	case configuration.HTTP != nil:
		baseURL, err := url.Parse(configuration.HTTP.BaseURL)
		if err != nil {
			return nil, util.StatusWrapWithCode(err, codes.InvalidArgument, "Failed to parse base URL")
		}
		roundTripper, err := bb_http.NewRoundTripperFromConfiguration(configuration.HTTP.HTTPClient)
		if err != nil {
			return nil, util.StatusWrap(err, "Failed to create HTTP client")
		}
		backingStore = NewHTTPBackingStore(
			&http.Client{Transport: bb_http.NewMetricsRoundTripper(roundTripper, "HTTPBackingStore")},
			baseURL)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "Configuration of backing store %#v does not contain a backend", name)
	}
	return NewMetricsBackingStore(backingStore, clock.SystemClock, name), nil
}

// NewMountTableFromConfiguration creates a MountTable containing all
// backing stores declared in a configuration file.
func NewMountTableFromConfiguration(ctx context.Context, configurations map[string]*pb.BackingStoreConfiguration) (*MountTable, error) {
	backingStores := make(map[string]BackingStore, len(configurations))
	for name, configuration := range configurations {
		backingStore, err := NewBackingStoreFromConfiguration(ctx, configuration, name)
		if err != nil {
			return nil, util.StatusWrapf(err, "Backing store %#v", name)
		}
		backingStores[name] = backingStore
	}
	return NewMountTable(backingStores), nil
}
