package grpc

import (
	configuration "github.com/buildbarn/bb-blockworker/pkg/configuration/grpc"
	"github.com/buildbarn/bb-blockworker/pkg/util"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
)

func init() {
	// Add Prometheus timing metrics.
	grpc_prometheus.EnableClientHandlingTimeHistogram(
		grpc_prometheus.WithHistogramBuckets(
			util.DurationBuckets))
}

type baseClientFactory struct {
	enableTracing bool
}

func (cf baseClientFactory) NewClientFromConfiguration(config *configuration.ClientConfiguration) (grpc.ClientConnInterface, error) {
	if config == nil {
		return nil, status.Error(codes.InvalidArgument, "No gRPC client configuration provided")
	}
	if config.Address == "" {
		return nil, status.Error(codes.InvalidArgument, "No gRPC client address provided")
	}

	dialOptions := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if cf.enableTracing {
		dialOptions = append(dialOptions, grpc.WithStatsHandler(otelgrpc.NewClientHandler()))
	}
	unaryInterceptors := []grpc.UnaryClientInterceptor{
		grpc_prometheus.UnaryClientInterceptor,
	}
	streamInterceptors := []grpc.StreamClientInterceptor{
		grpc_prometheus.StreamClientInterceptor,
	}

	// Optional: Keepalive.
	if config.Keepalive != nil {
		dialOptions = append(dialOptions, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                config.Keepalive.Time.AsDuration(0),
			Timeout:             config.Keepalive.Timeout.AsDuration(0),
			PermitWithoutStream: config.Keepalive.PermitWithoutStream,
		}))
	}

	// Optional: set metadata.
	if md := config.AddMetadata; len(md) > 0 {
		pairs := []string{}
		for _, headerValues := range md {
			for _, value := range headerValues.Values {
				pairs = append(pairs, headerValues.Header, value)
			}
		}
		unaryInterceptors = append(
			unaryInterceptors,
			NewAddMetadataUnaryClientInterceptor(pairs))
		streamInterceptors = append(
			streamInterceptors,
			NewAddMetadataStreamClientInterceptor(pairs))
	}

	if maxRecvMsgSize := config.MaximumReceivedMessageSizeBytes; maxRecvMsgSize != 0 {
		dialOptions = append(dialOptions, grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxRecvMsgSize)))
	}

	dialOptions = append(
		dialOptions,
		grpc.WithChainUnaryInterceptor(unaryInterceptors...),
		grpc.WithChainStreamInterceptor(streamInterceptors...))
	conn, err := grpc.NewClient(config.Address, dialOptions...)
	if err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.InvalidArgument, "Failed to create client for %#v", config.Address)
	}
	return conn, nil
}

// BaseClientFactory creates gRPC clients using the go-grpc library.
// Connections are established lazily, when the first RPC is issued.
var BaseClientFactory ClientFactory = baseClientFactory{enableTracing: true}

// NonTracingBaseClientFactory is identical to BaseClientFactory,
// except that RPCs are not traced. It must be used by clients that
// export traces, as they would otherwise trace themselves.
var NonTracingBaseClientFactory ClientFactory = baseClientFactory{}
