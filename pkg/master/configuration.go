package master

import (
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/clock"
	pb "github.com/buildbarn/bb-blockworker/pkg/configuration/master"
	bb_grpc "github.com/buildbarn/bb-blockworker/pkg/grpc"
	"github.com/buildbarn/bb-blockworker/pkg/random"
	"github.com/buildbarn/bb-blockworker/pkg/retry"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewMasterInquireClientFromConfiguration creates a
// MasterInquireClient that probes the masters listed in a
// configuration file using the gRPC health checking service.
func NewMasterInquireClientFromConfiguration(configuration *pb.ClientConfiguration, clientFactory bb_grpc.ClientFactory) (MasterInquireClient, error) {
	if configuration == nil || len(configuration.Addresses) == 0 {
		return nil, status.Error(codes.InvalidArgument, "No master addresses configured")
	}
	var randomGenerator random.ThreadSafeGenerator
	if configuration.ShuffleAddresses {
		randomGenerator = random.FastThreadSafeGenerator
	}
	return NewPollingMasterInquireClient(
		configuration.Addresses,
		NewGRPCHealthServiceProber(clientFactory, configuration.GRPC, configuration.HealthCheckService),
		configuration.PollingTimeout.AsDuration(3*time.Second),
		retry.NewPolicyFactoryFromConfiguration(configuration.Retry, clock.SystemClock),
		clock.SystemClock,
		randomGenerator), nil
}

// NewBlockMasterClientFromConfiguration creates a BlockMasterClient
// that sends requests to the primary master.
func NewBlockMasterClientFromConfiguration(configuration *pb.ClientConfiguration, clientFactory bb_grpc.ClientFactory) (BlockMasterClient, error) {
	inquireClient, err := NewMasterInquireClientFromConfiguration(configuration, clientFactory)
	if err != nil {
		return nil, err
	}
	return NewFailoverBlockMasterClient(inquireClient, clientFactory, configuration.GRPC), nil
}
