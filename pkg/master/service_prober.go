package master

import (
	"context"

	configuration "github.com/buildbarn/bb-blockworker/pkg/configuration/grpc"
	bb_grpc "github.com/buildbarn/bb-blockworker/pkg/grpc"
	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceProber checks whether a master is able to serve requests.
type ServiceProber interface {
	// Probe returns nil if the master at the provided address is
	// serving. Errors with codes Unavailable, DeadlineExceeded and
	// Canceled indicate that the master could not be reached.
	Probe(ctx context.Context, address string) error
}

type grpcHealthServiceProber struct {
	clientFactory bb_grpc.ClientFactory
	template      configuration.ClientConfiguration
	serviceName   string
}

// NewGRPCHealthServiceProber creates a ServiceProber that calls into
// the standard gRPC health checking service of a master. Client
// connections are created using the provided template, with the
// address of the master filled in.
func NewGRPCHealthServiceProber(clientFactory bb_grpc.ClientFactory, template *configuration.ClientConfiguration, serviceName string) ServiceProber {
	p := &grpcHealthServiceProber{
		clientFactory: clientFactory,
		serviceName:   serviceName,
	}
	if template != nil {
		p.template = *template
	}
	return p
}

func (p *grpcHealthServiceProber) Probe(ctx context.Context, address string) error {
	clientConfiguration := p.template
	clientConfiguration.Address = address
	client, err := p.clientFactory.NewClientFromConfiguration(&clientConfiguration)
	if err != nil {
		return util.StatusWrapf(err, "Failed to create client for master %#v", address)
	}
	response, err := grpc_health_v1.NewHealthClient(client).Check(ctx, &grpc_health_v1.HealthCheckRequest{
		Service: p.serviceName,
	})
	if err != nil {
		return err
	}
	if response.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		return status.Errorf(codes.Unavailable, "Master %#v reports status %s", address, response.Status)
	}
	return nil
}
