package grpc

import (
	configuration "github.com/buildbarn/bb-blockworker/pkg/configuration/grpc"

	"google.golang.org/grpc"
)

// ClientFactory can be used to construct gRPC clients based on options
// specified in a configuration message.
type ClientFactory interface {
	NewClientFromConfiguration(configuration *configuration.ClientConfiguration) (grpc.ClientConnInterface, error)
}

// DefaultClientFactory is an instance of ClientFactory that can be used
// to create gRPC client connections. Clients are deduplicated if
// multiple calls for the same configuration are made. Connections are
// only established once the first RPC is performed.
var DefaultClientFactory = NewDeduplicatingClientFactory(BaseClientFactory)
