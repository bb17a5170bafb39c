// Package master contains the configuration of the connection between
// a block worker and its master.
package master

import (
	"github.com/buildbarn/bb-blockworker/pkg/configuration/grpc"
	"github.com/buildbarn/bb-blockworker/pkg/util"
)

// RetryConfiguration controls how often an operation is attempted and
// how long to wait in between attempts. Backoff doubles after every
// attempt, until it reaches the maximum.
type RetryConfiguration struct {
	MaximumAttempts int            `json:"maximumAttempts,omitempty"`
	InitialBackoff  *util.Duration `json:"initialBackoff,omitempty"`
	MaximumBackoff  *util.Duration `json:"maximumBackoff,omitempty"`
}

// ClientConfiguration describes how the primary master is located and
// how it is contacted.
type ClientConfiguration struct {
	// Addresses of all masters. The first one that responds to a
	// health check is used.
	Addresses []string `json:"addresses"`

	// Probe masters in random order, to spread load.
	ShuffleAddresses bool `json:"shuffleAddresses,omitempty"`

	// Amount of time a single health check may take.
	PollingTimeout *util.Duration `json:"pollingTimeout,omitempty"`

	// Retry policy for locating the primary master.
	Retry *RetryConfiguration `json:"retry,omitempty"`

	// Name of the service passed to the health checking service.
	HealthCheckService string `json:"healthCheckService,omitempty"`

	// Options of the gRPC client. The address field is ignored.
	GRPC *grpc.ClientConfiguration `json:"grpc,omitempty"`
}
