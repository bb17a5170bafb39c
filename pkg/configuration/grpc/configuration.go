// Package grpc contains the configuration of gRPC clients and servers.
package grpc

import (
	"github.com/buildbarn/bb-blockworker/pkg/util"
)

// ClientKeepaliveConfiguration controls the sending of keepalive
// pings on idle client connections.
type ClientKeepaliveConfiguration struct {
	Time                *util.Duration `json:"time,omitempty"`
	Timeout             *util.Duration `json:"timeout,omitempty"`
	PermitWithoutStream bool           `json:"permitWithoutStream,omitempty"`
}

// HeaderValues is a single metadata header with its values.
type HeaderValues struct {
	Header string   `json:"header"`
	Values []string `json:"values"`
}

// ClientConfiguration describes how a gRPC client connects to a
// server.
type ClientConfiguration struct {
	Address string `json:"address"`

	Keepalive *ClientKeepaliveConfiguration `json:"keepalive,omitempty"`

	// Metadata headers that are added to every outgoing call.
	AddMetadata []HeaderValues `json:"addMetadata,omitempty"`

	MaximumReceivedMessageSizeBytes int `json:"maximumReceivedMessageSizeBytes,omitempty"`
}

// ServerKeepaliveEnforcementPolicy limits how often clients may send
// keepalive pings.
type ServerKeepaliveEnforcementPolicy struct {
	MinTime             *util.Duration `json:"minTime,omitempty"`
	PermitWithoutStream bool           `json:"permitWithoutStream,omitempty"`
}

// ServerConfiguration describes a gRPC server.
type ServerConfiguration struct {
	// TCP addresses on which the server listens.
	ListenAddresses []string `json:"listenAddresses,omitempty"`
	// Paths of UNIX sockets on which the server listens.
	ListenPaths []string `json:"listenPaths,omitempty"`

	MaximumReceivedMessageSizeBytes int `json:"maximumReceivedMessageSizeBytes,omitempty"`

	KeepaliveEnforcementPolicy *ServerKeepaliveEnforcementPolicy `json:"keepaliveEnforcementPolicy,omitempty"`

	// Name of the service reported by the health checking service.
	HealthCheckService string `json:"healthCheckService,omitempty"`

	// Drain in-flight RPCs on shutdown instead of cancelling them.
	StopGracefully bool `json:"stopGracefully,omitempty"`
}
