// Package bb_blockworker contains the configuration of the
// bb_blockworker binary.
package bb_blockworker

import (
	"github.com/buildbarn/bb-blockworker/pkg/configuration/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/configuration/global"
	"github.com/buildbarn/bb-blockworker/pkg/configuration/grpc"
	"github.com/buildbarn/bb-blockworker/pkg/configuration/master"
	"github.com/buildbarn/bb-blockworker/pkg/configuration/ufs"
	"github.com/buildbarn/bb-blockworker/pkg/util"
)

// CacheManagerConfiguration controls how blocks are copied from
// backing stores into the local block store on request.
type CacheManagerConfiguration struct {
	// Maximum number of blocks that are cached concurrently.
	MaximumConcurrency int64 `json:"maximumConcurrency,omitempty"`
}

// LoadConfiguration controls how blocks are loaded into the local
// block store in bulk.
type LoadConfiguration struct {
	// Maximum number of blocks loaded in parallel.
	Concurrency int `json:"concurrency,omitempty"`

	// Retry policy for reading a single block from its backing
	// store.
	Retry *master.RetryConfiguration `json:"retry,omitempty"`
}

// WorkerAddressConfiguration is the address under which the worker
// is announced to the master.
type WorkerAddressConfiguration struct {
	Host     string            `json:"host"`
	RPCPort  int               `json:"rpcPort"`
	WebPort  int               `json:"webPort,omitempty"`
	Locality map[string]string `json:"locality,omitempty"`
}

// ApplicationConfiguration is the top-level configuration of
// bb_blockworker.
type ApplicationConfiguration struct {
	Global *global.Configuration `json:"global,omitempty"`

	// Layout of the local block store: tiers, evictionPolicy,
	// allocator, lockTimeout and maximumReadersPerBlock.
	blockstore.TieredBlockStoreConfiguration

	// Amount of time after which sessions that have not sent a
	// heartbeat are cleaned up.
	SessionTimeout *util.Duration `json:"sessionTimeout,omitempty"`

	// Amount of time a backing store block may remain open without
	// being read before it is released.
	UFSBlockOpenTimeout *util.Duration `json:"ufsBlockOpenTimeout,omitempty"`

	CacheManager *CacheManagerConfiguration `json:"cacheManager,omitempty"`

	Load *LoadConfiguration `json:"load,omitempty"`

	// Backing stores from which absent blocks are read, keyed by
	// mount ID.
	BackingStores map[string]*ufs.BackingStoreConfiguration `json:"backingStores"`

	// Masters with which the worker registers.
	Master *master.ClientConfiguration `json:"master"`

	WorkerAddress WorkerAddressConfiguration `json:"workerAddress"`

	// Interval at which the worker reports to the master, fetches
	// the pin list and cleans up sessions.
	HeartbeatInterval *util.Duration `json:"heartbeatInterval,omitempty"`

	// Periodically check whether storage directories are still
	// accessible, and stop using the ones that aren't.
	StorageCheckerEnabled bool `json:"storageCheckerEnabled,omitempty"`

	// gRPC servers exposing the health checking service.
	GRPCServers []*grpc.ServerConfiguration `json:"grpcServers,omitempty"`
}
