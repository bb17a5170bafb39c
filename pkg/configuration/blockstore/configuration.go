// Package blockstore contains the configuration of the tiered block
// store that holds blocks on local media.
package blockstore

import (
	"github.com/buildbarn/bb-blockworker/pkg/util"
)

// DirectoryConfiguration describes a single directory of a storage
// tier.
type DirectoryConfiguration struct {
	Path          string `json:"path"`
	CapacityBytes int64  `json:"capacityBytes"`
}

// TierConfiguration describes a storage tier. Tiers are listed from
// fastest to slowest.
type TierConfiguration struct {
	// Alias of the tier, such as "MEM", "SSD" or "HDD".
	Alias string `json:"alias"`
	// Medium type reported for directories in this tier. Defaults
	// to the alias of the tier.
	MediumType  string                   `json:"mediumType,omitempty"`
	Directories []DirectoryConfiguration `json:"directories"`
}

// TieredBlockStoreConfiguration describes the layout and policies of
// the tiered block store.
type TieredBlockStoreConfiguration struct {
	Tiers []TierConfiguration `json:"tiers"`

	// Cache replacement policy used to select eviction candidates
	// within a directory: FIRST_IN_FIRST_OUT, LEAST_RECENTLY_USED or
	// RANDOM_REPLACEMENT.
	EvictionPolicy string `json:"evictionPolicy,omitempty"`

	// Directory selection policy used when creating blocks:
	// MAX_FREE, ROUND_ROBIN or GREEDY.
	Allocator string `json:"allocator,omitempty"`

	// Maximum amount of time to wait for a block lock.
	LockTimeout *util.Duration `json:"lockTimeout,omitempty"`

	// Maximum number of concurrent shared locks per block.
	MaximumReadersPerBlock int64 `json:"maximumReadersPerBlock,omitempty"`

	// Space reserved for a temporary block when it is created.
	DefaultReservationBytes int64 `json:"defaultReservationBytes,omitempty"`
}
