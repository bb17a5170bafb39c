package blockstore

import (
	"fmt"
	"os"
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/clock"
	pb "github.com/buildbarn/bb-blockworker/pkg/configuration/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/eviction"
	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultLockTimeout            = time.Minute
	defaultMaximumReadersPerBlock = 1024
)

// NewTieredBlockStoreFromConfiguration creates a tiered block store
// from a configuration file. Storage directories are created if they
// do not exist, while blocks already present in them are retained.
func NewTieredBlockStoreFromConfiguration(configuration *pb.TieredBlockStoreConfiguration, clock clock.Clock) (BlockStore, error) {
	if len(configuration.Tiers) == 0 {
		return nil, status.Error(codes.InvalidArgument, "No storage tiers configured")
	}
	policy := eviction.CacheReplacementPolicy(configuration.EvictionPolicy)
	if _, err := eviction.NewSetFromConfiguration[BlockID](policy); err != nil {
		return nil, err
	}
	allocator, err := NewAllocatorFromConfiguration(configuration.Allocator)
	if err != nil {
		return nil, err
	}

	var tiers []*StorageTier
	closeTiers := func() {
		for _, tier := range tiers {
			for _, dir := range tier.dirs {
				dir.close()
			}
		}
	}
	for _, tierConfiguration := range configuration.Tiers {
		tier := NewStorageTier(tierConfiguration.Alias, tierConfiguration.MediumType)
		tiers = append(tiers, tier)
		if len(tierConfiguration.Directories) == 0 {
			closeTiers()
			return nil, status.Errorf(codes.InvalidArgument, "Storage tier %#v has no directories", tierConfiguration.Alias)
		}
		for i, dirConfiguration := range tierConfiguration.Directories {
			if dirConfiguration.CapacityBytes <= 0 {
				closeTiers()
				return nil, status.Errorf(codes.InvalidArgument, "Directory %#v has invalid capacity %d", dirConfiguration.Path, dirConfiguration.CapacityBytes)
			}
			if err := os.MkdirAll(dirConfiguration.Path, 0o777); err != nil {
				closeTiers()
				return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to create storage directory %#v", dirConfiguration.Path)
			}
			evictionSet, err := eviction.NewSetFromConfiguration[BlockID](policy)
			if err != nil {
				closeTiers()
				return nil, err
			}
			evictionSet = eviction.NewMetricsSet(evictionSet, fmt.Sprintf("%s_%d", tier.alias, i))
			if _, err := tier.AddDir(dirConfiguration.Path, dirConfiguration.CapacityBytes, evictionSet); err != nil {
				closeTiers()
				return nil, err
			}
		}
	}

	metadata, err := NewBlockMetadataManager(tiers)
	if err != nil {
		closeTiers()
		return nil, err
	}
	maximumReaders := configuration.MaximumReadersPerBlock
	if maximumReaders <= 0 {
		maximumReaders = defaultMaximumReadersPerBlock
	}
	return NewTieredBlockStore(
		metadata,
		NewBlockLockManager(maximumReaders),
		allocator,
		clock,
		configuration.LockTimeout.AsDuration(defaultLockTimeout),
	), nil
}
