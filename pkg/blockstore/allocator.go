package blockstore

import (
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Allocator selects the directory in which space for a block is
// reserved.
type Allocator interface {
	// Allocate returns a directory matching the location that has
	// at least size bytes available. Tiers are considered from
	// fastest to slowest, returning a directory from the first
	// tier that has one. Nil is returned if no directory has
	// sufficient space.
	Allocate(tiers []*StorageTier, location BlockStoreLocation, size int64) *StorageDir
}

// candidateDirs returns the directories of a tier that match a
// location and have sufficient space.
func candidateDirs(tier *StorageTier, location BlockStoreLocation, size int64) []*StorageDir {
	var dirs []*StorageDir
	for _, dir := range tier.dirs {
		if dir.Location().BelongsTo(location) && dir.availableBytes >= size {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

type maxFreeAllocator struct{}

// NewMaxFreeAllocator creates an Allocator that selects the directory
// with the most available space within the first tier that has
// sufficient space.
func NewMaxFreeAllocator() Allocator {
	return maxFreeAllocator{}
}

func (maxFreeAllocator) Allocate(tiers []*StorageTier, location BlockStoreLocation, size int64) *StorageDir {
	for _, tier := range tiers {
		var best *StorageDir
		for _, dir := range candidateDirs(tier, location, size) {
			if best == nil || dir.availableBytes > best.availableBytes {
				best = dir
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

type greedyAllocator struct{}

// NewGreedyAllocator creates an Allocator that selects the first
// directory that has sufficient space.
func NewGreedyAllocator() Allocator {
	return greedyAllocator{}
}

func (greedyAllocator) Allocate(tiers []*StorageTier, location BlockStoreLocation, size int64) *StorageDir {
	for _, tier := range tiers {
		if dirs := candidateDirs(tier, location, size); len(dirs) > 0 {
			return dirs[0]
		}
	}
	return nil
}

type roundRobinAllocator struct {
	lock sync.Mutex
	// Index of the directory that was selected last, per tier.
	lastDirIndex map[string]int
}

// NewRoundRobinAllocator creates an Allocator that cycles through the
// directories of a tier, skipping directories that have insufficient
// space.
func NewRoundRobinAllocator() Allocator {
	return &roundRobinAllocator{
		lastDirIndex: map[string]int{},
	}
}

func (a *roundRobinAllocator) Allocate(tiers []*StorageTier, location BlockStoreLocation, size int64) *StorageDir {
	a.lock.Lock()
	defer a.lock.Unlock()

	for _, tier := range tiers {
		dirs := candidateDirs(tier, location, size)
		if len(dirs) == 0 {
			continue
		}
		last, ok := a.lastDirIndex[tier.alias]
		selected := dirs[0]
		if ok {
			for _, dir := range dirs {
				if dir.index > last {
					selected = dir
					break
				}
			}
		}
		a.lastDirIndex[tier.alias] = selected.index
		return selected
	}
	return nil
}

// NewAllocatorFromConfiguration creates an Allocator based on its name
// in a configuration file. An empty name selects MAX_FREE.
func NewAllocatorFromConfiguration(name string) (Allocator, error) {
	switch name {
	case "MAX_FREE", "":
		return NewMaxFreeAllocator(), nil
	case "ROUND_ROBIN":
		return NewRoundRobinAllocator(), nil
	case "GREEDY":
		return NewGreedyAllocator(), nil
	default:
		return nil, status.Errorf(codes.InvalidArgument, "Unknown allocator %#v", name)
	}
}
