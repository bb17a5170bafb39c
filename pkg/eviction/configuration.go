package eviction

import (
	"github.com/buildbarn/bb-blockworker/pkg/random"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CacheReplacementPolicy is the name of a cache replacement policy, as
// it may be provided in configuration files.
type CacheReplacementPolicy string

const (
	// FirstInFirstOut evicts values in the order in which they were
	// inserted.
	FirstInFirstOut CacheReplacementPolicy = "FIRST_IN_FIRST_OUT"
	// LeastRecentlyUsed evicts the value that has not been touched
	// for the longest amount of time.
	LeastRecentlyUsed CacheReplacementPolicy = "LEAST_RECENTLY_USED"
	// RandomReplacement evicts values in random order.
	RandomReplacement CacheReplacementPolicy = "RANDOM_REPLACEMENT"
)

// NewSetFromConfiguration creates a new cache replacement set using an
// algorithm specified in a configuration file. An empty policy name
// selects Least Recently Used.
func NewSetFromConfiguration[T comparable](cacheReplacementPolicy CacheReplacementPolicy) (Set[T], error) {
	switch cacheReplacementPolicy {
	case FirstInFirstOut:
		return NewFIFOSet[T](), nil
	case LeastRecentlyUsed, "":
		return NewLRUSet[T](), nil
	case RandomReplacement:
		return NewRRSet[T](random.NewFastSingleThreadedGenerator()), nil
	default:
		return nil, status.Errorf(codes.InvalidArgument, "Unknown cache replacement policy %#v", string(cacheReplacementPolicy))
	}
}
