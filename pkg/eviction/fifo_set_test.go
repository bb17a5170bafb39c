package eviction_test

import (
	"slices"
	"testing"

	"github.com/buildbarn/bb-blockworker/pkg/eviction"
	"github.com/stretchr/testify/require"
)

func TestFIFOSetExample(t *testing.T) {
	set := eviction.NewFIFOSet[int64]()

	blocks := []int64{16777216, 3, 1 << 40, 42, 7, 99, 12, 1000}
	for _, block := range blocks {
		set.Insert(block)
	}

	// Touching should have no effect, as First In First Out only
	// respects insertion order.
	set.Touch(42)
	set.Touch(1000)
	require.Equal(t, blocks, slices.Collect(set.All()))

	// Blocks that are removed explicitly should no longer be
	// returned.
	set.Delete(16777216)
	set.Delete(99)
	set.Delete(12345)
	require.Equal(t, 6, set.Len())

	for _, block := range []int64{3, 1 << 40, 42, 7, 12, 1000} {
		require.Equal(t, block, set.Peek())
		require.Equal(t, block, set.Peek())
		set.Remove()
	}
	require.Equal(t, 0, set.Len())

	// The set must remain usable after being drained.
	set.Insert(5)
	require.Equal(t, int64(5), set.Peek())
}
