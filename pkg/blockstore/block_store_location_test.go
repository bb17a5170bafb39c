package blockstore_test

import (
	"testing"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/stretchr/testify/require"
)

func TestBlockStoreLocationBelongsTo(t *testing.T) {
	mem0 := blockstore.BlockStoreLocation{TierAlias: "MEM", DirIndex: 0, MediumType: "MEM"}
	ssd1 := blockstore.BlockStoreLocation{TierAlias: "SSD", DirIndex: 1, MediumType: "SSD"}

	require.True(t, mem0.BelongsTo(blockstore.AnyTierLocation()))
	require.True(t, mem0.BelongsTo(blockstore.AnyDirInTier("MEM")))
	require.True(t, mem0.BelongsTo(mem0))
	require.True(t, ssd1.BelongsTo(blockstore.AnyDirInAnyTierWithMedium("SSD")))

	require.False(t, mem0.BelongsTo(blockstore.AnyDirInTier("SSD")))
	require.False(t, mem0.BelongsTo(ssd1))
	require.False(t, mem0.BelongsTo(blockstore.AnyDirInAnyTierWithMedium("SSD")))
	require.False(t, blockstore.AnyTierLocation().BelongsTo(mem0))
}

func TestBlockStoreLocationString(t *testing.T) {
	require.Equal(t, "any dir in any tier", blockstore.AnyTierLocation().String())
	require.Equal(t, "any dir in SSD", blockstore.AnyDirInTier("SSD").String())
	require.Equal(t, "MEM dir 2", blockstore.BlockStoreLocation{TierAlias: "MEM", DirIndex: 2}.String())
}

func TestBlockIDContainerID(t *testing.T) {
	require.Equal(t, int64(0), blockstore.BlockID(12).ContainerID())
	require.Equal(t, int64(3), blockstore.BlockID(3<<24|7).ContainerID())
	require.Equal(t, "50331655", blockstore.BlockID(3<<24|7).String())
}
