package blockstore_test

import (
	"testing"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/eviction"
	"github.com/buildbarn/bb-blockworker/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// newTestTiers creates a MEM tier with directories of 100, 300 and 200
// bytes and an SSD tier with a single directory of 1000 bytes.
func newTestTiers(t *testing.T) (*blockstore.BlockMetadataManager, []*blockstore.StorageTier) {
	mem := blockstore.NewStorageTier("MEM", "")
	for _, capacity := range []int64{100, 300, 200} {
		_, err := mem.AddDir(t.TempDir(), capacity, eviction.NewLRUSet[blockstore.BlockID]())
		require.NoError(t, err)
	}
	ssd := blockstore.NewStorageTier("SSD", "")
	_, err := ssd.AddDir(t.TempDir(), 1000, eviction.NewLRUSet[blockstore.BlockID]())
	require.NoError(t, err)

	tiers := []*blockstore.StorageTier{mem, ssd}
	metadata, err := blockstore.NewBlockMetadataManager(tiers)
	require.NoError(t, err)
	return metadata, tiers
}

func TestMaxFreeAllocator(t *testing.T) {
	_, tiers := newTestTiers(t)
	allocator := blockstore.NewMaxFreeAllocator()

	require.Equal(t, 1, allocator.Allocate(tiers, blockstore.AnyTierLocation(), 50).Index())
	require.Equal(t, 1, allocator.Allocate(tiers, blockstore.AnyDirInTier("MEM"), 250).Index())
	require.Equal(t, "SSD", allocator.Allocate(tiers, blockstore.AnyTierLocation(), 400).Tier().Alias())
	require.Nil(t, allocator.Allocate(tiers, blockstore.AnyDirInTier("MEM"), 400))
	require.Equal(t, 2, allocator.Allocate(tiers, blockstore.BlockStoreLocation{TierAlias: "MEM", DirIndex: 2, MediumType: "MEM"}, 50).Index())
}

func TestGreedyAllocator(t *testing.T) {
	_, tiers := newTestTiers(t)
	allocator := blockstore.NewGreedyAllocator()

	require.Equal(t, 0, allocator.Allocate(tiers, blockstore.AnyTierLocation(), 50).Index())
	require.Equal(t, 1, allocator.Allocate(tiers, blockstore.AnyTierLocation(), 150).Index())
	require.Equal(t, "SSD", allocator.Allocate(tiers, blockstore.AnyDirInTier("SSD"), 50).Tier().Alias())
	require.Nil(t, allocator.Allocate(tiers, blockstore.AnyTierLocation(), 5000))
}

func TestRoundRobinAllocator(t *testing.T) {
	metadata, tiers := newTestTiers(t)
	allocator := blockstore.NewRoundRobinAllocator()

	var indices []int
	for i := 0; i < 4; i++ {
		indices = append(indices, allocator.Allocate(tiers, blockstore.AnyDirInTier("MEM"), 10).Index())
	}
	require.Equal(t, []int{0, 1, 2, 0}, indices)

	// Directories with insufficient space are skipped.
	_, err := metadata.AddTempBlockMeta(tiers[0].Dirs()[1], 1, 1, 250)
	require.NoError(t, err)
	indices = nil
	for i := 0; i < 3; i++ {
		indices = append(indices, allocator.Allocate(tiers, blockstore.AnyDirInTier("MEM"), 60).Index())
	}
	require.Equal(t, []int{2, 0, 2}, indices)
}

func TestNewAllocatorFromConfiguration(t *testing.T) {
	for _, name := range []string{"", "MAX_FREE", "ROUND_ROBIN", "GREEDY"} {
		_, err := blockstore.NewAllocatorFromConfiguration(name)
		require.NoError(t, err)
	}
	_, err := blockstore.NewAllocatorFromConfiguration("RANDOM")
	testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Unknown allocator \"RANDOM\""), err)
}

func TestBlockMetadataManager(t *testing.T) {
	metadata, tiers := newTestTiers(t)
	dir := tiers[0].Dirs()[0]

	t.Run("Reservation", func(t *testing.T) {
		tm, err := metadata.AddTempBlockMeta(dir, 1, 10, 60)
		require.NoError(t, err)
		require.Equal(t, int64(40), dir.AvailableBytes())

		_, err = metadata.AddTempBlockMeta(dir, 2, 10, 10)
		require.Equal(t, codes.AlreadyExists, status.Code(err))
		_, err = metadata.AddTempBlockMeta(dir, 2, 11, 50)
		require.Equal(t, codes.ResourceExhausted, status.Code(err))

		require.Equal(t, codes.ResourceExhausted, status.Code(metadata.ResizeTempBlockMeta(tm, 101)))
		require.NoError(t, metadata.ResizeTempBlockMeta(tm, 100))
		require.Equal(t, int64(0), dir.AvailableBytes())
		require.Equal(t, []*blockstore.TempBlockMeta{tm}, metadata.GetSessionTempBlocks(1))

		bm, err := metadata.CommitTempBlockMeta(tm, 70)
		require.NoError(t, err)
		require.Equal(t, int64(30), dir.AvailableBytes())
		require.Equal(t, int64(70), dir.CommittedBytes())
		require.Equal(t, dir.Location(), bm.Location())
		require.Empty(t, metadata.GetSessionTempBlocks(1))
		require.False(t, metadata.HasTempBlockMeta(10))
		require.True(t, metadata.HasBlockMeta(10))
	})

	t.Run("Move", func(t *testing.T) {
		bm, err := metadata.GetBlockMeta(10)
		require.NoError(t, err)
		destination := tiers[1].Dirs()[0]
		tm, err := metadata.AddTempBlockMeta(destination, blockstore.MigrationSessionID, 10, bm.BlockSize())
		require.NoError(t, err)

		newBM, err := metadata.MoveBlockMeta(bm, tm)
		require.NoError(t, err)
		require.Equal(t, "SSD", newBM.Location().TierAlias)
		require.Equal(t, int64(100), dir.AvailableBytes())
		require.Equal(t, int64(930), destination.AvailableBytes())
		require.Equal(t, map[string]int64{"MEM": 0, "SSD": 70}, metadata.GetUsedBytesOnTiers())
	})

	t.Run("RemoveDir", func(t *testing.T) {
		destination := tiers[1].Dirs()[0]
		_, err := metadata.AddTempBlockMeta(destination, 3, 20, 10)
		require.NoError(t, err)

		require.Equal(t, []blockstore.BlockID{10}, metadata.RemoveDir(destination))
		require.False(t, metadata.HasBlockMeta(10))
		require.False(t, metadata.HasTempBlockMeta(20))
		require.Empty(t, tiers[1].Dirs())
		require.Equal(t, []string{destination.Path()}, tiers[1].LostStorage())
		require.Equal(t, int64(600), metadata.GetCapacityBytes())
	})

	t.Run("GetBlockMeta", func(t *testing.T) {
		_, err := metadata.GetBlockMeta(12345)
		testutil.RequireEqualStatus(t, status.Error(codes.NotFound, "Block 12345 does not exist"), err)
		_, err = metadata.GetTier("HDD")
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Unknown storage tier \"HDD\""), err)
	})
}
