package blockworker_test

import (
	"testing"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/blockworker"
	"github.com/stretchr/testify/require"
)

var (
	memLocation = blockstore.BlockStoreLocation{TierAlias: "MEM", DirIndex: 0, MediumType: "MEM"}
	ssdLocation = blockstore.BlockStoreLocation{TierAlias: "SSD", DirIndex: 1, MediumType: "SSD"}
)

func TestBlockHeartbeatReporter(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		reporter := blockworker.NewBlockHeartbeatReporter()
		report := reporter.GenerateReport()
		require.True(t, report.IsEmpty())
	})

	t.Run("AddedBlocksAreSorted", func(t *testing.T) {
		reporter := blockworker.NewBlockHeartbeatReporter()
		reporter.OnCommitBlock(3, memLocation)
		reporter.OnCommitBlock(1, memLocation)
		reporter.OnCommitBlock(2, ssdLocation)

		report := reporter.GenerateReport()
		require.Equal(t, map[string][]blockstore.BlockID{
			"MEM": {1, 3},
			"SSD": {2},
		}, report.AddedBlocks)
		require.Empty(t, report.RemovedBlocks)

		// Generating a report clears all changes.
		require.True(t, reporter.GenerateReport().IsEmpty())
	})

	t.Run("MoveReplacesTier", func(t *testing.T) {
		reporter := blockworker.NewBlockHeartbeatReporter()
		reporter.OnCommitBlock(1, memLocation)
		reporter.OnMoveBlock(1, memLocation, ssdLocation)

		report := reporter.GenerateReport()
		require.Equal(t, map[string][]blockstore.BlockID{
			"SSD": {1},
		}, report.AddedBlocks)
	})

	t.Run("RemoveAfterCommit", func(t *testing.T) {
		reporter := blockworker.NewBlockHeartbeatReporter()
		reporter.OnCommitBlock(1, memLocation)
		reporter.OnRemoveBlock(1, memLocation)
		reporter.OnBlockLost(5)

		report := reporter.GenerateReport()
		require.Empty(t, report.AddedBlocks)
		require.Equal(t, []blockstore.BlockID{1, 5}, report.RemovedBlocks)
	})

	t.Run("CommitAfterRemove", func(t *testing.T) {
		reporter := blockworker.NewBlockHeartbeatReporter()
		reporter.OnRemoveBlock(1, memLocation)
		reporter.OnCommitBlock(1, ssdLocation)

		report := reporter.GenerateReport()
		require.Equal(t, map[string][]blockstore.BlockID{
			"SSD": {1},
		}, report.AddedBlocks)
		require.Empty(t, report.RemovedBlocks)
	})

	t.Run("StorageLost", func(t *testing.T) {
		reporter := blockworker.NewBlockHeartbeatReporter()
		reporter.OnStorageLost("SSD", "/mnt/ssd0")
		reporter.OnStorageLost("SSD", "/mnt/ssd1")

		report := reporter.GenerateReport()
		require.Equal(t, map[string][]string{
			"SSD": {"/mnt/ssd0", "/mnt/ssd1"},
		}, report.LostStorage)
	})

	t.Run("MergeBack", func(t *testing.T) {
		reporter := blockworker.NewBlockHeartbeatReporter()
		reporter.OnCommitBlock(1, memLocation)
		reporter.OnCommitBlock(2, memLocation)
		reporter.OnRemoveBlock(3, memLocation)
		reporter.OnStorageLost("SSD", "/mnt/ssd0")
		failedReport := reporter.GenerateReport()

		// Changes made after the report was generated should
		// not be overwritten by merging the report back.
		reporter.OnRemoveBlock(2, memLocation)
		reporter.OnCommitBlock(3, ssdLocation)
		reporter.OnCommitBlock(4, ssdLocation)
		reporter.OnStorageLost("SSD", "/mnt/ssd1")
		reporter.MergeBack(failedReport)

		report := reporter.GenerateReport()
		require.Equal(t, map[string][]blockstore.BlockID{
			"MEM": {1},
			"SSD": {3, 4},
		}, report.AddedBlocks)
		require.Equal(t, []blockstore.BlockID{2}, report.RemovedBlocks)
		require.Equal(t, map[string][]string{
			"SSD": {"/mnt/ssd0", "/mnt/ssd1"},
		}, report.LostStorage)
	})
}
