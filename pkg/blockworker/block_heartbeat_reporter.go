package blockworker

import (
	"sync"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
)

// BlockHeartbeatReport contains the changes to the contents of a
// block store that have not yet been reported to the master.
type BlockHeartbeatReport struct {
	// Blocks that were committed or moved, keyed by the alias of
	// the tier in which they are now stored.
	AddedBlocks map[string][]blockstore.BlockID
	// Blocks that were removed or lost.
	RemovedBlocks []blockstore.BlockID
	// Directories that became inaccessible, keyed by tier alias.
	LostStorage map[string][]string
}

// IsEmpty returns true if the report contains no changes.
func (r BlockHeartbeatReport) IsEmpty() bool {
	return len(r.AddedBlocks) == 0 && len(r.RemovedBlocks) == 0 && len(r.LostStorage) == 0
}

func blockIDComparator(a, b interface{}) int {
	return utils.Int64Comparator(int64(a.(blockstore.BlockID)), int64(b.(blockstore.BlockID)))
}

func newBlockIDSet() *treeset.Set {
	return treeset.NewWith(blockIDComparator)
}

func blockIDSetValues(set *treeset.Set) []blockstore.BlockID {
	var blockIDs []blockstore.BlockID
	for _, value := range set.Values() {
		blockIDs = append(blockIDs, value.(blockstore.BlockID))
	}
	return blockIDs
}

// BlockHeartbeatReporter is a BlockStoreEventListener that accumulates
// the changes to a block store, so that they can be sent to the master
// as part of the next heartbeat.
type BlockHeartbeatReporter struct {
	blockstore.BaseBlockStoreEventListener

	lock          sync.Mutex
	addedBlocks   map[string]*treeset.Set
	removedBlocks *treeset.Set
	lostStorage   map[string][]string
}

var _ blockstore.BlockStoreEventListener = (*BlockHeartbeatReporter)(nil)

// NewBlockHeartbeatReporter creates a BlockHeartbeatReporter that has
// no changes recorded.
func NewBlockHeartbeatReporter() *BlockHeartbeatReporter {
	return &BlockHeartbeatReporter{
		addedBlocks:   map[string]*treeset.Set{},
		removedBlocks: newBlockIDSet(),
		lostStorage:   map[string][]string{},
	}
}

// removeFromAddedBlocks removes a block from the added block lists of
// all tiers. The caller must hold the lock.
func (r *BlockHeartbeatReporter) removeFromAddedBlocks(blockID blockstore.BlockID) {
	for tierAlias, blockIDs := range r.addedBlocks {
		blockIDs.Remove(blockID)
		if blockIDs.Empty() {
			delete(r.addedBlocks, tierAlias)
		}
	}
}

func (r *BlockHeartbeatReporter) addToAddedBlocks(blockID blockstore.BlockID, tierAlias string) {
	blockIDs, ok := r.addedBlocks[tierAlias]
	if !ok {
		blockIDs = newBlockIDSet()
		r.addedBlocks[tierAlias] = blockIDs
	}
	blockIDs.Add(blockID)
}

func (r *BlockHeartbeatReporter) markAdded(blockID blockstore.BlockID, location blockstore.BlockStoreLocation) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.removedBlocks.Remove(blockID)
	r.removeFromAddedBlocks(blockID)
	r.addToAddedBlocks(blockID, location.TierAlias)
}

func (r *BlockHeartbeatReporter) markRemoved(blockID blockstore.BlockID) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.removeFromAddedBlocks(blockID)
	r.removedBlocks.Add(blockID)
}

// OnCommitBlock records that a block has been added.
func (r *BlockHeartbeatReporter) OnCommitBlock(blockID blockstore.BlockID, location blockstore.BlockStoreLocation) {
	r.markAdded(blockID, location)
}

// OnMoveBlock records that a block is now stored in another tier.
func (r *BlockHeartbeatReporter) OnMoveBlock(blockID blockstore.BlockID, oldLocation, newLocation blockstore.BlockStoreLocation) {
	r.markAdded(blockID, newLocation)
}

// OnRemoveBlock records that a block has been removed.
func (r *BlockHeartbeatReporter) OnRemoveBlock(blockID blockstore.BlockID, location blockstore.BlockStoreLocation) {
	r.markRemoved(blockID)
}

// OnBlockLost records that a block is no longer accessible.
func (r *BlockHeartbeatReporter) OnBlockLost(blockID blockstore.BlockID) {
	r.markRemoved(blockID)
}

// OnStorageLost records that a directory is no longer accessible.
func (r *BlockHeartbeatReporter) OnStorageLost(tierAlias, dirPath string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.lostStorage[tierAlias] = append(r.lostStorage[tierAlias], dirPath)
}

// GenerateReport returns all changes that were recorded since the
// previous call, and clears them.
func (r *BlockHeartbeatReporter) GenerateReport() BlockHeartbeatReport {
	r.lock.Lock()
	defer r.lock.Unlock()

	report := BlockHeartbeatReport{
		AddedBlocks:   make(map[string][]blockstore.BlockID, len(r.addedBlocks)),
		RemovedBlocks: blockIDSetValues(r.removedBlocks),
		LostStorage:   r.lostStorage,
	}
	for tierAlias, blockIDs := range r.addedBlocks {
		report.AddedBlocks[tierAlias] = blockIDSetValues(blockIDs)
	}

	r.addedBlocks = map[string]*treeset.Set{}
	r.removedBlocks.Clear()
	r.lostStorage = map[string][]string{}
	return report
}

// MergeBack reinserts a report that could not be delivered to the
// master. Changes that were recorded after the report was generated
// take precedence over the ones contained in the report.
func (r *BlockHeartbeatReporter) MergeBack(report BlockHeartbeatReport) {
	r.lock.Lock()
	defer r.lock.Unlock()

	isKnown := func(blockID blockstore.BlockID) bool {
		if r.removedBlocks.Contains(blockID) {
			return true
		}
		for _, blockIDs := range r.addedBlocks {
			if blockIDs.Contains(blockID) {
				return true
			}
		}
		return false
	}

	addedBlocks := map[string][]blockstore.BlockID{}
	for tierAlias, blockIDs := range report.AddedBlocks {
		for _, blockID := range blockIDs {
			if !isKnown(blockID) {
				addedBlocks[tierAlias] = append(addedBlocks[tierAlias], blockID)
			}
		}
	}
	var removedBlocks []blockstore.BlockID
	for _, blockID := range report.RemovedBlocks {
		if !isKnown(blockID) {
			removedBlocks = append(removedBlocks, blockID)
		}
	}

	for tierAlias, blockIDs := range addedBlocks {
		for _, blockID := range blockIDs {
			r.addToAddedBlocks(blockID, tierAlias)
		}
	}
	for _, blockID := range removedBlocks {
		r.removedBlocks.Add(blockID)
	}
	for tierAlias, dirPaths := range report.LostStorage {
		r.lostStorage[tierAlias] = append(append([]string(nil), dirPaths...), r.lostStorage[tierAlias]...)
	}
}
