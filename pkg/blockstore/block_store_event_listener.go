package blockstore

// BlockStoreEventListener is notified of changes to the contents of a
// BlockStore. Notifications are delivered synchronously, in the order
// in which the changes occurred, on the goroutine that performed the
// change. Implementations must not block and must not call back into
// the BlockStore.
type BlockStoreEventListener interface {
	OnAccessBlock(blockID BlockID, location BlockStoreLocation)
	OnCommitBlock(blockID BlockID, location BlockStoreLocation)
	OnAbortBlock(blockID BlockID)
	OnMoveBlock(blockID BlockID, oldLocation, newLocation BlockStoreLocation)
	OnRemoveBlock(blockID BlockID, location BlockStoreLocation)
	// OnBlockLost is called for blocks that were stored in a
	// directory that became inaccessible.
	OnBlockLost(blockID BlockID)
	OnStorageLost(tierAlias, dirPath string)
}

// BaseBlockStoreEventListener implements all methods of
// BlockStoreEventListener as no-ops. It can be embedded into listeners
// that are only interested in a subset of the events.
type BaseBlockStoreEventListener struct{}

var _ BlockStoreEventListener = BaseBlockStoreEventListener{}

func (BaseBlockStoreEventListener) OnAccessBlock(blockID BlockID, location BlockStoreLocation) {}

func (BaseBlockStoreEventListener) OnCommitBlock(blockID BlockID, location BlockStoreLocation) {}

func (BaseBlockStoreEventListener) OnAbortBlock(blockID BlockID) {}

func (BaseBlockStoreEventListener) OnMoveBlock(blockID BlockID, oldLocation, newLocation BlockStoreLocation) {
}

func (BaseBlockStoreEventListener) OnRemoveBlock(blockID BlockID, location BlockStoreLocation) {}

func (BaseBlockStoreEventListener) OnBlockLost(blockID BlockID) {}

func (BaseBlockStoreEventListener) OnStorageLost(tierAlias, dirPath string) {}
