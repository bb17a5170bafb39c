package blockstore

import (
	"context"
	"io"
)

// AllocateOptions control where space is allocated for a block.
type AllocateOptions struct {
	// Location in which the block should preferably be stored.
	Location BlockStoreLocation
	// Amount of space to reserve initially. Additional space may
	// be requested while writing.
	InitialBytes int64
	// When set, allocation fails instead of falling back to lower
	// tiers if Location has insufficient space.
	ForceLocation bool
}

// BlockInfo is a snapshot of the metadata of a committed block.
type BlockInfo struct {
	BlockID   BlockID
	BlockSize int64
	Location  BlockStoreLocation
	Path      string
}

// StorageDirMeta describes the usage of a single storage directory.
type StorageDirMeta struct {
	Location       BlockStoreLocation `json:"location"`
	Path           string             `json:"path"`
	CapacityBytes  int64              `json:"capacityBytes"`
	UsedBytes      int64              `json:"usedBytes"`
	CommittedBytes int64              `json:"committedBytes"`
	AvailableBytes int64              `json:"availableBytes"`
	BlockIDs       []BlockID          `json:"blockIds,omitempty"`
}

// BlockStoreMeta summarizes the capacity and contents of a block
// store.
type BlockStoreMeta struct {
	CapacityBytesOnTiers map[string]int64    `json:"capacityBytesOnTiers"`
	UsedBytesOnTiers     map[string]int64    `json:"usedBytesOnTiers"`
	Directories          []StorageDirMeta    `json:"directories"`
	LostStorage          map[string][]string `json:"lostStorage,omitempty"`
	NumberOfBlocks       int                 `json:"numberOfBlocks"`
	NumberOfTempBlocks   int                 `json:"numberOfTempBlocks"`
}

// GetCapacityBytes returns the capacity of all tiers combined.
func (m BlockStoreMeta) GetCapacityBytes() int64 {
	var total int64
	for _, capacity := range m.CapacityBytesOnTiers {
		total += capacity
	}
	return total
}

// GetUsedBytes returns the usage of all tiers combined.
func (m BlockStoreMeta) GetUsedBytes() int64 {
	var total int64
	for _, used := range m.UsedBytesOnTiers {
		total += used
	}
	return total
}

// GetBlockIDs returns the IDs of all blocks, grouped by location. It
// only returns results for metadata obtained through
// GetBlockStoreMetaFull().
func (m BlockStoreMeta) GetBlockIDs() map[BlockStoreLocation][]BlockID {
	blockIDs := map[BlockStoreLocation][]BlockID{}
	for _, dir := range m.Directories {
		if len(dir.BlockIDs) > 0 {
			blockIDs[dir.Location] = dir.BlockIDs
		}
	}
	return blockIDs
}

// BlockReader provides access to the contents of a committed block.
// Sequential reads through Read() start at the offset provided when
// the reader was created. The block remains locked until the reader
// is closed.
type BlockReader interface {
	io.Reader
	io.ReaderAt
	io.Closer

	// Length of the block in bytes.
	Length() int64
}

// BlockWriter appends data to a temporary block. Space for the data
// is reserved automatically.
type BlockWriter interface {
	io.Writer
	io.Closer

	// Position returns the number of bytes written.
	Position() int64
}

// BlockStore stores blocks on local media. All operations are safe to
// invoke concurrently.
type BlockStore interface {
	// LockBlock obtains a shared lock on a committed block.
	LockBlock(ctx context.Context, sessionID SessionID, blockID BlockID) (LockID, error)
	// TryLockBlock obtains a lock on a block without blocking,
	// returning InvalidLockID if the lock cannot be granted or the
	// block is not committed.
	TryLockBlock(sessionID SessionID, blockID BlockID, mode LockMode) LockID
	UnlockBlock(lockID LockID) bool
	UnlockBlockForSession(sessionID SessionID, blockID BlockID) bool

	// CreateBlock creates a temporary block owned by a session,
	// returning the location in which space was reserved.
	CreateBlock(ctx context.Context, sessionID SessionID, blockID BlockID, options AllocateOptions) (BlockStoreLocation, error)
	CommitBlock(ctx context.Context, sessionID SessionID, blockID BlockID, pinOnCreate bool) error
	AbortBlock(ctx context.Context, sessionID SessionID, blockID BlockID) error
	// RequestSpace grows the reservation of a temporary block.
	RequestSpace(ctx context.Context, sessionID SessionID, blockID BlockID, additionalBytes int64) error
	CreateBlockWriter(ctx context.Context, sessionID SessionID, blockID BlockID) (BlockWriter, error)

	CreateBlockReader(ctx context.Context, sessionID SessionID, blockID BlockID, offset int64, positionShort bool) (BlockReader, error)
	MoveBlock(ctx context.Context, sessionID SessionID, blockID BlockID, options AllocateOptions) error
	RemoveBlock(ctx context.Context, sessionID SessionID, blockID BlockID) error
	// AccessBlock marks a block as recently used.
	AccessBlock(sessionID SessionID, blockID BlockID) error

	HasBlockMeta(blockID BlockID) bool
	HasTempBlockMeta(blockID BlockID) bool
	GetBlockInfo(blockID BlockID) (BlockInfo, error)
	GetBlockStoreMeta() BlockStoreMeta
	GetBlockStoreMetaFull() BlockStoreMeta

	// CleanupSession releases all locks held by a session and
	// aborts its temporary blocks.
	CleanupSession(sessionID SessionID)
	// UpdatePinnedInodes replaces the set of containers whose
	// blocks may not be evicted.
	UpdatePinnedInodes(inodes []int64)
	// RemoveInaccessibleStorage removes directories that can no
	// longer be accessed, returning their paths.
	RemoveInaccessibleStorage() ([]string, error)

	RegisterBlockStoreEventListener(listener BlockStoreEventListener)
	Close() error
}
