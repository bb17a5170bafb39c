package blockstore

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/clock"
	"github.com/buildbarn/bb-blockworker/pkg/filesystem"
	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type blockStoreEvent func(listener BlockStoreEventListener)

type tieredBlockStore struct {
	clock       clock.Clock
	lockTimeout time.Duration
	allocator   Allocator
	lockManager BlockLockManager

	// Held exclusively while directories are removed from the
	// store, and shared by all operations that allocate space or
	// modify files.
	maintenanceLock sync.RWMutex

	metadataLock sync.RWMutex
	metadata     *BlockMetadataManager
	pinnedInodes map[int64]struct{}
	pinnedBlocks map[BlockID]struct{}

	// Acquired before metadataLock is released, so that
	// listeners observe events in the order in which the
	// corresponding metadata changes were made.
	eventsLock sync.Mutex
	listeners  []BlockStoreEventListener
}

// NewTieredBlockStore creates a BlockStore that stores blocks in the
// directories of a set of storage tiers. When space in a directory is
// exhausted, the least valuable blocks that are neither pinned nor
// locked are moved to the next tier or removed.
func NewTieredBlockStore(metadata *BlockMetadataManager, lockManager BlockLockManager, allocator Allocator, clock clock.Clock, lockTimeout time.Duration) BlockStore {
	return &tieredBlockStore{
		clock:        clock,
		lockTimeout:  lockTimeout,
		allocator:    allocator,
		lockManager:  lockManager,
		metadata:     metadata,
		pinnedInodes: map[int64]struct{}{},
		pinnedBlocks: map[BlockID]struct{}{},
	}
}

// unlockMetadataAndNotify releases the write lock on the metadata and
// delivers events to all listeners.
func (bs *tieredBlockStore) unlockMetadataAndNotify(events ...blockStoreEvent) {
	if len(events) == 0 {
		bs.metadataLock.Unlock()
		return
	}
	bs.eventsLock.Lock()
	bs.metadataLock.Unlock()
	defer bs.eventsLock.Unlock()
	for _, event := range events {
		for _, listener := range bs.listeners {
			event(listener)
		}
	}
}

func (bs *tieredBlockStore) lockBlock(ctx context.Context, sessionID SessionID, blockID BlockID, mode LockMode) (LockID, error) {
	if bs.lockTimeout > 0 {
		ctxWithTimeout, cancel := bs.clock.NewContextWithTimeout(ctx, bs.lockTimeout)
		defer cancel()
		ctx = ctxWithTimeout
	}
	return bs.lockManager.Lock(ctx, sessionID, blockID, mode)
}

// isPinned returns whether a block may not be evicted. The lock on
// the metadata must be held.
func (bs *tieredBlockStore) isPinned(blockID BlockID) bool {
	if _, ok := bs.pinnedBlocks[blockID]; ok {
		return true
	}
	_, ok := bs.pinnedInodes[blockID.ContainerID()]
	return ok
}

func (bs *tieredBlockStore) LockBlock(ctx context.Context, sessionID SessionID, blockID BlockID) (LockID, error) {
	lockID, err := bs.lockBlock(ctx, sessionID, blockID, LockModeShared)
	if err != nil {
		return InvalidLockID, err
	}
	bs.metadataLock.RLock()
	exists := bs.metadata.HasBlockMeta(blockID)
	bs.metadataLock.RUnlock()
	if !exists {
		bs.lockManager.Unlock(lockID)
		return InvalidLockID, status.Errorf(codes.NotFound, "Block %d does not exist", blockID)
	}
	return lockID, nil
}

func (bs *tieredBlockStore) TryLockBlock(sessionID SessionID, blockID BlockID, mode LockMode) LockID {
	lockID := bs.lockManager.TryLock(sessionID, blockID, mode)
	if lockID == InvalidLockID {
		return InvalidLockID
	}
	bs.metadataLock.RLock()
	exists := bs.metadata.HasBlockMeta(blockID)
	bs.metadataLock.RUnlock()
	if !exists {
		bs.lockManager.Unlock(lockID)
		return InvalidLockID
	}
	return lockID
}

func (bs *tieredBlockStore) UnlockBlock(lockID LockID) bool {
	return bs.lockManager.Unlock(lockID)
}

func (bs *tieredBlockStore) UnlockBlockForSession(sessionID SessionID, blockID BlockID) bool {
	return bs.lockManager.UnlockBlock(sessionID, blockID)
}

// getAllocationLocations returns the locations in which allocation
// should be attempted, in order of preference.
func (bs *tieredBlockStore) getAllocationLocations(location BlockStoreLocation, forceLocation bool) ([]BlockStoreLocation, error) {
	bs.metadataLock.RLock()
	defer bs.metadataLock.RUnlock()

	var locations []BlockStoreLocation
	if location.IsAnyTier() {
		for _, tier := range bs.metadata.GetTiers() {
			locations = append(locations, BlockStoreLocation{
				TierAlias:  tier.alias,
				DirIndex:   AnyDir,
				MediumType: location.MediumType,
			})
		}
		return locations, nil
	}
	tier, err := bs.metadata.GetTier(location.TierAlias)
	if err != nil {
		return nil, err
	}
	locations = append(locations, location)
	if !forceLocation {
		for next := bs.metadata.GetNextTier(tier); next != nil; next = bs.metadata.GetNextTier(next) {
			locations = append(locations, AnyDirInTier(next.alias))
		}
	}
	return locations, nil
}

// tryReserve reserves space for a temporary block in a location
// without evicting any blocks. It returns nil if none of the
// directories in the location has sufficient space.
func (bs *tieredBlockStore) tryReserve(sessionID SessionID, blockID BlockID, location BlockStoreLocation, size int64, newBlock bool) (*TempBlockMeta, error) {
	bs.metadataLock.Lock()
	defer bs.metadataLock.Unlock()

	if newBlock {
		if bs.metadata.HasBlockMeta(blockID) {
			return nil, status.Errorf(codes.AlreadyExists, "Block %d already exists", blockID)
		}
		if bs.metadata.HasTempBlockMeta(blockID) {
			return nil, status.Errorf(codes.AlreadyExists, "Temporary block %d already exists", blockID)
		}
	}
	dir := bs.allocator.Allocate(bs.metadata.GetTiers(), location, size)
	if dir == nil {
		return nil, nil
	}
	return bs.metadata.AddTempBlockMeta(dir, sessionID, blockID, size)
}

// allocateSpace reserves space for a temporary block. Tiers are
// attempted in order. Within each tier, blocks are evicted if no
// directory has sufficient space.
func (bs *tieredBlockStore) allocateSpace(ctx context.Context, sessionID SessionID, blockID BlockID, options AllocateOptions, newBlock bool) (*TempBlockMeta, error) {
	if options.InitialBytes < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Invalid block size %d", options.InitialBytes)
	}
	locations, err := bs.getAllocationLocations(options.Location, options.ForceLocation)
	if err != nil {
		return nil, err
	}
	for _, location := range locations {
		if tm, err := bs.tryReserve(sessionID, blockID, location, options.InitialBytes, newBlock); err != nil || tm != nil {
			return tm, err
		}
		if err := bs.freeSpace(ctx, options.InitialBytes, location); err == nil {
			if tm, err := bs.tryReserve(sessionID, blockID, location, options.InitialBytes, newBlock); err != nil || tm != nil {
				return tm, err
			}
		} else if status.Code(err) != codes.ResourceExhausted {
			return nil, err
		}
	}
	return nil, status.Errorf(codes.ResourceExhausted, "Failed to allocate %d bytes for block %d in %s", options.InitialBytes, blockID, options.Location)
}

// freeSpace ensures that a directory in a location has at least size
// bytes of available space, by evicting blocks that are neither pinned
// nor locked.
func (bs *tieredBlockStore) freeSpace(ctx context.Context, size int64, location BlockStoreLocation) error {
	bs.metadataLock.RLock()
	var selected *StorageDir
	var candidates []BlockID
	for _, dir := range bs.metadata.GetDirs(location) {
		available := dir.availableBytes
		var dirCandidates []BlockID
		if available < size {
			for blockID := range dir.evictionSet.All() {
				if bs.isPinned(blockID) || bs.lockManager.IsLocked(blockID) {
					continue
				}
				dirCandidates = append(dirCandidates, blockID)
				available += dir.blocks[blockID].blockSize
				if available >= size {
					break
				}
			}
		}
		if available >= size {
			selected = dir
			candidates = dirCandidates
			break
		}
	}
	bs.metadataLock.RUnlock()

	if selected == nil {
		return status.Errorf(codes.ResourceExhausted, "Failed to free %d bytes in %s, as there are insufficient blocks that are neither pinned nor locked", size, location)
	}
	for _, blockID := range candidates {
		if err := bs.evictBlock(ctx, blockID, selected); err != nil {
			return err
		}
	}

	bs.metadataLock.RLock()
	available := selected.availableBytes
	bs.metadataLock.RUnlock()
	if available < size {
		return status.Errorf(codes.ResourceExhausted, "Failed to free %d bytes in directory %#v, as only %d bytes could be made available", size, selected.path, available)
	}
	return nil
}

// evictBlock moves a block out of a directory to the next tier, or
// removes it if the next tier has insufficient space. Blocks that were
// locked or pinned after being selected for eviction are skipped.
func (bs *tieredBlockStore) evictBlock(ctx context.Context, blockID BlockID, dir *StorageDir) error {
	lockID := bs.lockManager.TryLock(EvictorSessionID, blockID, LockModeExclusive)
	if lockID == InvalidLockID {
		return nil
	}
	defer bs.lockManager.Unlock(lockID)

	bs.metadataLock.Lock()
	bm, err := bs.metadata.GetBlockMeta(blockID)
	if err != nil || bm.dir != dir || bs.isPinned(blockID) {
		bs.metadataLock.Unlock()
		return nil
	}
	if next := bs.metadata.GetNextTier(dir.tier); next != nil {
		if destination := bs.allocator.Allocate(bs.metadata.GetTiers(), AnyDirInTier(next.alias), bm.blockSize); destination != nil {
			if tm, err := bs.metadata.AddTempBlockMeta(destination, EvictorSessionID, blockID, bm.blockSize); err == nil {
				bs.metadataLock.Unlock()
				if err := bs.moveLockedBlock(bm, tm); err == nil {
					return nil
				}
				// Fall back to removing the block.
				bs.metadataLock.Lock()
				if bm, err = bs.metadata.GetBlockMeta(blockID); err != nil || bm.dir != dir {
					bs.metadataLock.Unlock()
					return nil
				}
			}
		}
	}
	return bs.removeLockedBlock(bm)
}

// removeLockedBlock removes a committed block from the metadata and
// from storage. The caller must hold an exclusive lock on the block
// and the write lock on the metadata.
func (bs *tieredBlockStore) removeLockedBlock(bm *BlockMeta) error {
	location := bm.Location()
	bs.metadata.RemoveBlockMeta(bm)
	delete(bs.pinnedBlocks, bm.blockID)
	bs.unlockMetadataAndNotify(func(listener BlockStoreEventListener) {
		listener.OnRemoveBlock(bm.blockID, location)
	})
	if err := bm.dir.directory.Remove(bm.blockID.String()); err != nil && !os.IsNotExist(err) {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to remove block %d from directory %#v", bm.blockID, bm.dir.path)
	}
	return nil
}

// moveLockedBlock copies a committed block into the file of a
// temporary block and then makes the copy authoritative. The caller
// must hold an exclusive lock on the block, but no lock on the
// metadata.
func (bs *tieredBlockStore) moveLockedBlock(bm *BlockMeta, tm *TempBlockMeta) error {
	if err := bs.copyBlockFile(bm, tm); err != nil {
		bs.removeTempBlockFile(tm)
		bs.metadataLock.Lock()
		bs.metadata.AbortTempBlockMeta(tm)
		bs.metadataLock.Unlock()
		return err
	}

	bs.metadataLock.Lock()
	oldLocation := bm.Location()
	newBM, err := bs.metadata.MoveBlockMeta(bm, tm)
	if err != nil {
		bs.metadata.AbortTempBlockMeta(tm)
		bs.metadataLock.Unlock()
		if removeErr := tm.dir.directory.Remove(bm.blockID.String()); removeErr != nil {
			log.Printf("Failed to remove copy of block %d from directory %#v: %s", bm.blockID, tm.dir.path, removeErr)
		}
		return err
	}
	newLocation := newBM.Location()
	bs.unlockMetadataAndNotify(func(listener BlockStoreEventListener) {
		listener.OnMoveBlock(bm.blockID, oldLocation, newLocation)
	})

	if err := bm.dir.directory.Remove(bm.blockID.String()); err != nil && !os.IsNotExist(err) {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to remove block %d from directory %#v after moving it", bm.blockID, bm.dir.path)
	}
	return nil
}

// copyBlockFile copies the contents of a committed block to the
// location of a temporary block. The copy is only renamed to its final
// name after its contents have been synchronized.
func (bs *tieredBlockStore) copyBlockFile(bm *BlockMeta, tm *TempBlockMeta) error {
	src, err := bm.dir.directory.OpenRead(bm.blockID.String())
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to open block %d in directory %#v", bm.blockID, bm.dir.path)
	}
	defer src.Close()

	subdirectory, err := tm.dir.openTempBlockSubdirectory(tm)
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to open temporary block directory in %#v", tm.dir.path)
	}
	defer subdirectory.Close()

	dst, err := subdirectory.OpenWrite(tm.filename(), filesystem.CreateReuse(0o666))
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to create copy of block %d in directory %#v", bm.blockID, tm.dir.path)
	}
	n, err := io.Copy(io.NewOffsetWriter(dst, 0), io.NewSectionReader(src, 0, bm.blockSize))
	if err == nil && n != bm.blockSize {
		err = status.Errorf(codes.Internal, "Copied %d bytes, while the block has size %d", n, bm.blockSize)
	}
	if err == nil {
		err = dst.Sync()
	}
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to copy block %d to directory %#v", bm.blockID, tm.dir.path)
	}

	if err := subdirectory.Rename(tm.filename(), tm.dir.directory, bm.blockID.String()); err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to rename copy of block %d in directory %#v", bm.blockID, tm.dir.path)
	}
	if err := tm.dir.directory.Sync(); err != nil {
		// The copy no longer resides at the temporary block's
		// path, so the caller is unable to clean it up.
		if removeErr := tm.dir.directory.Remove(bm.blockID.String()); removeErr != nil {
			log.Printf("Failed to remove copy of block %d from directory %#v: %s", bm.blockID, tm.dir.path, removeErr)
		}
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to synchronize directory %#v", tm.dir.path)
	}
	return nil
}

func (bs *tieredBlockStore) createTempBlockFile(tm *TempBlockMeta) error {
	subdirectory, err := tm.dir.openTempBlockSubdirectory(tm)
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to open temporary block directory in %#v", tm.dir.path)
	}
	defer subdirectory.Close()

	f, err := subdirectory.OpenWrite(tm.filename(), filesystem.CreateReuse(0o666))
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to create temporary block %d in directory %#v", tm.blockID, tm.dir.path)
	}
	err = f.Truncate(0)
	f.Close()
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to truncate temporary block %d in directory %#v", tm.blockID, tm.dir.path)
	}
	return nil
}

func (bs *tieredBlockStore) removeTempBlockFile(tm *TempBlockMeta) {
	subdirectory, err := tm.dir.tempBlocksRoot.EnterDirectory(tm.subdirectoryName())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to open temporary block directory in %#v: %s", tm.dir.path, err)
		}
		return
	}
	defer subdirectory.Close()
	if err := subdirectory.Remove(tm.filename()); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove temporary block %d from directory %#v: %s", tm.blockID, tm.dir.path, err)
	}
}

func (bs *tieredBlockStore) CreateBlock(ctx context.Context, sessionID SessionID, blockID BlockID, options AllocateOptions) (BlockStoreLocation, error) {
	bs.maintenanceLock.RLock()
	defer bs.maintenanceLock.RUnlock()

	tm, err := bs.allocateSpace(ctx, sessionID, blockID, options, true)
	if err != nil {
		return BlockStoreLocation{}, err
	}
	if err := bs.createTempBlockFile(tm); err != nil {
		bs.metadataLock.Lock()
		bs.metadata.AbortTempBlockMeta(tm)
		bs.metadataLock.Unlock()
		return BlockStoreLocation{}, err
	}
	return tm.Location(), nil
}

// getOwnedTempBlockMeta returns the metadata of a temporary block
// owned by a session. The lock on the metadata must be held.
func (bs *tieredBlockStore) getOwnedTempBlockMeta(sessionID SessionID, blockID BlockID) (*TempBlockMeta, error) {
	tm, ok := bs.metadata.tempBlocks[blockID]
	if !ok {
		if bs.metadata.HasBlockMeta(blockID) {
			return nil, status.Errorf(codes.FailedPrecondition, "Block %d has already been committed", blockID)
		}
		return nil, status.Errorf(codes.FailedPrecondition, "Temporary block %d does not exist", blockID)
	}
	if tm.sessionID != sessionID {
		return nil, status.Errorf(codes.FailedPrecondition, "Temporary block %d is owned by session %d", blockID, tm.sessionID)
	}
	return tm, nil
}

func (bs *tieredBlockStore) CommitBlock(ctx context.Context, sessionID SessionID, blockID BlockID, pinOnCreate bool) error {
	bs.maintenanceLock.RLock()
	defer bs.maintenanceLock.RUnlock()

	lockID, err := bs.lockBlock(ctx, sessionID, blockID, LockModeExclusive)
	if err != nil {
		return err
	}
	defer bs.lockManager.Unlock(lockID)

	bs.metadataLock.RLock()
	tm, err := bs.getOwnedTempBlockMeta(sessionID, blockID)
	var reservedBytes int64
	if err == nil {
		reservedBytes = tm.blockSize
	}
	bs.metadataLock.RUnlock()
	if err != nil {
		return err
	}

	subdirectory, err := tm.dir.openTempBlockSubdirectory(tm)
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to open temporary block directory in %#v", tm.dir.path)
	}
	defer subdirectory.Close()
	fileInfo, err := subdirectory.Lstat(tm.filename())
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to obtain size of temporary block %d", blockID)
	}
	blockSize := fileInfo.Size()
	if additional := blockSize - reservedBytes; additional > 0 {
		if err := bs.requestSpace(ctx, sessionID, blockID, additional); err != nil {
			return util.StatusWrapf(err, "Failed to reserve space for committing block %d", blockID)
		}
	}

	if err := subdirectory.Rename(tm.filename(), tm.dir.directory, blockID.String()); err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to rename temporary block %d in directory %#v", blockID, tm.dir.path)
	}
	if err := tm.dir.directory.Sync(); err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to synchronize directory %#v", tm.dir.path)
	}

	bs.metadataLock.Lock()
	bm, err := bs.metadata.CommitTempBlockMeta(tm, blockSize)
	if err != nil {
		bs.metadataLock.Unlock()
		return err
	}
	if pinOnCreate {
		bs.pinnedBlocks[blockID] = struct{}{}
	}
	location := bm.Location()
	bs.unlockMetadataAndNotify(func(listener BlockStoreEventListener) {
		listener.OnCommitBlock(blockID, location)
	})
	return nil
}

func (bs *tieredBlockStore) AbortBlock(ctx context.Context, sessionID SessionID, blockID BlockID) error {
	bs.maintenanceLock.RLock()
	defer bs.maintenanceLock.RUnlock()

	return bs.abortBlock(ctx, sessionID, blockID)
}

func (bs *tieredBlockStore) abortBlock(ctx context.Context, sessionID SessionID, blockID BlockID) error {
	lockID, err := bs.lockBlock(ctx, sessionID, blockID, LockModeExclusive)
	if err != nil {
		return err
	}
	defer bs.lockManager.Unlock(lockID)

	bs.metadataLock.RLock()
	tm, err := bs.getOwnedTempBlockMeta(sessionID, blockID)
	bs.metadataLock.RUnlock()
	if err != nil {
		if status.Code(err) == codes.FailedPrecondition && !bs.HasBlockMeta(blockID) && !bs.HasTempBlockMeta(blockID) {
			// Aborting a block that does not exist is a no-op.
			return nil
		}
		return err
	}

	// Remove the file before the metadata, so that the block can
	// be recreated immediately afterwards.
	bs.removeTempBlockFile(tm)
	bs.metadataLock.Lock()
	bs.metadata.AbortTempBlockMeta(tm)
	bs.unlockMetadataAndNotify(func(listener BlockStoreEventListener) {
		listener.OnAbortBlock(blockID)
	})
	return nil
}

func (bs *tieredBlockStore) RequestSpace(ctx context.Context, sessionID SessionID, blockID BlockID, additionalBytes int64) error {
	bs.maintenanceLock.RLock()
	defer bs.maintenanceLock.RUnlock()

	return bs.requestSpace(ctx, sessionID, blockID, additionalBytes)
}

func (bs *tieredBlockStore) requestSpace(ctx context.Context, sessionID SessionID, blockID BlockID, additionalBytes int64) error {
	if additionalBytes < 0 {
		return status.Errorf(codes.InvalidArgument, "Invalid number of additional bytes %d", additionalBytes)
	} else if additionalBytes == 0 {
		return nil
	}

	resize := func() (*TempBlockMeta, error) {
		bs.metadataLock.Lock()
		defer bs.metadataLock.Unlock()
		tm, err := bs.getOwnedTempBlockMeta(sessionID, blockID)
		if err != nil {
			return nil, err
		}
		return tm, bs.metadata.ResizeTempBlockMeta(tm, tm.blockSize+additionalBytes)
	}
	tm, err := resize()
	if err == nil || status.Code(err) != codes.ResourceExhausted {
		return err
	}
	if err := bs.freeSpace(ctx, additionalBytes, tm.dir.Location()); err != nil {
		return util.StatusWrapf(err, "Failed to request %d bytes for block %d", additionalBytes, blockID)
	}
	if _, err := resize(); err != nil {
		return util.StatusWrapf(err, "Failed to request %d bytes for block %d", additionalBytes, blockID)
	}
	return nil
}

func (bs *tieredBlockStore) CreateBlockWriter(ctx context.Context, sessionID SessionID, blockID BlockID) (BlockWriter, error) {
	bs.metadataLock.RLock()
	tm, err := bs.getOwnedTempBlockMeta(sessionID, blockID)
	var reservedBytes int64
	if err == nil {
		reservedBytes = tm.blockSize
	}
	bs.metadataLock.RUnlock()
	if err != nil {
		return nil, err
	}

	subdirectory, err := tm.dir.openTempBlockSubdirectory(tm)
	if err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to open temporary block directory in %#v", tm.dir.path)
	}
	defer subdirectory.Close()
	fileInfo, err := subdirectory.Lstat(tm.filename())
	if err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to obtain size of temporary block %d", blockID)
	}
	f, err := subdirectory.OpenWrite(tm.filename(), filesystem.DontCreate)
	if err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to open temporary block %d", blockID)
	}
	return &blockWriter{
		store:         bs,
		sessionID:     sessionID,
		blockID:       blockID,
		file:          f,
		position:      fileInfo.Size(),
		reservedBytes: reservedBytes,
	}, nil
}

func (bs *tieredBlockStore) CreateBlockReader(ctx context.Context, sessionID SessionID, blockID BlockID, offset int64, positionShort bool) (BlockReader, error) {
	lockID, err := bs.LockBlock(ctx, sessionID, blockID)
	if err != nil {
		return nil, err
	}

	bs.metadataLock.RLock()
	bm, err := bs.metadata.GetBlockMeta(blockID)
	bs.metadataLock.RUnlock()
	if err != nil {
		bs.lockManager.Unlock(lockID)
		return nil, err
	}

	// Readers that position themselves at the end of the block
	// are permitted, so that they can observe that no more data is
	// available.
	length := bm.blockSize
	if offset < 0 || offset > length || (offset == length && length > 0 && !positionShort) {
		bs.lockManager.Unlock(lockID)
		return nil, status.Errorf(codes.InvalidArgument, "Offset %d is out of range for block %d, which has length %d", offset, blockID, length)
	}
	f, err := bm.dir.directory.OpenRead(blockID.String())
	if err != nil {
		bs.lockManager.Unlock(lockID)
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to open block %d in directory %#v", blockID, bm.dir.path)
	}
	return &blockReader{
		file:     f,
		length:   length,
		position: offset,
		release: func() {
			bs.lockManager.Unlock(lockID)
		},
	}, nil
}

func (bs *tieredBlockStore) MoveBlock(ctx context.Context, sessionID SessionID, blockID BlockID, options AllocateOptions) error {
	bs.maintenanceLock.RLock()
	defer bs.maintenanceLock.RUnlock()

	lockID, err := bs.lockBlock(ctx, sessionID, blockID, LockModeExclusive)
	if err != nil {
		return err
	}
	defer bs.lockManager.Unlock(lockID)

	bs.metadataLock.RLock()
	bm, err := bs.metadata.GetBlockMeta(blockID)
	if err != nil && bs.metadata.HasTempBlockMeta(blockID) {
		err = status.Errorf(codes.FailedPrecondition, "Block %d has not been committed", blockID)
	}
	bs.metadataLock.RUnlock()
	if err != nil {
		return err
	}
	if bm.Location().BelongsTo(options.Location) {
		return nil
	}

	// As the block is locked exclusively, it cannot be evicted to
	// make space for itself.
	tm, err := bs.allocateSpace(ctx, MigrationSessionID, blockID, AllocateOptions{
		Location:      options.Location,
		InitialBytes:  bm.blockSize,
		ForceLocation: true,
	}, false)
	if err != nil {
		return util.StatusWrapf(err, "Failed to move block %d to %s", blockID, options.Location)
	}
	return bs.moveLockedBlock(bm, tm)
}

func (bs *tieredBlockStore) RemoveBlock(ctx context.Context, sessionID SessionID, blockID BlockID) error {
	bs.maintenanceLock.RLock()
	defer bs.maintenanceLock.RUnlock()

	lockID, err := bs.lockBlock(ctx, sessionID, blockID, LockModeExclusive)
	if err != nil {
		return err
	}
	defer bs.lockManager.Unlock(lockID)

	bs.metadataLock.Lock()
	bm, err := bs.metadata.GetBlockMeta(blockID)
	if err != nil {
		if bs.metadata.HasTempBlockMeta(blockID) {
			err = status.Errorf(codes.FailedPrecondition, "Block %d has not been committed", blockID)
		}
		bs.metadataLock.Unlock()
		return err
	}
	return bs.removeLockedBlock(bm)
}

func (bs *tieredBlockStore) AccessBlock(sessionID SessionID, blockID BlockID) error {
	bs.metadataLock.Lock()
	bm, err := bs.metadata.GetBlockMeta(blockID)
	if err != nil {
		bs.metadataLock.Unlock()
		return err
	}
	bs.metadata.TouchBlock(bm)
	location := bm.Location()
	bs.unlockMetadataAndNotify(func(listener BlockStoreEventListener) {
		listener.OnAccessBlock(blockID, location)
	})
	return nil
}

func (bs *tieredBlockStore) HasBlockMeta(blockID BlockID) bool {
	bs.metadataLock.RLock()
	defer bs.metadataLock.RUnlock()
	return bs.metadata.HasBlockMeta(blockID)
}

func (bs *tieredBlockStore) HasTempBlockMeta(blockID BlockID) bool {
	bs.metadataLock.RLock()
	defer bs.metadataLock.RUnlock()
	return bs.metadata.HasTempBlockMeta(blockID)
}

func (bs *tieredBlockStore) GetBlockInfo(blockID BlockID) (BlockInfo, error) {
	bs.metadataLock.RLock()
	defer bs.metadataLock.RUnlock()

	bm, err := bs.metadata.GetBlockMeta(blockID)
	if err != nil {
		return BlockInfo{}, err
	}
	return BlockInfo{
		BlockID:   blockID,
		BlockSize: bm.blockSize,
		Location:  bm.Location(),
		Path:      filepath.Join(bm.dir.path, blockID.String()),
	}, nil
}

func (bs *tieredBlockStore) GetBlockStoreMeta() BlockStoreMeta {
	bs.metadataLock.RLock()
	defer bs.metadataLock.RUnlock()
	return bs.metadata.GetBlockStoreMeta(false)
}

func (bs *tieredBlockStore) GetBlockStoreMetaFull() BlockStoreMeta {
	bs.metadataLock.RLock()
	defer bs.metadataLock.RUnlock()
	return bs.metadata.GetBlockStoreMeta(true)
}

func (bs *tieredBlockStore) CleanupSession(sessionID SessionID) {
	bs.lockManager.CleanupSession(sessionID)

	bs.maintenanceLock.RLock()
	defer bs.maintenanceLock.RUnlock()

	bs.metadataLock.RLock()
	tempBlocks := bs.metadata.GetSessionTempBlocks(sessionID)
	bs.metadataLock.RUnlock()
	for _, tm := range tempBlocks {
		if err := bs.abortBlock(context.Background(), sessionID, tm.blockID); err != nil {
			log.Printf("Failed to abort temporary block %d of session %d: %s", tm.blockID, sessionID, err)
		}
	}
}

func (bs *tieredBlockStore) UpdatePinnedInodes(inodes []int64) {
	pinnedInodes := make(map[int64]struct{}, len(inodes))
	for _, inode := range inodes {
		pinnedInodes[inode] = struct{}{}
	}

	bs.metadataLock.Lock()
	bs.pinnedInodes = pinnedInodes
	bs.metadataLock.Unlock()
}

func checkStorageDirectory(path string) error {
	directory, err := filesystem.NewLocalDirectory(path)
	if err != nil {
		return err
	}
	defer directory.Close()
	writable, err := directory.IsWritable()
	if err != nil {
		return err
	}
	if !writable {
		return status.Error(codes.FailedPrecondition, "Directory is not writable")
	}
	return nil
}

func (bs *tieredBlockStore) RemoveInaccessibleStorage() ([]string, error) {
	bs.maintenanceLock.Lock()
	defer bs.maintenanceLock.Unlock()

	bs.metadataLock.RLock()
	dirs := bs.metadata.GetDirs(AnyTierLocation())
	bs.metadataLock.RUnlock()

	var lostPaths, failures []string
	for _, dir := range dirs {
		checkErr := checkStorageDirectory(dir.path)
		if checkErr == nil {
			continue
		}
		lostPaths = append(lostPaths, dir.path)
		failures = append(failures, fmt.Sprintf("%#v: %s", dir.path, status.Convert(checkErr).Message()))

		bs.metadataLock.Lock()
		lostBlocks := bs.metadata.RemoveDir(dir)
		events := make([]blockStoreEvent, 0, len(lostBlocks)+1)
		for _, blockID := range lostBlocks {
			delete(bs.pinnedBlocks, blockID)
			events = append(events, func(listener BlockStoreEventListener) {
				listener.OnBlockLost(blockID)
			})
		}
		tierAlias, path := dir.tier.alias, dir.path
		events = append(events, func(listener BlockStoreEventListener) {
			listener.OnStorageLost(tierAlias, path)
		})
		bs.unlockMetadataAndNotify(events...)
		dir.close()
	}
	if len(failures) > 0 {
		return lostPaths, status.Errorf(codes.Internal, "Storage directories are inaccessible: %s", strings.Join(failures, ", "))
	}
	return lostPaths, nil
}

func (bs *tieredBlockStore) RegisterBlockStoreEventListener(listener BlockStoreEventListener) {
	bs.eventsLock.Lock()
	defer bs.eventsLock.Unlock()
	bs.listeners = append(bs.listeners, listener)
}

func (bs *tieredBlockStore) Close() error {
	bs.maintenanceLock.Lock()
	defer bs.maintenanceLock.Unlock()
	bs.metadataLock.Lock()
	defer bs.metadataLock.Unlock()

	for _, dir := range bs.metadata.GetDirs(AnyTierLocation()) {
		dir.close()
	}
	return nil
}
