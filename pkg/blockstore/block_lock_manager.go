package blockstore

import (
	"context"
	"sync"

	"github.com/buildbarn/bb-blockworker/pkg/util"
	"golang.org/x/sync/semaphore"
)

// BlockLockManager grants shared and exclusive locks on blocks on
// behalf of sessions. Locks are independent of the tier in which a
// block is stored, and may even be acquired on blocks that do not
// exist yet.
type BlockLockManager interface {
	// Lock a block, blocking until the lock is granted or the
	// context is done.
	Lock(ctx context.Context, sessionID SessionID, blockID BlockID, mode LockMode) (LockID, error)
	// TryLock attempts to lock a block without blocking. It returns
	// InvalidLockID if the lock could not be granted immediately.
	TryLock(sessionID SessionID, blockID BlockID, mode LockMode) LockID
	// Unlock releases a lock. Unknown lock IDs are ignored. The
	// return value indicates whether a lock was released.
	Unlock(lockID LockID) bool
	// UnlockBlock releases one of the locks held by a session on a
	// block. The return value indicates whether a lock existed.
	UnlockBlock(sessionID SessionID, blockID BlockID) bool
	// CleanupSession releases all locks held by a session.
	CleanupSession(sessionID SessionID)
	// IsLocked returns whether any lock is currently held on a
	// block.
	IsLocked(blockID BlockID) bool
	// GetLockedBlocks returns the IDs of all blocks on which at
	// least one lock is held.
	GetLockedBlocks() []BlockID
}

type lockRecord struct {
	sessionID SessionID
	blockID   BlockID
	mode      LockMode
}

type blockLockState struct {
	semaphore *semaphore.Weighted
	// Number of goroutines holding or waiting for a lock. The
	// state is discarded when this drops to zero.
	refCount int
	holders  int
}

type blockLockManager struct {
	maximumReaders int64

	lock         sync.Mutex
	nextLockID   LockID
	blocks       map[BlockID]*blockLockState
	locks        map[LockID]lockRecord
	sessionLocks map[SessionID]map[LockID]struct{}
}

// NewBlockLockManager creates a BlockLockManager that permits up to
// maximumReaders shared locks on a single block at a time. Exclusive
// locks are granted in the order in which they were requested, which
// prevents them from being starved by readers.
func NewBlockLockManager(maximumReaders int64) BlockLockManager {
	return &blockLockManager{
		maximumReaders: maximumReaders,
		blocks:         map[BlockID]*blockLockState{},
		locks:          map[LockID]lockRecord{},
		sessionLocks:   map[SessionID]map[LockID]struct{}{},
	}
}

func (lm *blockLockManager) weight(mode LockMode) int64 {
	if mode == LockModeExclusive {
		return lm.maximumReaders
	}
	return 1
}

func (lm *blockLockManager) getBlockState(blockID BlockID) *blockLockState {
	s, ok := lm.blocks[blockID]
	if !ok {
		s = &blockLockState{
			semaphore: semaphore.NewWeighted(lm.maximumReaders),
		}
		lm.blocks[blockID] = s
	}
	s.refCount++
	return s
}

func (lm *blockLockManager) releaseBlockState(blockID BlockID, s *blockLockState) {
	s.refCount--
	if s.refCount == 0 {
		delete(lm.blocks, blockID)
	}
}

// registerLock records a lock that has been granted. The lock on the
// manager must be held.
func (lm *blockLockManager) registerLock(sessionID SessionID, blockID BlockID, mode LockMode, s *blockLockState) LockID {
	s.holders++
	lm.nextLockID++
	lockID := lm.nextLockID
	lm.locks[lockID] = lockRecord{
		sessionID: sessionID,
		blockID:   blockID,
		mode:      mode,
	}
	sessionLocks, ok := lm.sessionLocks[sessionID]
	if !ok {
		sessionLocks = map[LockID]struct{}{}
		lm.sessionLocks[sessionID] = sessionLocks
	}
	sessionLocks[lockID] = struct{}{}
	return lockID
}

func (lm *blockLockManager) Lock(ctx context.Context, sessionID SessionID, blockID BlockID, mode LockMode) (LockID, error) {
	lm.lock.Lock()
	s := lm.getBlockState(blockID)
	lm.lock.Unlock()

	if err := util.AcquireSemaphore(ctx, s.semaphore, lm.weight(mode)); err != nil {
		lm.lock.Lock()
		lm.releaseBlockState(blockID, s)
		lm.lock.Unlock()
		return InvalidLockID, util.StatusWrapf(err, "Failed to obtain %s lock on block %d", mode, blockID)
	}

	lm.lock.Lock()
	defer lm.lock.Unlock()
	return lm.registerLock(sessionID, blockID, mode, s), nil
}

func (lm *blockLockManager) TryLock(sessionID SessionID, blockID BlockID, mode LockMode) LockID {
	lm.lock.Lock()
	defer lm.lock.Unlock()

	s := lm.getBlockState(blockID)
	if !s.semaphore.TryAcquire(lm.weight(mode)) {
		lm.releaseBlockState(blockID, s)
		return InvalidLockID
	}
	return lm.registerLock(sessionID, blockID, mode, s)
}

// unlock releases a lock. The lock on the manager must be held.
func (lm *blockLockManager) unlock(lockID LockID, record lockRecord) {
	delete(lm.locks, lockID)
	if sessionLocks := lm.sessionLocks[record.sessionID]; sessionLocks != nil {
		delete(sessionLocks, lockID)
		if len(sessionLocks) == 0 {
			delete(lm.sessionLocks, record.sessionID)
		}
	}
	s := lm.blocks[record.blockID]
	s.holders--
	s.semaphore.Release(lm.weight(record.mode))
	lm.releaseBlockState(record.blockID, s)
}

func (lm *blockLockManager) Unlock(lockID LockID) bool {
	lm.lock.Lock()
	defer lm.lock.Unlock()

	record, ok := lm.locks[lockID]
	if !ok {
		return false
	}
	lm.unlock(lockID, record)
	return true
}

func (lm *blockLockManager) UnlockBlock(sessionID SessionID, blockID BlockID) bool {
	lm.lock.Lock()
	defer lm.lock.Unlock()

	for lockID := range lm.sessionLocks[sessionID] {
		if record := lm.locks[lockID]; record.blockID == blockID {
			lm.unlock(lockID, record)
			return true
		}
	}
	return false
}

func (lm *blockLockManager) CleanupSession(sessionID SessionID) {
	lm.lock.Lock()
	defer lm.lock.Unlock()

	for lockID := range lm.sessionLocks[sessionID] {
		lm.unlock(lockID, lm.locks[lockID])
	}
}

func (lm *blockLockManager) IsLocked(blockID BlockID) bool {
	lm.lock.Lock()
	defer lm.lock.Unlock()

	s, ok := lm.blocks[blockID]
	return ok && s.holders > 0
}

func (lm *blockLockManager) GetLockedBlocks() []BlockID {
	lm.lock.Lock()
	defer lm.lock.Unlock()

	blockIDs := make([]BlockID, 0, len(lm.blocks))
	for blockID, s := range lm.blocks {
		if s.holders > 0 {
			blockIDs = append(blockIDs, blockID)
		}
	}
	return blockIDs
}
