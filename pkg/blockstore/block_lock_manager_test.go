package blockstore_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestBlockLockManagerSharedAndExclusive(t *testing.T) {
	lm := blockstore.NewBlockLockManager(4)
	ctx := context.Background()

	t.Run("SharedLocksCoexist", func(t *testing.T) {
		l1, err := lm.Lock(ctx, 1, 100, blockstore.LockModeShared)
		require.NoError(t, err)
		l2, err := lm.Lock(ctx, 2, 100, blockstore.LockModeShared)
		require.NoError(t, err)
		require.True(t, lm.IsLocked(100))

		// Exclusive locks cannot be granted while readers are
		// present.
		require.Equal(t, blockstore.InvalidLockID, lm.TryLock(3, 100, blockstore.LockModeExclusive))

		require.True(t, lm.Unlock(l1))
		require.True(t, lm.Unlock(l2))
		require.False(t, lm.IsLocked(100))
	})

	t.Run("ExclusiveExcludesShared", func(t *testing.T) {
		l1 := lm.TryLock(1, 100, blockstore.LockModeExclusive)
		require.NotEqual(t, blockstore.InvalidLockID, l1)
		require.Equal(t, blockstore.InvalidLockID, lm.TryLock(2, 100, blockstore.LockModeShared))
		require.Equal(t, []blockstore.BlockID{100}, lm.GetLockedBlocks())
		require.True(t, lm.Unlock(l1))
		require.Empty(t, lm.GetLockedBlocks())
	})

	t.Run("UnknownLockID", func(t *testing.T) {
		require.False(t, lm.Unlock(12345))
		require.False(t, lm.Unlock(blockstore.InvalidLockID))
	})

	t.Run("UnlockBlock", func(t *testing.T) {
		_, err := lm.Lock(ctx, 1, 200, blockstore.LockModeShared)
		require.NoError(t, err)
		require.False(t, lm.UnlockBlock(2, 200))
		require.True(t, lm.UnlockBlock(1, 200))
		require.False(t, lm.UnlockBlock(1, 200))
		require.False(t, lm.IsLocked(200))
	})

	t.Run("CleanupSession", func(t *testing.T) {
		_, err := lm.Lock(ctx, 7, 300, blockstore.LockModeShared)
		require.NoError(t, err)
		_, err = lm.Lock(ctx, 7, 301, blockstore.LockModeExclusive)
		require.NoError(t, err)
		l3, err := lm.Lock(ctx, 8, 300, blockstore.LockModeShared)
		require.NoError(t, err)

		lm.CleanupSession(7)
		require.True(t, lm.IsLocked(300))
		require.False(t, lm.IsLocked(301))
		require.True(t, lm.Unlock(l3))
		require.False(t, lm.IsLocked(300))
	})

	t.Run("Timeout", func(t *testing.T) {
		l1, err := lm.Lock(ctx, 1, 400, blockstore.LockModeExclusive)
		require.NoError(t, err)

		ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err = lm.Lock(ctxWithTimeout, 2, 400, blockstore.LockModeShared)
		testutil.RequireEqualStatus(t, status.Error(codes.DeadlineExceeded, "Failed to obtain SHARED lock on block 400: context deadline exceeded"), err)

		// The failed attempt must not leave any state behind.
		require.True(t, lm.Unlock(l1))
		require.False(t, lm.IsLocked(400))
		require.NotEqual(t, blockstore.InvalidLockID, lm.TryLock(2, 400, blockstore.LockModeExclusive))
	})

	t.Run("WaiterIsWoken", func(t *testing.T) {
		l1, err := lm.Lock(ctx, 1, 500, blockstore.LockModeExclusive)
		require.NoError(t, err)

		granted := make(chan blockstore.LockID)
		go func() {
			l2, err := lm.Lock(ctx, 2, 500, blockstore.LockModeExclusive)
			require.NoError(t, err)
			granted <- l2
		}()

		time.Sleep(10 * time.Millisecond)
		require.True(t, lm.Unlock(l1))
		require.True(t, lm.Unlock(<-granted))
	})
}

func TestBlockLockManagerFuzz(t *testing.T) {
	// Randomly lock and unlock a small number of blocks from many
	// goroutines. While a lock is held, the set of holders of the
	// block must either consist of readers or a single writer.
	const maximumReaders = 8
	lm := blockstore.NewBlockLockManager(maximumReaders)

	type holders struct {
		shared    atomic.Int32
		exclusive atomic.Int32
	}
	var blocks [4]holders
	var violations atomic.Int32

	var wg sync.WaitGroup
	for worker := 0; worker < 16; worker++ {
		wg.Add(1)
		go func(sessionID blockstore.SessionID) {
			defer wg.Done()
			r := rand.New(rand.NewPCG(uint64(sessionID), 1))
			for i := 0; i < 500; i++ {
				blockIndex := r.IntN(len(blocks))
				blockID := blockstore.BlockID(blockIndex)
				h := &blocks[blockIndex]
				mode := blockstore.LockModeShared
				if r.IntN(3) == 0 {
					mode = blockstore.LockModeExclusive
				}

				var lockID blockstore.LockID
				if r.IntN(2) == 0 {
					var err error
					lockID, err = lm.Lock(context.Background(), sessionID, blockID, mode)
					if err != nil {
						violations.Add(1)
						continue
					}
				} else if lockID = lm.TryLock(sessionID, blockID, mode); lockID == blockstore.InvalidLockID {
					continue
				}

				if mode == blockstore.LockModeExclusive {
					if h.exclusive.Add(1) != 1 || h.shared.Load() != 0 {
						violations.Add(1)
					}
					h.exclusive.Add(-1)
				} else {
					h.shared.Add(1)
					if h.exclusive.Load() != 0 {
						violations.Add(1)
					}
					h.shared.Add(-1)
				}

				if r.IntN(2) == 0 {
					if !lm.Unlock(lockID) {
						violations.Add(1)
					}
				} else if !lm.UnlockBlock(sessionID, blockID) {
					violations.Add(1)
				}
			}
		}(blockstore.SessionID(worker))
	}
	wg.Wait()

	require.Zero(t, violations.Load())
	require.Empty(t, lm.GetLockedBlocks())
}
