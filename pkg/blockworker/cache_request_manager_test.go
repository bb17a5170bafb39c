package blockworker_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buildbarn/bb-blockworker/internal/mock"
	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/blockworker"
	"github.com/buildbarn/bb-blockworker/pkg/clock"
	"github.com/buildbarn/bb-blockworker/pkg/testutil"
	"github.com/buildbarn/bb-blockworker/pkg/ufs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// blockingBackingStore counts the number of ranges opened, and blocks
// opening them until it is released.
type blockingBackingStore struct {
	contents []byte
	opened   atomic.Int32
	started  chan struct{}
	release  chan struct{}
}

func (bs *blockingBackingStore) OpenRange(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	if bs.opened.Add(1) == 1 {
		close(bs.started)
	}
	<-bs.release
	return io.NopCloser(bytes.NewReader(bs.contents[offset : offset+length])), nil
}

func TestCacheRequestManager(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	store := newTestBlockStore(t)
	backingStore := &blockingBackingStore{
		contents: bytes.Repeat([]byte("abcdefgh"), 16),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	failingBackingStore := mock.NewMockBackingStore(ctrl)
	ufsStore := blockstore.NewUnderFileSystemBlockStore(
		store,
		ufs.NewMountTable(map[string]ufs.BackingStore{
			"data":    backingStore,
			"failing": failingBackingStore,
		}),
		clock.SystemClock,
		time.Minute)
	errorLogger := mock.NewMockErrorLogger(ctrl)
	cacheManager := blockworker.NewCacheRequestManager(store, ufsStore, "worker1", 2, clock.SystemClock, errorLogger)

	t.Run("ConcurrentRequestsAreMerged", func(t *testing.T) {
		request := &blockworker.CacheRequest{
			BlockID: 1,
			UFS: blockstore.UFSBlockOptions{
				MountID:      "data",
				Path:         "file",
				OffsetInFile: 64,
				BlockSize:    64,
			},
			SourceHost: "worker2",
			SourcePort: 29999,
		}

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[0] = cacheManager.SubmitRequest(ctx, request)
		}()
		<-backingStore.started
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[1] = cacheManager.SubmitRequest(ctx, request)
		}()
		close(backingStore.release)
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		require.Equal(t, int32(1), backingStore.opened.Load())
		require.True(t, store.HasBlockMeta(1))
		require.Equal(t, 0, ufsStore.GetAccessCount())

		reader, err := store.CreateBlockReader(ctx, 1, 1, 0, false)
		require.NoError(t, err)
		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		require.Equal(t, backingStore.contents[64:], data)
		require.NoError(t, reader.Close())
	})

	t.Run("AlreadyCached", func(t *testing.T) {
		require.NoError(t, cacheManager.SubmitRequest(ctx, &blockworker.CacheRequest{
			BlockID: 1,
			UFS: blockstore.UFSBlockOptions{
				MountID:   "data",
				Path:      "file",
				BlockSize: 64,
			},
		}))
		require.Equal(t, int32(1), backingStore.opened.Load())
	})

	t.Run("InvalidLength", func(t *testing.T) {
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Invalid length -1 for block 2"),
			cacheManager.SubmitRequest(ctx, &blockworker.CacheRequest{
				BlockID: 2,
				UFS: blockstore.UFSBlockOptions{
					MountID:   "data",
					Path:      "file",
					BlockSize: -1,
				},
			}))
	})

	t.Run("SyncFailure", func(t *testing.T) {
		failingBackingStore.EXPECT().OpenRange(gomock.Any(), "missing", int64(0), int64(64)).
			Return(nil, status.Error(codes.NotFound, "File does not exist"))

		testutil.RequireEqualStatus(
			t,
			status.Error(codes.NotFound, "Failed to open file \"missing\" in backing store \"failing\": File does not exist"),
			cacheManager.SubmitRequest(ctx, &blockworker.CacheRequest{
				BlockID: 3,
				UFS: blockstore.UFSBlockOptions{
					MountID:   "failing",
					Path:      "missing",
					BlockSize: 64,
				},
			}))
		require.False(t, store.HasBlockMeta(3))
		require.False(t, store.HasTempBlockMeta(3))
		require.Equal(t, 0, ufsStore.GetAccessCount())
	})

	t.Run("BlockTooLarge", func(t *testing.T) {
		// The block does not fit in any tier, meaning the backing
		// store must not be accessed at all.
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.ResourceExhausted, "Failed to reserve space for block 5: Failed to allocate 2097152 bytes for block 5 in any dir in any tier"),
			cacheManager.SubmitRequest(ctx, &blockworker.CacheRequest{
				BlockID: 5,
				UFS: blockstore.UFSBlockOptions{
					MountID:   "failing",
					Path:      "huge",
					BlockSize: 2 << 20,
				},
			}))
		require.False(t, store.HasBlockMeta(5))
		require.False(t, store.HasTempBlockMeta(5))
		require.Equal(t, 0, ufsStore.GetAccessCount())
	})

	t.Run("AsyncFailure", func(t *testing.T) {
		failingBackingStore.EXPECT().OpenRange(gomock.Any(), "missing", int64(0), int64(64)).
			Return(nil, status.Error(codes.NotFound, "File does not exist"))
		logged := make(chan struct{})
		errorLogger.EXPECT().Log(testutil.EqStatus(t, status.Error(codes.NotFound, "Failed to cache block 4 asynchronously: Failed to open file \"missing\" in backing store \"failing\": File does not exist"))).
			Do(func(err error) { close(logged) })

		require.NoError(t, cacheManager.SubmitRequest(ctx, &blockworker.CacheRequest{
			BlockID: 4,
			UFS: blockstore.UFSBlockOptions{
				MountID:   "failing",
				Path:      "missing",
				BlockSize: 64,
			},
			Async: true,
		}))
		<-logged
		require.False(t, store.HasBlockMeta(4))
	})
}
