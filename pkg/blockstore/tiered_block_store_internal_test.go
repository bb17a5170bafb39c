package blockstore

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/clock"
	pb "github.com/buildbarn/bb-blockworker/pkg/configuration/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/filesystem"
	"github.com/buildbarn/bb-blockworker/pkg/util"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// syncFailingDirectory is a directory whose entries cannot be
// synchronized to stable storage.
type syncFailingDirectory struct {
	filesystem.DirectoryCloser
}

func (syncFailingDirectory) Sync() error {
	return syscall.EIO
}

func TestTieredBlockStoreMoveBlockSyncFailure(t *testing.T) {
	root := t.TempDir()
	lockTimeout := util.Duration(100 * time.Millisecond)
	store, err := NewTieredBlockStoreFromConfiguration(&pb.TieredBlockStoreConfiguration{
		Tiers: []pb.TierConfiguration{
			{
				Alias: "MEM",
				Directories: []pb.DirectoryConfiguration{
					{Path: filepath.Join(root, "mem0"), CapacityBytes: 100},
				},
			},
			{
				Alias: "SSD",
				Directories: []pb.DirectoryConfiguration{
					{Path: filepath.Join(root, "ssd0"), CapacityBytes: 100},
				},
			},
		},
		EvictionPolicy: "LEAST_RECENTLY_USED",
		Allocator:      "GREEDY",
		LockTimeout:    &lockTimeout,
	}, clock.SystemClock)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	_, err = store.CreateBlock(ctx, 1, 7, AllocateOptions{Location: AnyDirInTier("SSD"), InitialBytes: 5})
	require.NoError(t, err)
	w, err := store.CreateBlockWriter(ctx, 1, 7)
	require.NoError(t, err)
	_, err = w.Write([]byte("Hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, store.CommitBlock(ctx, 1, 7, false))

	memDir := store.(*tieredBlockStore).metadata.tiers[0].dirs[0]
	memDir.directory = syncFailingDirectory{DirectoryCloser: memDir.directory}

	require.Equal(t, codes.Internal, status.Code(store.MoveBlock(ctx, 1, 7, AllocateOptions{Location: AnyDirInTier("MEM")})))

	// The copy that was renamed into place is removed, while the
	// original remains accessible.
	_, err = os.Stat(filepath.Join(root, "mem0", BlockID(7).String()))
	require.True(t, os.IsNotExist(err))
	info, err := store.GetBlockInfo(7)
	require.NoError(t, err)
	require.Equal(t, "SSD", info.Location.TierAlias)
	require.Equal(t, map[string]int64{"MEM": 0, "SSD": 5}, store.GetBlockStoreMeta().UsedBytesOnTiers)
}
