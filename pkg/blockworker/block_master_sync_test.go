package blockworker_test

import (
	"context"
	"testing"

	"github.com/buildbarn/bb-blockworker/internal/mock"
	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/blockworker"
	"github.com/buildbarn/bb-blockworker/pkg/master"
	"github.com/buildbarn/bb-blockworker/pkg/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestBlockMasterSync(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	store := mock.NewMockBlockStore(ctrl)
	reporter := blockworker.NewBlockHeartbeatReporter()
	masterClient := mock.NewMockBlockMasterClient(ctrl)
	address := master.WorkerNetAddress{
		Host:     "worker1",
		RPCPort:  29999,
		Locality: map[string]string{"rack": "rack1"},
	}
	uuidGenerator := mock.NewMockUUIDGenerator(ctrl)
	blockMasterSync := blockworker.NewBlockMasterSync(store, reporter, masterClient, address, uuidGenerator.Call)

	fullMeta := blockstore.BlockStoreMeta{
		CapacityBytesOnTiers: map[string]int64{"MEM": 1000, "SSD": 10000},
		UsedBytesOnTiers:     map[string]int64{"MEM": 300, "SSD": 200},
		Directories: []blockstore.StorageDirMeta{
			{Location: memLocation, BlockIDs: []blockstore.BlockID{1, 3}},
			{Location: blockstore.BlockStoreLocation{TierAlias: "SSD", DirIndex: 0, MediumType: "SSD"}, BlockIDs: []blockstore.BlockID{5}},
			{Location: ssdLocation, BlockIDs: []blockstore.BlockID{2}},
		},
		NumberOfBlocks: 4,
	}
	registerRequest := func(workerID int64, registrationID string) *master.RegisterWorkerRequest {
		return &master.RegisterWorkerRequest{
			WorkerID:             workerID,
			RegistrationID:       registrationID,
			StorageTiers:         []string{"MEM", "SSD"},
			CapacityBytesOnTiers: map[string]int64{"MEM": 1000, "SSD": 10000},
			UsedBytesOnTiers:     map[string]int64{"MEM": 300, "SSD": 200},
			CurrentBlocksOnTiers: map[string][]int64{
				"MEM": {1, 3},
				"SSD": {2, 5},
			},
		}
	}
	usage := blockstore.BlockStoreMeta{
		UsedBytesOnTiers: map[string]int64{"MEM": 300, "SSD": 200},
	}

	t.Run("RegistrationFailure", func(t *testing.T) {
		masterClient.EXPECT().GetWorkerID(gomock.Any(), address).
			Return(int64(0), status.Error(codes.Unavailable, "Failed to obtain worker ID: Connection refused"))

		testutil.RequireEqualStatus(
			t,
			status.Error(codes.Unavailable, "Failed to register with master: Failed to obtain worker ID: Connection refused"),
			blockMasterSync.Heartbeat(ctx))
		require.Equal(t, int64(0), blockMasterSync.WorkerID())
	})

	t.Run("Register", func(t *testing.T) {
		masterClient.EXPECT().GetWorkerID(gomock.Any(), address).Return(int64(42), nil)
		uuidGenerator.EXPECT().Call().Return(uuid.MustParse("b5b6ad46-1c4b-4d6e-9a0c-5d8a83b5a6b1"), nil)
		store.EXPECT().GetBlockStoreMetaFull().Return(fullMeta)
		masterClient.EXPECT().RegisterWorker(gomock.Any(), registerRequest(42, "b5b6ad46-1c4b-4d6e-9a0c-5d8a83b5a6b1"))
		store.EXPECT().GetBlockStoreMeta().Return(usage)
		masterClient.EXPECT().Heartbeat(gomock.Any(), &master.HeartbeatRequest{
			WorkerID:         42,
			UsedBytesOnTiers: map[string]int64{"MEM": 300, "SSD": 200},
		}).Return(&master.Command{Type: master.CommandNothing}, nil)

		require.NoError(t, blockMasterSync.Heartbeat(ctx))
		require.Equal(t, int64(42), blockMasterSync.WorkerID())
	})

	t.Run("HeartbeatFailure", func(t *testing.T) {
		reporter.OnCommitBlock(7, memLocation)
		reporter.OnRemoveBlock(3, memLocation)
		store.EXPECT().GetBlockStoreMeta().Return(usage)
		masterClient.EXPECT().Heartbeat(gomock.Any(), &master.HeartbeatRequest{
			WorkerID:         42,
			UsedBytesOnTiers: map[string]int64{"MEM": 300, "SSD": 200},
			AddedBlocks:      map[string][]int64{"MEM": {7}},
			RemovedBlocks:    []int64{3},
		}).Return(nil, status.Error(codes.Unavailable, "Failed to send heartbeat of worker 42: Connection refused"))

		testutil.RequireEqualStatus(
			t,
			status.Error(codes.Unavailable, "Failed to send heartbeat of worker 42: Connection refused"),
			blockMasterSync.Heartbeat(ctx))
	})

	t.Run("Free", func(t *testing.T) {
		// Changes from the failed heartbeat are sent again,
		// together with new changes.
		reporter.OnCommitBlock(8, ssdLocation)
		reporter.OnStorageLost("SSD", "/mnt/ssd1")
		store.EXPECT().GetBlockStoreMeta().Return(usage)
		masterClient.EXPECT().Heartbeat(gomock.Any(), &master.HeartbeatRequest{
			WorkerID:         42,
			UsedBytesOnTiers: map[string]int64{"MEM": 300, "SSD": 200},
			AddedBlocks:      map[string][]int64{"MEM": {7}, "SSD": {8}},
			RemovedBlocks:    []int64{3},
			LostStorage:      map[string][]string{"SSD": {"/mnt/ssd1"}},
		}).Return(&master.Command{Type: master.CommandFree, BlockIDs: []int64{1, 9, 5}}, nil)
		store.EXPECT().RemoveBlock(gomock.Any(), blockstore.MaintenanceSessionID, blockstore.BlockID(1))
		store.EXPECT().RemoveBlock(gomock.Any(), blockstore.MaintenanceSessionID, blockstore.BlockID(9)).
			Return(status.Error(codes.NotFound, "Block 9 does not exist"))
		store.EXPECT().RemoveBlock(gomock.Any(), blockstore.MaintenanceSessionID, blockstore.BlockID(5)).
			Return(status.Error(codes.DeadlineExceeded, "Timed out acquiring lock on block 5"))

		require.NoError(t, blockMasterSync.Heartbeat(ctx))
	})

	t.Run("Reregister", func(t *testing.T) {
		store.EXPECT().GetBlockStoreMeta().Return(usage)
		masterClient.EXPECT().Heartbeat(gomock.Any(), &master.HeartbeatRequest{
			WorkerID:         42,
			UsedBytesOnTiers: map[string]int64{"MEM": 300, "SSD": 200},
		}).Return(&master.Command{Type: master.CommandRegister}, nil)
		// Both the worker ID and the registration ID are obtained
		// again.
		masterClient.EXPECT().GetWorkerID(gomock.Any(), address).Return(int64(43), nil)
		uuidGenerator.EXPECT().Call().Return(uuid.MustParse("0f9c1b1e-8f0e-4c57-8d5a-3d3e1fb1f1b2"), nil)
		store.EXPECT().GetBlockStoreMetaFull().Return(fullMeta)
		masterClient.EXPECT().RegisterWorker(gomock.Any(), registerRequest(43, "0f9c1b1e-8f0e-4c57-8d5a-3d3e1fb1f1b2"))

		require.NoError(t, blockMasterSync.Heartbeat(ctx))
		require.Equal(t, int64(43), blockMasterSync.WorkerID())
	})

	t.Run("ReregisterFailure", func(t *testing.T) {
		store.EXPECT().GetBlockStoreMeta().Return(usage)
		masterClient.EXPECT().Heartbeat(gomock.Any(), &master.HeartbeatRequest{
			WorkerID:         43,
			UsedBytesOnTiers: map[string]int64{"MEM": 300, "SSD": 200},
		}).Return(&master.Command{Type: master.CommandRegister}, nil)
		masterClient.EXPECT().GetWorkerID(gomock.Any(), address).
			Return(int64(0), status.Error(codes.Unavailable, "Failed to obtain worker ID: Connection refused"))

		testutil.RequireEqualStatus(
			t,
			status.Error(codes.Unavailable, "Failed to register with master: Failed to obtain worker ID: Connection refused"),
			blockMasterSync.Heartbeat(ctx))

		// The next heartbeat retries registration.
		masterClient.EXPECT().GetWorkerID(gomock.Any(), address).Return(int64(44), nil)
		uuidGenerator.EXPECT().Call().Return(uuid.MustParse("6a1f7c2e-3b4d-4e5f-8a9b-0c1d2e3f4a5b"), nil)
		store.EXPECT().GetBlockStoreMetaFull().Return(fullMeta)
		masterClient.EXPECT().RegisterWorker(gomock.Any(), registerRequest(44, "6a1f7c2e-3b4d-4e5f-8a9b-0c1d2e3f4a5b"))
		store.EXPECT().GetBlockStoreMeta().Return(usage)
		masterClient.EXPECT().Heartbeat(gomock.Any(), &master.HeartbeatRequest{
			WorkerID:         44,
			UsedBytesOnTiers: map[string]int64{"MEM": 300, "SSD": 200},
		}).Return(&master.Command{Type: master.CommandNothing}, nil)

		require.NoError(t, blockMasterSync.Heartbeat(ctx))
		require.Equal(t, int64(44), blockMasterSync.WorkerID())
	})

	t.Run("UnknownCommand", func(t *testing.T) {
		store.EXPECT().GetBlockStoreMeta().Return(usage)
		masterClient.EXPECT().Heartbeat(gomock.Any(), gomock.Any()).
			Return(&master.Command{Type: "Persist"}, nil)

		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Master sent command of unknown type \"Persist\""),
			blockMasterSync.Heartbeat(ctx))
	})
}

func TestPinListSync(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	store := mock.NewMockBlockStore(ctrl)
	masterClient := mock.NewMockBlockMasterClient(ctrl)
	pinListSync := blockworker.NewPinListSync(store, masterClient)

	t.Run("Success", func(t *testing.T) {
		masterClient.EXPECT().GetPinList(gomock.Any()).Return([]int64{12, 7}, nil)
		store.EXPECT().UpdatePinnedInodes([]int64{12, 7})

		require.NoError(t, pinListSync.Heartbeat(ctx))
	})

	t.Run("Failure", func(t *testing.T) {
		// The previous pin list remains in effect.
		masterClient.EXPECT().GetPinList(gomock.Any()).
			Return(nil, status.Error(codes.Unavailable, "Failed to obtain pin list: Connection refused"))

		testutil.RequireEqualStatus(
			t,
			status.Error(codes.Unavailable, "Failed to synchronize pin list: Failed to obtain pin list: Connection refused"),
			pinListSync.Heartbeat(ctx))
	})
}

func TestStorageChecker(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	store := mock.NewMockBlockStore(ctrl)
	storageChecker := blockworker.NewStorageChecker(store)

	t.Run("AllAccessible", func(t *testing.T) {
		store.EXPECT().RemoveInaccessibleStorage()

		require.NoError(t, storageChecker.Heartbeat(ctx))
	})

	t.Run("DirectoryLost", func(t *testing.T) {
		store.EXPECT().RemoveInaccessibleStorage().Return(
			[]string{"/mnt/ssd1"},
			status.Error(codes.Internal, "Storage directories are inaccessible: \"/mnt/ssd1\": Input/output error"))

		testutil.RequireEqualStatus(
			t,
			status.Error(codes.Internal, "Storage directories are inaccessible: \"/mnt/ssd1\": Input/output error"),
			storageChecker.Heartbeat(ctx))
	})
}
