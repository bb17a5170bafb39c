package master_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/buildbarn/bb-blockworker/internal/mock"
	configuration "github.com/buildbarn/bb-blockworker/pkg/configuration/grpc"
	"github.com/buildbarn/bb-blockworker/pkg/master"
	"github.com/buildbarn/bb-blockworker/pkg/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestFailoverBlockMasterClient(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	inquireClient := mock.NewMockMasterInquireClient(ctrl)
	clientFactory := mock.NewMockClientFactory(ctrl)
	blockMasterClient := master.NewFailoverBlockMasterClient(inquireClient, clientFactory, &configuration.ClientConfiguration{
		MaximumReceivedMessageSizeBytes: 1 << 20,
	})

	t.Run("InquireFailure", func(t *testing.T) {
		inquireClient.EXPECT().GetPrimaryRPCAddress(ctx).
			Return("", status.Error(codes.Unavailable, "Failed to determine primary master rpc address after polling each of [master1:19998] 5 times"))

		_, err := blockMasterClient.GetPinList(ctx)
		testutil.RequireEqualStatus(t, status.Error(codes.Unavailable, "Failed to determine primary master rpc address after polling each of [master1:19998] 5 times"), err)
	})

	t.Run("Failover", func(t *testing.T) {
		// The first master is used until it fails with an
		// infrastructure error. After that, the primary master
		// is determined again.
		conn1 := mock.NewMockClientConnInterface(ctrl)
		inquireClient.EXPECT().GetPrimaryRPCAddress(ctx).Return("master1:19998", nil)
		clientFactory.EXPECT().NewClientFromConfiguration(&configuration.ClientConfiguration{
			Address:                         "master1:19998",
			MaximumReceivedMessageSizeBytes: 1 << 20,
		}).Return(conn1, nil)
		conn1.EXPECT().Invoke(ctx, "/buildbarn.blockmaster.BlockMasterWorkerService/GetPinList", gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
				return json.Unmarshal([]byte(`{"pinnedInodes":[1]}`), reply)
			})

		pinnedInodes, err := blockMasterClient.GetPinList(ctx)
		require.NoError(t, err)
		require.Equal(t, []int64{1}, pinnedInodes)

		// Errors that are not caused by the network should not
		// cause a failover.
		conn1.EXPECT().Invoke(ctx, "/buildbarn.blockmaster.BlockMasterWorkerService/CommitBlockInUfs", gomock.Any(), gomock.Any(), gomock.Any()).
			Return(status.Error(codes.NotFound, "Block does not exist"))

		testutil.RequireEqualStatus(
			t,
			status.Error(codes.NotFound, "Failed to commit block 12 in the backing store: Block does not exist"),
			blockMasterClient.CommitBlockInUFS(ctx, 12, 100))

		conn1.EXPECT().Invoke(ctx, "/buildbarn.blockmaster.BlockMasterWorkerService/GetPinList", gomock.Any(), gomock.Any(), gomock.Any()).
			Return(status.Error(codes.Unavailable, "Connection reset by peer"))

		_, err = blockMasterClient.GetPinList(ctx)
		testutil.RequireEqualStatus(t, status.Error(codes.Unavailable, "Failed to obtain pin list: Connection reset by peer"), err)

		conn2 := mock.NewMockClientConnInterface(ctrl)
		inquireClient.EXPECT().GetPrimaryRPCAddress(ctx).Return("master2:19998", nil)
		clientFactory.EXPECT().NewClientFromConfiguration(&configuration.ClientConfiguration{
			Address:                         "master2:19998",
			MaximumReceivedMessageSizeBytes: 1 << 20,
		}).Return(conn2, nil)
		conn2.EXPECT().Invoke(ctx, "/buildbarn.blockmaster.BlockMasterWorkerService/GetPinList", gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
				return json.Unmarshal([]byte(`{"pinnedInodes":[1,2]}`), reply)
			})

		pinnedInodes, err = blockMasterClient.GetPinList(ctx)
		require.NoError(t, err)
		require.Equal(t, []int64{1, 2}, pinnedInodes)
	})
}
