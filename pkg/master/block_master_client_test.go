package master_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/buildbarn/bb-blockworker/internal/mock"
	"github.com/buildbarn/bb-blockworker/pkg/master"
	"github.com/buildbarn/bb-blockworker/pkg/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// replyWith returns a function that can be used with DoAndReturn to
// fill in the response message of a unary RPC, as if it was decoded
// from the wire.
func replyWith(t *testing.T, expectedRequest, response string) func(context.Context, string, any, any, ...grpc.CallOption) error {
	return func(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
		request, err := json.Marshal(args)
		require.NoError(t, err)
		require.JSONEq(t, expectedRequest, string(request))
		return json.Unmarshal([]byte(response), reply)
	}
}

func TestGRPCBlockMasterClient(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	conn := mock.NewMockClientConnInterface(ctrl)
	blockMasterClient := master.NewGRPCBlockMasterClient(conn)

	t.Run("GetWorkerID", func(t *testing.T) {
		conn.EXPECT().Invoke(ctx, "/buildbarn.blockmaster.BlockMasterWorkerService/GetWorkerId", gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(replyWith(t, `{"address":{"host":"worker1","rpcPort":29999,"webPort":30000}}`, `{"workerId":42}`))

		workerID, err := blockMasterClient.GetWorkerID(ctx, master.WorkerNetAddress{
			Host:    "worker1",
			RPCPort: 29999,
			WebPort: 30000,
		})
		require.NoError(t, err)
		require.Equal(t, int64(42), workerID)
	})

	t.Run("HeartbeatNothing", func(t *testing.T) {
		// Masters may omit the command type if there is nothing
		// to do.
		conn.EXPECT().Invoke(ctx, "/buildbarn.blockmaster.BlockMasterWorkerService/Heartbeat", gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
				return json.Unmarshal([]byte(`{}`), reply)
			})

		command, err := blockMasterClient.Heartbeat(ctx, &master.HeartbeatRequest{WorkerID: 42})
		require.NoError(t, err)
		require.Equal(t, &master.Command{Type: master.CommandNothing}, command)
	})

	t.Run("HeartbeatFree", func(t *testing.T) {
		conn.EXPECT().Invoke(ctx, "/buildbarn.blockmaster.BlockMasterWorkerService/Heartbeat", gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
				return json.Unmarshal([]byte(`{"type":"Free","blockIds":[1,2,3]}`), reply)
			})

		command, err := blockMasterClient.Heartbeat(ctx, &master.HeartbeatRequest{WorkerID: 42})
		require.NoError(t, err)
		require.Equal(t, &master.Command{Type: master.CommandFree, BlockIDs: []int64{1, 2, 3}}, command)
	})

	t.Run("HeartbeatFailure", func(t *testing.T) {
		conn.EXPECT().Invoke(ctx, "/buildbarn.blockmaster.BlockMasterWorkerService/Heartbeat", gomock.Any(), gomock.Any(), gomock.Any()).
			Return(status.Error(codes.Unavailable, "Connection refused"))

		_, err := blockMasterClient.Heartbeat(ctx, &master.HeartbeatRequest{WorkerID: 42})
		testutil.RequireEqualStatus(t, status.Error(codes.Unavailable, "Failed to send heartbeat of worker 42: Connection refused"), err)
	})

	t.Run("CommitBlockInUFS", func(t *testing.T) {
		conn.EXPECT().Invoke(ctx, "/buildbarn.blockmaster.BlockMasterWorkerService/CommitBlockInUfs", gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(replyWith(t, `{"blockId":1000,"length":4096}`, `{}`))

		require.NoError(t, blockMasterClient.CommitBlockInUFS(ctx, 1000, 4096))
	})

	t.Run("GetPinList", func(t *testing.T) {
		conn.EXPECT().Invoke(ctx, "/buildbarn.blockmaster.BlockMasterWorkerService/GetPinList", gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(replyWith(t, `{}`, `{"pinnedInodes":[7,9]}`))

		pinnedInodes, err := blockMasterClient.GetPinList(ctx)
		require.NoError(t, err)
		require.Equal(t, []int64{7, 9}, pinnedInodes)
	})
}
