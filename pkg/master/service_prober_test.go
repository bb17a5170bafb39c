package master_test

import (
	"context"
	"testing"

	"github.com/buildbarn/bb-blockworker/internal/mock"
	configuration "github.com/buildbarn/bb-blockworker/pkg/configuration/grpc"
	"github.com/buildbarn/bb-blockworker/pkg/master"
	"github.com/buildbarn/bb-blockworker/pkg/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func TestGRPCHealthServiceProber(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	clientFactory := mock.NewMockClientFactory(ctrl)
	prober := master.NewGRPCHealthServiceProber(clientFactory, nil, "buildbarn.blockmaster.BlockMasterWorkerService")

	respondWithStatus := func(servingStatus grpc_health_v1.HealthCheckResponse_ServingStatus) func(context.Context, string, any, any, ...grpc.CallOption) error {
		return func(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
			require.Equal(t, "buildbarn.blockmaster.BlockMasterWorkerService", args.(*grpc_health_v1.HealthCheckRequest).Service)
			reply.(*grpc_health_v1.HealthCheckResponse).Status = servingStatus
			return nil
		}
	}

	t.Run("Serving", func(t *testing.T) {
		conn := mock.NewMockClientConnInterface(ctrl)
		clientFactory.EXPECT().NewClientFromConfiguration(&configuration.ClientConfiguration{Address: "master1:19998"}).Return(conn, nil)
		conn.EXPECT().Invoke(ctx, "/grpc.health.v1.Health/Check", gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(respondWithStatus(grpc_health_v1.HealthCheckResponse_SERVING))

		require.NoError(t, prober.Probe(ctx, "master1:19998"))
	})

	t.Run("NotServing", func(t *testing.T) {
		// Standby masters report that they are not serving.
		conn := mock.NewMockClientConnInterface(ctrl)
		clientFactory.EXPECT().NewClientFromConfiguration(&configuration.ClientConfiguration{Address: "master2:19998"}).Return(conn, nil)
		conn.EXPECT().Invoke(ctx, "/grpc.health.v1.Health/Check", gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(respondWithStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING))

		testutil.RequireEqualStatus(
			t,
			status.Error(codes.Unavailable, "Master \"master2:19998\" reports status NOT_SERVING"),
			prober.Probe(ctx, "master2:19998"))
	})

	t.Run("ClientCreationFailure", func(t *testing.T) {
		clientFactory.EXPECT().NewClientFromConfiguration(&configuration.ClientConfiguration{Address: "master3"}).
			Return(nil, status.Error(codes.InvalidArgument, "Missing port in address"))

		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Failed to create client for master \"master3\": Missing port in address"),
			prober.Probe(ctx, "master3"))
	})
}
