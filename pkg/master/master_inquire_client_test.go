package master_test

import (
	"context"
	"testing"
	"time"

	"github.com/buildbarn/bb-blockworker/internal/mock"
	"github.com/buildbarn/bb-blockworker/pkg/master"
	"github.com/buildbarn/bb-blockworker/pkg/retry"
	"github.com/buildbarn/bb-blockworker/pkg/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func expectProbeContexts(clock *mock.MockClock) {
	clock.EXPECT().NewContextWithTimeout(gomock.Any(), 2*time.Second).
		DoAndReturn(func(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
			return context.WithCancel(parent)
		}).AnyTimes()
}

func TestPollingMasterInquireClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	addresses := []string{"master1:19998", "master2:19998", "master3:19998"}
	countingRetry := func() retry.Policy { return retry.NewCountingPolicy(3) }

	t.Run("ThirdMasterResponds", func(t *testing.T) {
		prober := mock.NewMockServiceProber(ctrl)
		clock := mock.NewMockClock(ctrl)
		expectProbeContexts(clock)
		inquireClient := master.NewPollingMasterInquireClient(addresses, prober, 2*time.Second, countingRetry, clock, nil)

		gomock.InOrder(
			prober.EXPECT().Probe(gomock.Any(), "master1:19998").
				Return(status.Error(codes.Unavailable, "Connection refused")),
			prober.EXPECT().Probe(gomock.Any(), "master2:19998").
				Return(status.Error(codes.DeadlineExceeded, "context deadline exceeded")),
			prober.EXPECT().Probe(gomock.Any(), "master3:19998"),
		)

		address, err := inquireClient.GetPrimaryRPCAddress(ctx)
		require.NoError(t, err)
		require.Equal(t, "master3:19998", address)
	})

	t.Run("NoMasterResponds", func(t *testing.T) {
		prober := mock.NewMockServiceProber(ctrl)
		clock := mock.NewMockClock(ctrl)
		expectProbeContexts(clock)
		inquireClient := master.NewPollingMasterInquireClient(addresses, prober, 2*time.Second, countingRetry, clock, nil)

		prober.EXPECT().Probe(gomock.Any(), gomock.Any()).
			Return(status.Error(codes.Unavailable, "Connection refused")).
			Times(9)

		_, err := inquireClient.GetPrimaryRPCAddress(ctx)
		testutil.RequireEqualStatus(t, status.Error(codes.Unavailable, "Failed to determine primary master rpc address after polling each of [master1:19998 master2:19998 master3:19998] 3 times"), err)
	})

	t.Run("NonNetworkErrorEndsPass", func(t *testing.T) {
		// Errors that are not caused by the network end the
		// current pass over the masters. The next pass starts
		// at the first master again.
		prober := mock.NewMockServiceProber(ctrl)
		clock := mock.NewMockClock(ctrl)
		expectProbeContexts(clock)
		inquireClient := master.NewPollingMasterInquireClient(addresses, prober, 2*time.Second, func() retry.Policy {
			return retry.NewCountingPolicy(2)
		}, clock, nil)

		gomock.InOrder(
			prober.EXPECT().Probe(gomock.Any(), "master1:19998").
				Return(status.Error(codes.Unavailable, "Connection refused")),
			prober.EXPECT().Probe(gomock.Any(), "master2:19998").
				Return(status.Error(codes.PermissionDenied, "Worker is not allowed to connect")),
			prober.EXPECT().Probe(gomock.Any(), "master1:19998").
				Return(status.Error(codes.Unavailable, "Connection refused")),
			prober.EXPECT().Probe(gomock.Any(), "master2:19998").
				Return(status.Error(codes.PermissionDenied, "Worker is not allowed to connect")),
		)

		_, err := inquireClient.GetPrimaryRPCAddress(ctx)
		testutil.RequireEqualStatus(t, status.Error(codes.Unavailable, "Failed to determine primary master rpc address after polling each of [master1:19998 master2:19998 master3:19998] 2 times"), err)
	})

	t.Run("Shuffle", func(t *testing.T) {
		prober := mock.NewMockServiceProber(ctrl)
		clock := mock.NewMockClock(ctrl)
		expectProbeContexts(clock)
		randomGenerator := mock.NewMockThreadSafeGenerator(ctrl)
		inquireClient := master.NewPollingMasterInquireClient(addresses, prober, 2*time.Second, countingRetry, clock, randomGenerator)

		// Reverse the order of the masters.
		randomGenerator.EXPECT().Shuffle(3, gomock.Any()).Do(func(n int, swap func(i, j int)) {
			swap(0, 2)
		})
		gomock.InOrder(
			prober.EXPECT().Probe(gomock.Any(), "master3:19998").
				Return(status.Error(codes.Unavailable, "Connection refused")),
			prober.EXPECT().Probe(gomock.Any(), "master2:19998"),
		)

		address, err := inquireClient.GetPrimaryRPCAddress(ctx)
		require.NoError(t, err)
		require.Equal(t, "master2:19998", address)

		// Shuffling should not affect the configured list.
		require.Equal(t, addresses, inquireClient.GetMasterRPCAddresses())
	})

	t.Run("Cancelled", func(t *testing.T) {
		prober := mock.NewMockServiceProber(ctrl)
		clock := mock.NewMockClock(ctrl)
		inquireClient := master.NewPollingMasterInquireClient(addresses, prober, 2*time.Second, countingRetry, clock, nil)

		cancelledCtx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := inquireClient.GetPrimaryRPCAddress(cancelledCtx)
		testutil.RequireEqualStatus(t, status.Error(codes.Canceled, "Failed to determine primary master rpc address: context canceled"), err)
	})
}
