package blockworker_test

import (
	"context"
	"testing"
	"time"

	"github.com/buildbarn/bb-blockworker/internal/mock"
	"github.com/buildbarn/bb-blockworker/pkg/blockworker"
	"github.com/buildbarn/bb-blockworker/pkg/testutil"
	"go.uber.org/mock/gomock"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRunHeartbeat(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	executor := mock.NewMockHeartbeatExecutor(ctrl)
	clock := mock.NewMockClock(ctrl)
	errorLogger := mock.NewMockErrorLogger(ctrl)

	ctx, cancel := context.WithCancel(ctx)
	timer1 := mock.NewMockTimer(ctrl)
	timerChan1 := make(chan time.Time, 1)
	timer2 := mock.NewMockTimer(ctrl)
	timerChan2 := make(chan time.Time, 1)

	gomock.InOrder(
		// A successful heartbeat, after which the interval
		// elapses.
		executor.EXPECT().Heartbeat(gomock.Any()),
		clock.EXPECT().NewTimer(10*time.Second).DoAndReturn(func(d time.Duration) (*mock.MockTimer, <-chan time.Time) {
			timerChan1 <- time.Unix(1010, 0)
			return timer1, timerChan1
		}),
		// Failures are logged, but do not terminate the loop.
		executor.EXPECT().Heartbeat(gomock.Any()).Return(status.Error(codes.Unavailable, "Master is unreachable")),
		errorLogger.EXPECT().Log(testutil.EqStatus(t, status.Error(codes.Unavailable, "Master is unreachable"))),
		clock.EXPECT().NewTimer(10*time.Second).DoAndReturn(func(d time.Duration) (*mock.MockTimer, <-chan time.Time) {
			cancel()
			return timer2, timerChan2
		}),
		timer2.EXPECT().Stop().Return(true))

	blockworker.RunHeartbeat(ctx, executor, clock, 10*time.Second, errorLogger)
}
