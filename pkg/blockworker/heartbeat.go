package blockworker

import (
	"context"
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/clock"
	"github.com/buildbarn/bb-blockworker/pkg/util"
)

// HeartbeatExecutor performs a unit of work that needs to be repeated
// periodically, such as reporting the state of the worker to the
// master.
type HeartbeatExecutor interface {
	Heartbeat(ctx context.Context) error
}

// RunHeartbeat calls into a HeartbeatExecutor repeatedly, waiting for
// the provided interval between calls. Errors returned by the executor
// are logged, but do not stop the loop. This function returns once
// the context is cancelled.
func RunHeartbeat(ctx context.Context, executor HeartbeatExecutor, clock clock.Clock, interval time.Duration, errorLogger util.ErrorLogger) {
	for {
		if err := executor.Heartbeat(ctx); err != nil && ctx.Err() == nil {
			errorLogger.Log(err)
		}

		timer, t := clock.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-t:
		}
	}
}
