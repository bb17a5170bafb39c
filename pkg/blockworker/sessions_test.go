package blockworker_test

import (
	"context"
	"testing"
	"time"

	"github.com/buildbarn/bb-blockworker/internal/mock"
	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/blockworker"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSessions(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	clock := mock.NewMockClock(ctrl)
	sessions := blockworker.NewSessions(clock, time.Minute)
	cleanable1 := mock.NewMockSessionCleanable(ctrl)
	cleanable2 := mock.NewMockSessionCleanable(ctrl)
	sessionCleaner := blockworker.NewSessionCleaner(sessions, cleanable1, cleanable2)

	clock.EXPECT().Now().Return(time.Unix(1000, 0))
	sessions.SessionHeartbeat(3)
	clock.EXPECT().Now().Return(time.Unix(1010, 0))
	sessions.SessionHeartbeat(1)
	clock.EXPECT().Now().Return(time.Unix(1020, 0))
	sessions.SessionHeartbeat(2)

	t.Run("NoneTimedOut", func(t *testing.T) {
		clock.EXPECT().Now().Return(time.Unix(1060, 0))
		require.NoError(t, sessionCleaner.Heartbeat(ctx))
	})

	t.Run("SomeTimedOut", func(t *testing.T) {
		// Sessions are cleaned up in ascending order. Session 2
		// sent its last heartbeat exactly one timeout ago.
		clock.EXPECT().Now().Return(time.Unix(1080, 0))
		gomock.InOrder(
			cleanable1.EXPECT().CleanupSession(blockstore.SessionID(1)),
			cleanable2.EXPECT().CleanupSession(blockstore.SessionID(1)),
			cleanable1.EXPECT().CleanupSession(blockstore.SessionID(3)),
			cleanable2.EXPECT().CleanupSession(blockstore.SessionID(3)))
		require.NoError(t, sessionCleaner.Heartbeat(ctx))

		// Sessions that have been cleaned up are no longer
		// tracked.
		clock.EXPECT().Now().Return(time.Unix(1080, 0))
		require.Empty(t, sessions.GetTimedOutSessions())
	})

	t.Run("HeartbeatExtendsLifetime", func(t *testing.T) {
		clock.EXPECT().Now().Return(time.Unix(1070, 0))
		sessions.SessionHeartbeat(2)

		clock.EXPECT().Now().Return(time.Unix(1100, 0))
		require.Empty(t, sessions.GetTimedOutSessions())

		clock.EXPECT().Now().Return(time.Unix(1131, 0))
		require.Equal(t, []blockstore.SessionID{2}, sessions.GetTimedOutSessions())
	})

	t.Run("RemoveSession", func(t *testing.T) {
		sessions.RemoveSession(2)
		clock.EXPECT().Now().Return(time.Unix(2000, 0))
		require.Empty(t, sessions.GetTimedOutSessions())
	})
}
