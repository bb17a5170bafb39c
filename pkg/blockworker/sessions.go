package blockworker

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/clock"
)

// Sessions keeps track of the last time clients sent a heartbeat for
// their session. Sessions for which no heartbeat has been received
// within the session timeout are considered abandoned.
type Sessions struct {
	clock   clock.Clock
	timeout time.Duration

	lock           sync.Mutex
	lastHeartbeats map[blockstore.SessionID]time.Time
}

// NewSessions creates a Sessions that has no sessions registered.
func NewSessions(clock clock.Clock, timeout time.Duration) *Sessions {
	return &Sessions{
		clock:          clock,
		timeout:        timeout,
		lastHeartbeats: map[blockstore.SessionID]time.Time{},
	}
}

// SessionHeartbeat registers a session, or extends the lifetime of
// an existing one.
func (s *Sessions) SessionHeartbeat(sessionID blockstore.SessionID) {
	now := s.clock.Now()
	s.lock.Lock()
	s.lastHeartbeats[sessionID] = now
	s.lock.Unlock()
}

// RemoveSession stops tracking a session.
func (s *Sessions) RemoveSession(sessionID blockstore.SessionID) {
	s.lock.Lock()
	delete(s.lastHeartbeats, sessionID)
	s.lock.Unlock()
}

// GetTimedOutSessions returns the IDs of all sessions whose last
// heartbeat is older than the session timeout, in ascending order.
func (s *Sessions) GetTimedOutSessions() []blockstore.SessionID {
	deadline := s.clock.Now().Add(-s.timeout)

	s.lock.Lock()
	var sessionIDs []blockstore.SessionID
	for sessionID, lastHeartbeat := range s.lastHeartbeats {
		if lastHeartbeat.Before(deadline) {
			sessionIDs = append(sessionIDs, sessionID)
		}
	}
	s.lock.Unlock()

	slices.Sort(sessionIDs)
	return sessionIDs
}

// SessionCleanable is implemented by components that hold resources
// on behalf of sessions.
type SessionCleanable interface {
	CleanupSession(sessionID blockstore.SessionID)
}

type sessionCleaner struct {
	sessions   *Sessions
	cleanables []SessionCleanable
}

// NewSessionCleaner creates a HeartbeatExecutor that releases all
// resources held by sessions that timed out.
func NewSessionCleaner(sessions *Sessions, cleanables ...SessionCleanable) HeartbeatExecutor {
	return &sessionCleaner{
		sessions:   sessions,
		cleanables: cleanables,
	}
}

func (sc *sessionCleaner) Heartbeat(ctx context.Context) error {
	for _, sessionID := range sc.sessions.GetTimedOutSessions() {
		log.Printf("Session %d timed out, releasing its locks and temporary blocks", sessionID)
		sc.sessions.RemoveSession(sessionID)
		for _, cleanable := range sc.cleanables {
			cleanable.CleanupSession(sessionID)
		}
	}
	return nil
}
