package program

import (
	"context"
	"sync"
)

// localShutdown records the first error returned by any of the
// routines launched by RunLocal().
type localShutdown struct {
	once     sync.Once
	cancel   context.CancelFunc
	firstErr error
}

func (s *localShutdown) Log(err error) {
	s.once.Do(func() {
		s.firstErr = err
		s.cancel()
	})
}

// RunLocal runs a routine and everything it spawns until completion,
// returning the first error any of them yields. It is used by tests
// and by components that need a scoped group of goroutines with the
// same sibling and dependency semantics as RunMain().
func RunLocal(ctx context.Context, routine Routine) error {
	ctx, cancel := context.WithCancel(ctx)
	s := &localShutdown{cancel: cancel}
	run(ctx, s, routine)
	s.once.Do(cancel)
	return s.firstErr
}
