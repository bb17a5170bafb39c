package program

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"
)

// forcedShutdownDelay is the amount of time routines are given to
// terminate after a signal is received. Once exceeded, the process
// exits without waiting for them.
const forcedShutdownDelay = 30 * time.Second

// mainShutdown keeps track of how RunMain() should terminate the
// process. The first event that arrives (an error, a signal or the
// completion of all routines) decides.
type mainShutdown struct {
	once   sync.Once
	cancel context.CancelFunc
	exit   func()
}

func (s *mainShutdown) start(exit func()) bool {
	started := false
	s.once.Do(func() {
		s.exit = exit
		s.cancel()
		started = true
	})
	return started
}

// Log is called for every routine that fails. Only the first failure
// initiates shutdown. Subsequent failures are merely logged.
func (s *mainShutdown) Log(err error) {
	log.Print("Fatal error: ", err)
	s.start(func() { os.Exit(1) })
}

// raiseSignal terminates the process with the signal that initiated
// shutdown, so that the parent observes the original cause.
func raiseSignal(pid int, sig os.Signal) {
	if runtime.GOOS == "windows" {
		os.Exit(1)
	}
	signal.Reset(sig)
	if process, err := os.FindProcess(pid); err == nil {
		process.Signal(sig)
	}

	// Signal delivery is asynchronous and may be dropped if the
	// signal is ignored by the process group.
	// https://github.com/golang/go/issues/19326
	time.Sleep(time.Second)
	os.Exit(1)
}

// RunMain runs the routines of a long-running process, such as
// bb_blockworker. It returns never. The process exits:
//
//   - with code 0 once the root routine and all of its siblings
//     have terminated,
//
//   - with code 1 once any routine fails, after the remaining ones
//     have been canceled,
//
//   - with the received signal upon SIGINT or SIGTERM, after the
//     remaining routines have been canceled.
//
// Dependencies are canceled after the routines that depend on them,
// meaning that the connection to the master remains usable while the
// worker's heartbeat executors wind down.
func RunMain(routine Routine) {
	pid := os.Getpid()
	relaunchIfPID1(pid)

	ctx, cancel := context.WithCancel(context.Background())
	shutdown := &mainShutdown{cancel: cancel}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		log.Printf("Received %s signal. Initiating graceful shutdown.", sig)
		if shutdown.start(func() { raiseSignal(pid, sig) }) {
			time.AfterFunc(forcedShutdownDelay, func() {
				log.Printf("Routines did not terminate within %s. Forcing shutdown.", forcedShutdownDelay)
				raiseSignal(pid, sig)
			})
		}
	}()

	run(ctx, shutdown, routine)

	shutdown.start(func() { os.Exit(0) })
	shutdown.exit()
}
