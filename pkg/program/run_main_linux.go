//go:build linux

package program

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// relaunchIfPID1 turns the current process into a reaper when it runs
// as PID 1, as is common for containers without an init process. The
// worker itself is started as a child process, while this process
// reaps every orphan that gets reparented to it. The child's
// termination status is propagated.
//
// Waiting on PID -1 cannot be done from the worker process itself, as
// it would race with the standard library waiting on individual
// children. https://github.com/golang/go/pull/61261
func relaunchIfPID1(pid int) {
	if pid != 1 {
		return
	}
	executable, err := os.Executable()
	if err != nil {
		log.Fatal("Failed to obtain path of current executable: ", err)
	}

	signal.Ignore(os.Interrupt, syscall.SIGTERM)
	childPID, err := syscall.ForkExec(executable, os.Args, &syscall.ProcAttr{
		Env:   os.Environ(),
		Files: []uintptr{0, 1, 2},
	})
	if err != nil {
		log.Fatal("Failed to relaunch current process: ", err)
	}

	for {
		var status unix.WaitStatus
		reaped, err := unix.Wait4(-1, &status, 0, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			log.Fatal("Failed to wait for process termination: ", err)
		}
		if reaped != childPID {
			continue
		}
		if status.Signaled() {
			raiseSignal(pid, status.Signal())
		}
		os.Exit(status.ExitStatus())
	}
}
