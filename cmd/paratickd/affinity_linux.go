//go:build linux

package main

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCPU binds the calling OS thread to a single real core, the
// userspace analogue of an hrtimer armed HRTIMER_MODE_ABS_PINNED_HARD: the
// timer (and the goroutine servicing it) must not migrate. Grounded on
// the same unix.SchedSetaffinity/unix.Gettid pairing used for worker-pool
// pinning elsewhere in the retrieval pack.
func pinToCPU(cpu int) {
	n := runtime.NumCPU()
	if n <= 1 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu % n)
	// Best effort: pinning requires appropriate privileges in some
	// environments (containers without CAP_SYS_NICE). A failure here
	// only means the demo loses pinning, not correctness.
	_ = unix.SchedSetaffinity(unix.Gettid(), &set)
}
