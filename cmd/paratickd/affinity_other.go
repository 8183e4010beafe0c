//go:build !linux

package main

// pinToCPU is a no-op outside Linux: scheduler affinity is a Linux-specific
// syscall, and the demo degrades gracefully to unpinned goroutines.
func pinToCPU(cpu int) {}
