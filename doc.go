// Package paratick implements a per-CPU dynamic tick (tickless) scheduler
// core: an adaptive one-shot timer that fires only when work is due instead
// of a fixed-period interrupt. Idle CPUs suppress the tick entirely; busy
// CPUs get the minimum of a base tick period and the next real deadline.
// One CPU at a time is elected "timekeeper", responsible for advancing
// global wall-clock state.
//
// Since this is a userspace simulation of a kernel subsystem, "CPU" means
// a virtual CPU: a long-lived goroutine holding a PerCPUState, optionally
// pinned to a real core (see cmd/paratickd). The package never touches
// more than one virtual CPU's state from outside that CPU's own goroutine.
package paratick

const NAME = "paratick"
