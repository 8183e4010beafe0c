package paratick

import (
	"time"
)

// oneShotTimer wraps a time.Timer as the owned per-CPU timer handle. It is
// armed with a relative delta (absolute deadline math is the caller's job)
// through a cancel-then-forward sequence, so a pending expiry from a
// previous arm is cancelled before the new one is set. A callback that has
// already started is not stopped (see cancel).
//
// The C source (paratick.c) force-expires the hrtimer to now-1 before
// calling hrtimer_forward, so hrtimer_forward's "expiry already in the
// past" fast path never sees a stale expiry left over from a previous arm.
// time.Timer has no forward-from-last-expiry primitive to defend against,
// so that trick has no Go equivalent; the stop-then-reset sequence below
// is sufficient because Go's timer has no notion of "relative to its own
// last expiry".
type oneShotTimer struct {
	t  *time.Timer
	fn func()
}

// newOneShotTimer creates a stopped timer; fn runs (in its own goroutine,
// per time.AfterFunc semantics) when the timer fires.
func newOneShotTimer(fn func()) *oneShotTimer {
	ot := &oneShotTimer{fn: fn}
	ot.t = time.AfterFunc(time.Duration(1<<62), fn)
	ot.t.Stop()
	return ot
}

// reset cancels any pending expiry and arms the timer to fire after delta.
// Must only be called by the CPU that owns this timer, with its flags
// already updated by the caller (PerCPUState.Arm does both together).
func (ot *oneShotTimer) reset(delta time.Duration) {
	ot.t.Stop()
	ot.t.Reset(delta)
}

// cancel stops the timer synchronously: once it returns, fn is guaranteed
// not to be invoked again for the expiry that was just cancelled. A
// callback already running when cancel is called is allowed to finish
// (Go's time.Timer.Stop offers no stronger guarantee): disarm is
// synchronous in the sense that no new expiry will fire, without claiming
// to interrupt a callback already executing.
func (ot *oneShotTimer) cancel() {
	ot.t.Stop()
}
