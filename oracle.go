package paratick

import "time"

// DeadlineKind distinguishes the three shapes a next-event computation can
// return: one tick period from now, an absolute deadline, or never.
type DeadlineKind int

const (
	// DeadlinePeriod means "one tick period from now", no deferral
	// permitted.
	DeadlinePeriod DeadlineKind = iota
	// DeadlineAt means a finite relative delta from now.
	DeadlineAt
	// DeadlineNever means no tick is needed until an external event
	// (an IRQ) wakes this CPU.
	DeadlineNever
)

// Deadline is the oracle's verdict: either "defer at most Delta", or
// DeadlineNever.
type Deadline struct {
	Kind  DeadlineKind
	Delta time.Duration // meaningful only when Kind != DeadlineNever
}

// OracleInputs bundles the read-only collaborator queries the oracle
// consults. It is assembled by the engine immediately before calling
// nextEvent, which keeps nextEvent itself a pure function of its
// arguments, re-entrant, with no mutable state of its own.
type OracleInputs struct {
	Now time.Duration

	RCUNeedsCPU     bool
	RCUNextNs       time.Duration
	ArchNeedsCPU    bool
	IRQWorkNeedsCPU bool
	TimerSoftirq    bool
	AnySoftirq      bool

	NextTimerNs time.Duration

	// NoTimekeeper is true when TimekeeperCpu == none, i.e. no CPU
	// currently holds the role. The clamp in step 3 below keys off this
	// global condition, not off whether this particular CPU is the
	// timekeeper: an idle CPU is just as entitled to a distant deadline
	// as the timekeeper itself, as long as some CPU is advancing jiffies.
	NoTimekeeper bool
	MaxDeferment time.Duration

	// ClearIdle is called by the oracle itself when the deadline turns out
	// to be sooner than one tick period, clearing the timer-is-idle state.
	// Supplied as a callback rather than a WallClock reference so nextEvent
	// stays a pure function over plain data plus one explicitly-named side
	// effect, instead of reaching into a collaborator interface.
	ClearIdle func()
}

// nextEvent decides how far the tick may be deferred: veto sources first,
// then the nearer of the RCU/timer-wheel deadlines, clamped to
// MaxDeferment whenever no CPU holds the timekeeper role.
//
// Tie-break rule: RCUNextNs wins ties against NextTimerNs (step 2 uses a
// strict "<", never "<=", against the timer-wheel deadline).
func nextEvent(in OracleInputs) Deadline {
	// Step 1: any veto source forbids deferral past one tick period.
	if in.RCUNeedsCPU || in.ArchNeedsCPU || in.IRQWorkNeedsCPU ||
		in.TimerSoftirq || in.AnySoftirq {
		return Deadline{Kind: DeadlinePeriod, Delta: TickPeriod}
	}

	// Step 2: deadline = min(next_rcu_ns, next_tmr_ns), RCU wins ties.
	deadline := in.NextTimerNs
	if in.RCUNextNs < in.NextTimerNs {
		deadline = in.RCUNextNs
	}
	delta := deadline - in.Now

	// Step 3: if no CPU holds the timekeeper role, clamp deferral to
	// MaxDeferment so jiffies can never drift further than that even
	// while the role sits vacant.
	if in.NoTimekeeper && in.MaxDeferment < delta {
		return Deadline{Kind: DeadlineAt, Delta: in.MaxDeferment}
	}

	// Step 4: sooner than one tick, don't try to fire faster than a
	// full tick, and tell the wall clock it is no longer idle-deferred.
	if delta < TickPeriod {
		if in.ClearIdle != nil {
			in.ClearIdle()
		}
		return Deadline{Kind: DeadlinePeriod, Delta: TickPeriod}
	}

	// Step 5: saturating maximum deadline means no tick is needed at all.
	if deadline == time.Duration(maxDeadline) {
		return Deadline{Kind: DeadlineNever}
	}

	// Step 6.
	return Deadline{Kind: DeadlineAt, Delta: delta}
}

// maxDeadline is the saturating "no deadline" sentinel collaborators
// return for NextTimerNs/RCUNextNs when they have nothing pending,
// analogous to KTIME_MAX in the C source.
const maxDeadline = time.Duration(1<<63 - 1)
