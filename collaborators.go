package paratick

import "time"

// The interfaces below are the narrow collaborator contracts the tick
// engine consults (RCU, arch, irq_work, softirq, the software timer wheel,
// the scheduler, process accounting, POSIX CPU timers, nohz balancing, the
// scheduler clock, the soft-lockup watchdog, and the interrupt
// controller). The tick-engine core only calls into them; it never
// reimplements what they do. Production wiring is the caller's job
// (see cmd/paratickd); package faketick provides deterministic fakes for
// every one of them for use in tests.

// WallClock stands in for jiffies/tick_do_update_jiffies64/
// timekeeping_max_deferment.
type WallClock interface {
	// LastJiffiesUpdate returns the monotonic base used by rcu_needs_cpu's
	// deadline math.
	LastJiffiesUpdate() time.Duration
	// Jiffies returns the current tick counter.
	Jiffies() Jiffies
	// UpdateJiffies64 advances wall-clock state to now. Idempotent: may be
	// called more than once for the same or an earlier now.
	UpdateJiffies64(now time.Duration)
	// ClearIdle clears the "timer-is-idle" state (timer_clear_idle).
	ClearIdle()
	// MaxDeferment is the longest interval after which jiffies must be
	// updated to avoid overflow.
	MaxDeferment() time.Duration
}

// RCU stands in for rcu_needs_cpu/rcu_sched_clock_irq.
type RCU interface {
	// NeedsCPU reports whether RCU vetoes tick deferral, and if not, the
	// absolute deadline (relative to the same origin as monotonicClock)
	// by which RCU next needs attention.
	NeedsCPU(base time.Duration) (need bool, nextNs time.Duration)
	// SchedClockIRQ runs RCU's per-tick processing.
	SchedClockIRQ(user bool)
}

// SoftirqSource stands in for arch_needs_cpu/irq_work_needs_cpu/
// local_softirq_pending/local_timer_softirq_pending.
type SoftirqSource interface {
	ArchNeedsCPU() bool
	IRQWorkNeedsCPU() bool
	IRQWorkTick()
	TimerSoftirqPending() bool
	AnySoftirqPending() bool
}

// TimerWheel stands in for the software timer wheel: get_next_timer_interrupt
// and run_local_timers. Deliberately not reimplemented here: the tick
// engine only queries and drives it.
type TimerWheel interface {
	NextInterrupt(baseJiffies Jiffies, baseMono time.Duration) time.Duration
	RunLocal()
}

// Scheduler stands in for scheduler_tick/account_process_tick.
type Scheduler interface {
	Tick()
	AccountProcessTick(user bool)
}

// ProcessAccounting stands in for profile_tick.
type ProcessAccounting interface {
	ProfileTick()
}

// PosixCPUTimers stands in for the CONFIG_POSIX_TIMERS capability probe
// plus run_posix_cpu_timers.
type PosixCPUTimers interface {
	Enabled() bool
	Run()
}

// NoHZBalancer stands in for nohz_balance_enter_idle.
type NoHZBalancer interface {
	EnterIdle(cpu int)
}

// SchedClock stands in for sched_clock_idle_sleep_event.
type SchedClock interface {
	IdleSleepEvent()
}

// Watchdog stands in for touch_softlockup_watchdog_sched.
type Watchdog interface {
	TouchSoftLockup()
}

// InterruptController stands in for the interrupt controller's
// end-of-interrupt acknowledgement (e.g. ack_APIC_irq).
type InterruptController interface {
	Ack(vector int)
}

// Collaborators bundles every external dependency a Manager needs. All
// fields are required; NewManager rejects a nil one rather than silently
// no-op'ing (a missing collaborator is a wiring bug, not a runtime
// condition to tolerate).
type Collaborators struct {
	WallClock  WallClock
	RCU        RCU
	Softirq    SoftirqSource
	Timers     TimerWheel
	Sched      Scheduler
	Accounting ProcessAccounting
	Posix      PosixCPUTimers
	NoHZ       NoHZBalancer
	SchedClk   SchedClock
	Watchdog   Watchdog
	IntCtrl    InterruptController
}

// validate panics (via PANIC, so it is silent unless the logger's level
// permits it and always fatal) if any field is unset. A missing
// collaborator cannot be discovered any other way until the first call
// that needs it, by which point the nil-interface panic points at the
// wrong line.
func (c Collaborators) validate() {
	switch {
	case c.WallClock == nil:
		PANIC("Collaborators: WallClock is nil\n")
	case c.RCU == nil:
		PANIC("Collaborators: RCU is nil\n")
	case c.Softirq == nil:
		PANIC("Collaborators: Softirq is nil\n")
	case c.Timers == nil:
		PANIC("Collaborators: Timers is nil\n")
	case c.Sched == nil:
		PANIC("Collaborators: Sched is nil\n")
	case c.Accounting == nil:
		PANIC("Collaborators: Accounting is nil\n")
	case c.Posix == nil:
		PANIC("Collaborators: Posix is nil\n")
	case c.NoHZ == nil:
		PANIC("Collaborators: NoHZ is nil\n")
	case c.SchedClk == nil:
		PANIC("Collaborators: SchedClk is nil\n")
	case c.Watchdog == nil:
		PANIC("Collaborators: Watchdog is nil\n")
	case c.IntCtrl == nil:
		PANIC("Collaborators: IntCtrl is nil\n")
	}
}
