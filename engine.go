package paratick

import (
	"math/bits"
	"sync/atomic"
	"time"
)

// TickEngine orchestrates idle entry/exit, IRQ entry/exit, timer firing,
// and timekeeping-CPU election for one virtual CPU. It owns a PerCPUState
// and a reference to the process-wide timekeeper variable plus the
// collaborators it calls into.
type TickEngine struct {
	token cpuToken
	state *PerCPUState
	clock monotonicClock

	// timekeeper is shared across every TickEngine in a Manager: the
	// single process-wide TimekeeperCpu variable. Relaxed atomic access is
	// sufficient, races are tolerated because both the elector and the
	// handler re-validate on use.
	timekeeper *atomic.Int64

	col Collaborators

	// rng is the process-wide per-tick stir word, preserved for behavioral
	// equivalence with the C source's net_rand_state.s1 but not
	// load-bearing.
	rng *atomic.Uint32
}

func newTickEngine(token cpuToken, state *PerCPUState, clock monotonicClock,
	timekeeper *atomic.Int64, rng *atomic.Uint32, col Collaborators) *TickEngine {
	return &TickEngine{
		token:      token,
		state:      state,
		clock:      clock,
		timekeeper: timekeeper,
		col:        col,
		rng:        rng,
	}
}

// CPU returns the virtual CPU id this engine runs on.
func (e *TickEngine) CPU() int { return e.token.cpu }

// EnterIdle marks this CPU idle and, if it was the timekeeper, relinquishes
// that role. No timer is programmed here: arming is deferred to StartIdle
// so that work enqueued in the small window between the two calls is
// observed.
func (e *TickEngine) EnterIdle() {
	e.state.flags.set(flagInIdle)
	e.timekeeper.CompareAndSwap(int64(e.CPU()), timekeeperNone)
	e.col.SchedClk.IdleSleepEvent()
	if DBGon() {
		DBG("cpu %d entering idle\n", e.CPU())
	}
}

// StartIdle asks the oracle for the next deadline and arms or disarms the
// timer accordingly. Precondition: Setup has already run.
func (e *TickEngine) StartIdle() {
	if !e.state.flags.has(flagInitialized) {
		return
	}
	now := e.clock.Now()
	next := e.queryOracle(now)

	switch next.Kind {
	case DeadlineNever:
		if e.state.flags.has(flagTimerArmed) {
			e.state.Disarm(e.token)
		}
	default:
		e.state.Arm(e.token, next.Delta)
	}

	// KTIME_MAX (DeadlineNever) is, by construction, greater than one tick
	// period, so this also fires in the never case: a CPU with nothing at
	// all pending still joins the nohz-balance set, same as rearm below.
	if next.Kind == DeadlineNever || next.Delta > TickPeriod {
		e.col.NoHZ.EnterIdle(e.CPU())
	}
}

// ExitIdle clears idle state on a wake event. The active path re-arms as
// part of its normal tick handler, so any currently armed timer is
// disarmed here unconditionally.
func (e *TickEngine) ExitIdle() {
	e.col.WallClock.ClearIdle()
	e.state.flags.clear(flagInIdle)
	if e.state.flags.has(flagTimerArmed) {
		e.state.Disarm(e.token)
	}
}

// IRQEnter runs at the entry of any hardware IRQ handler. If this CPU is
// idle, it catches wall-clock time up exactly once so that an IRQ arriving
// during long idle does not leave jiffies stale.
func (e *TickEngine) IRQEnter() {
	if e.state.flags.has(flagInitialized) && e.state.flags.has(flagInIdle) {
		e.col.WallClock.UpdateJiffies64(e.clock.Now())
	}
	e.col.Watchdog.TouchSoftLockup()
}

// IRQExit signals the scheduler clock that an idle sleep event has ended,
// symmetric to EnterIdle's notification.
func (e *TickEngine) IRQExit() {
	e.col.SchedClk.IdleSleepEvent()
}

// OnTimerExpiry is the tick body: timekeeper election, one wall-clock
// advance, missed-tick accounting, the rest of the per-tick collaborator
// pass, and re-arming via the oracle. user reports whether the interrupted
// frame was running in user mode.
func (e *TickEngine) OnTimerExpiry(user bool) {
	cpu := e.CPU()
	now := e.clock.Now()

	// Timekeeper election: promote on the first non-idle tick observed
	// while no CPU holds the role.
	if !e.state.flags.has(flagInIdle) {
		e.timekeeper.CompareAndSwap(timekeeperNone, int64(cpu))
	}
	isTimekeeper := e.timekeeper.Load() == int64(cpu)
	if isTimekeeper {
		e.col.WallClock.UpdateJiffies64(now)
	}

	e.accountTicks(now, user)

	e.col.Timers.RunLocal()
	e.col.RCU.SchedClockIRQ(user)
	// irq_work_tick only runs in IRQ context; OnTimerExpiry always runs
	// in the timer's hard-IRQ-equivalent context, so it is unconditional
	// here (the C source's in_irq() guard is always true on this path).
	e.col.Softirq.IRQWorkTick()
	e.col.Sched.Tick()
	if e.col.Posix.Enabled() {
		e.col.Posix.Run()
	}
	e.stirRNG(user)

	e.rearm()
}

// accountTicks computes the number of whole ticks elapsed since last_tick
// using integer division (floor, not rounding), and calls
// profile_tick/account_process_tick once per missed tick.
func (e *TickEngine) accountTicks(now time.Duration, user bool) {
	n := int64((now - e.state.lastTick) / TickPeriod)
	for i := int64(0); i < n; i++ {
		e.col.Accounting.ProfileTick()
		e.col.Sched.AccountProcessTick(user)
	}
	e.state.lastTick = now
}

// stirRNG folds a rotate-left of the current jiffies counter into the
// process-wide RNG word, mirroring the C source's
// `net_rand_state.s1 += rol32(jiffies, 24) + user`. Not load-bearing,
// preserved for behavioral equivalence only.
func (e *TickEngine) stirRNG(user bool) {
	j := uint32(e.col.WallClock.Jiffies().Val())
	stir := bits.RotateLeft32(j, 24)
	if user {
		stir++
	}
	for {
		cur := e.rng.Load()
		if e.rng.CompareAndSwap(cur, cur+stir) {
			return
		}
	}
}

// rearm calls the oracle again and either forwards the timer or disarms
// it, matching the timer-callback half of the tick body.
func (e *TickEngine) rearm() {
	now := e.clock.Now()
	next := e.queryOracle(now)
	switch next.Kind {
	case DeadlineNever:
		e.state.flags.clear(flagTimerArmed)
		e.col.NoHZ.EnterIdle(e.CPU())
	default:
		e.state.Arm(e.token, next.Delta)
	}
}

// OnIRQ is the installed IRQ handler for the paratick vector: it runs the
// tick body then acknowledges the interrupt controller. The split from
// OnTimerExpiry lets the same tick body also be driven by a dedicated IPI
// vector for cross-CPU tick delivery.
func (e *TickEngine) OnIRQ(vector int, user bool) {
	e.OnTimerExpiry(user)
	e.col.IntCtrl.Ack(vector)
}

// queryOracle assembles OracleInputs from the collaborators and this
// engine's timekeeper status, then calls the pure nextEvent function.
func (e *TickEngine) queryOracle(now time.Duration) Deadline {
	need, nextRCU := e.col.RCU.NeedsCPU(e.col.WallClock.LastJiffiesUpdate())
	in := OracleInputs{
		Now:             now,
		RCUNeedsCPU:     need,
		RCUNextNs:       nextRCU,
		ArchNeedsCPU:    e.col.Softirq.ArchNeedsCPU(),
		IRQWorkNeedsCPU: e.col.Softirq.IRQWorkNeedsCPU(),
		TimerSoftirq:    e.col.Softirq.TimerSoftirqPending(),
		AnySoftirq:      e.col.Softirq.AnySoftirqPending(),
		NextTimerNs: e.col.Timers.NextInterrupt(
			e.col.WallClock.Jiffies(), e.col.WallClock.LastJiffiesUpdate()),
		NoTimekeeper: e.timekeeper.Load() == timekeeperNone,
		MaxDeferment: e.col.WallClock.MaxDeferment(),
		ClearIdle:    e.col.WallClock.ClearIdle,
	}
	d := nextEvent(in)
	if DBGon() {
		DBG("cpu %d oracle: kind=%d delta=%s\n", e.CPU(), d.Kind, d.Delta)
	}
	return d
}
