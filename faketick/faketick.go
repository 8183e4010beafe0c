// Package faketick provides deterministic, hand-rolled fakes for every
// collaborator interface paratick's TickEngine consults, plus a
// controllable clock, the same way butter-bot-machines-skylark's
// test/testutil mocks (mock_provider.go, mock_processor.go) implement
// their target interfaces by hand instead of pulling in a
// mocking-framework generator. It imports paratick only for the Jiffies
// value type WallClock.Jiffies must return. paratick's external test
// package (package paratick_test, manager_test.go) imports faketick back;
// paratick's internal tests define their own fakes instead, since an
// internal test importing faketick would form an import cycle.
//
// cmd/paratickd also builds its demo Collaborators from this package: the
// real RCU/softirq/scheduler/etc. subsystems this core calls into belong to
// a kernel, not a userspace program, so outside of tests there is nothing
// for a "real" implementation to wrap.
package faketick

import (
	"sync"
	"time"

	"github.com/caladan-labs/paratick"
)

// Clock is a fully controllable monotonic clock: tests advance it
// explicitly rather than sleeping. Its Now method alone satisfies
// paratick's unexported monotonicClock interface.
type Clock struct {
	mu  sync.Mutex
	now time.Duration
}

// NewClock creates a Clock starting at t0.
func NewClock(t0 time.Duration) *Clock {
	return &Clock{now: t0}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the fake clock forward by d and returns the new value.
func (c *Clock) Advance(d time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
	return c.now
}

// Set pins the fake clock to an absolute value.
func (c *Clock) Set(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// WallClock fakes paratick.WallClock with plain fields the test controls
// directly, instead of a generated expectation/matcher DSL.
type WallClock struct {
	mu                sync.Mutex
	lastJiffiesUpdate time.Duration
	jiffies           uint64
	maxDeferment      time.Duration
	idleCleared       int
	UpdateCalls       int
}

// NewWallClock creates a fake WallClock with the given MaxDeferment.
func NewWallClock(maxDeferment time.Duration) *WallClock {
	return &WallClock{maxDeferment: maxDeferment}
}

func (w *WallClock) LastJiffiesUpdate() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastJiffiesUpdate
}

// Jiffies returns the fake counter, wrapped as a paratick.Jiffies.
func (w *WallClock) Jiffies() paratick.Jiffies {
	w.mu.Lock()
	defer w.mu.Unlock()
	return paratick.NewJiffies(w.jiffies)
}

func (w *WallClock) UpdateJiffies64(now time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.UpdateCalls++
	w.lastJiffiesUpdate = now
	w.jiffies++
}

func (w *WallClock) ClearIdle() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.idleCleared++
}

func (w *WallClock) IdleClearedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.idleCleared
}

func (w *WallClock) MaxDeferment() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maxDeferment
}

func (w *WallClock) SetMaxDeferment(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.maxDeferment = d
}

// RCU fakes paratick.RCU.
type RCU struct {
	mu          sync.Mutex
	Needs       bool
	NextNs      time.Duration
	ClockIRQCnt int
}

func (r *RCU) NeedsCPU(base time.Duration) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Needs, r.NextNs
}

func (r *RCU) SchedClockIRQ(user bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ClockIRQCnt++
}

// Softirq fakes paratick.SoftirqSource.
type Softirq struct {
	mu             sync.Mutex
	Arch           bool
	IRQWork        bool
	IRQWorkTickCnt int
	TimerPending   bool
	AnyPending     bool
}

func (s *Softirq) ArchNeedsCPU() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Arch
}

func (s *Softirq) IRQWorkNeedsCPU() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.IRQWork
}

func (s *Softirq) IRQWorkTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.IRQWorkTickCnt++
}

func (s *Softirq) TimerSoftirqPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.TimerPending
}

func (s *Softirq) AnySoftirqPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.AnyPending
}

// TimerWheel fakes paratick.TimerWheel. NextNs is returned verbatim from
// NextInterrupt regardless of the base jiffies/mono arguments, since the
// fake's purpose is to let the test dictate the oracle's inputs directly.
type TimerWheel struct {
	mu          sync.Mutex
	NextNs      time.Duration
	RunLocalCnt int
}

func (t *TimerWheel) NextInterrupt(baseJiffies paratick.Jiffies, baseMono time.Duration) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.NextNs
}

func (t *TimerWheel) RunLocal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.RunLocalCnt++
}

// Scheduler fakes paratick.Scheduler, recording every accounted tick so
// tests can assert exact counts.
type Scheduler struct {
	mu        sync.Mutex
	TickCnt   int
	Accounted []bool // one entry per AccountProcessTick call, value=user, paired 1:1 with Accounting.ProfileTick
}

func (s *Scheduler) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TickCnt++
}

func (s *Scheduler) AccountProcessTick(user bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Accounted = append(s.Accounted, user)
}

func (s *Scheduler) AccountedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Accounted)
}

// Accounting fakes paratick.ProcessAccounting, paired 1:1 with Scheduler's
// AccountProcessTick calls.
type Accounting struct {
	mu         sync.Mutex
	ProfileCnt int
}

func (a *Accounting) ProfileTick() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ProfileCnt++
}

func (a *Accounting) ProfileCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ProfileCnt
}

// Posix fakes paratick.PosixCPUTimers.
type Posix struct {
	mu     sync.Mutex
	On     bool
	RunCnt int
}

func (p *Posix) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.On
}

func (p *Posix) Run() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RunCnt++
}

// NoHZ fakes paratick.NoHZBalancer, recording which CPUs entered the
// nohz-balance set.
type NoHZ struct {
	mu      sync.Mutex
	Entered []int
}

func (n *NoHZ) EnterIdle(cpu int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Entered = append(n.Entered, cpu)
}

func (n *NoHZ) EnteredCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Entered)
}

// SchedClock fakes paratick.SchedClock.
type SchedClock struct {
	mu       sync.Mutex
	EventCnt int
}

func (s *SchedClock) IdleSleepEvent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EventCnt++
}

// Watchdog fakes paratick.Watchdog.
type Watchdog struct {
	mu        sync.Mutex
	TouchCnt  int
}

func (w *Watchdog) TouchSoftLockup() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.TouchCnt++
}

// IntCtrl fakes paratick.InterruptController.
type IntCtrl struct {
	mu      sync.Mutex
	Acked   []int
}

func (i *IntCtrl) Ack(vector int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Acked = append(i.Acked, vector)
}

func (i *IntCtrl) AckCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.Acked)
}

// Set bundles one instance of every fake collaborator, for tests that want
// to both build a paratick.Collaborators and keep typed handles to poke or
// inspect individual fakes.
type Set struct {
	WallClock  *WallClock
	RCU        *RCU
	Softirq    *Softirq
	Timers     *TimerWheel
	Sched      *Scheduler
	Accounting *Accounting
	Posix      *Posix
	NoHZ       *NoHZ
	SchedClk   *SchedClock
	Watchdog   *Watchdog
	IntCtrl    *IntCtrl
}

// NewSet builds a Set with every fake in its zero-effort default state
// (no vetoes, saturating-max timer-wheel/RCU deadlines, POSIX timers off).
func NewSet() *Set {
	return &Set{
		WallClock:  NewWallClock(60 * time.Second),
		RCU:        &RCU{NextNs: maxNs},
		Softirq:    &Softirq{},
		Timers:     &TimerWheel{NextNs: maxNs},
		Sched:      &Scheduler{},
		Accounting: &Accounting{},
		Posix:      &Posix{},
		NoHZ:       &NoHZ{},
		SchedClk:   &SchedClock{},
		Watchdog:   &Watchdog{},
		IntCtrl:    &IntCtrl{},
	}
}

// maxNs is the saturating "nothing pending" sentinel fakes default their
// deadlines to, matching paratick's own KTIME_MAX-equivalent constant.
const maxNs = time.Duration(1<<63 - 1)

// Collaborators assembles a paratick.Collaborators from this Set.
func (s *Set) Collaborators() paratick.Collaborators {
	return paratick.Collaborators{
		WallClock:  s.WallClock,
		RCU:        s.RCU,
		Softirq:    s.Softirq,
		Timers:     s.Timers,
		Sched:      s.Sched,
		Accounting: s.Accounting,
		Posix:      s.Posix,
		NoHZ:       s.NoHZ,
		SchedClk:   s.SchedClk,
		Watchdog:   s.Watchdog,
		IntCtrl:    s.IntCtrl,
	}
}
