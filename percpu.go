package paratick

import (
	"time"
)

// cpuToken is a pin-token capability: proof that the holder's goroutine is
// the one pinned to a given virtual CPU. Every state-mutating PerCPUState
// method (Setup, Arm, Disarm) takes one, and mustOwn PANICs when the
// token's CPU id does not match the state's. Manager.Init mints exactly
// one token per virtual CPU at bring-up and hands it to that CPU's
// TickEngine.
type cpuToken struct {
	cpu int
}

// CPU returns the virtual CPU id this token was minted for.
func (t cpuToken) CPU() int { return t.cpu }

// NewCPUToken mints a pin token for cpu. Callers are trusted to mint at
// most one per virtual CPU and never share it across goroutines; like the
// kernel's pinning contract, this is undefined behavior to violate, not a
// runtime-checked error.
func NewCPUToken(cpu int) cpuToken {
	return cpuToken{cpu: cpu}
}

// PerCPUState holds one virtual CPU's timer handle, flag triple, and last
// accounting timestamp. Only ever mutated by code holding
// this CPU's pin token.
type PerCPUState struct {
	id       int
	flags    cpuFlags
	timer    *oneShotTimer
	lastTick time.Duration // monotonic offset of the last accounting pass
}

// newPerCPUState allocates an uninitialized per-CPU state. Setup must be
// called before any other method.
func newPerCPUState(id int) *PerCPUState {
	return &PerCPUState{id: id}
}

// ID returns this state's virtual CPU id.
func (s *PerCPUState) ID() int { return s.id }

// Flags returns a point-in-time snapshot of the flag triple.
func (s *PerCPUState) Flags() Flags { return s.flags.all() }

// Setup initializes the timer for this CPU and installs onExpiry as its
// callback. Precondition: called once per CPU, by code
// pinned to that CPU (token.CPU() == s.id), before any other PerCPUState
// method.
func (s *PerCPUState) Setup(token cpuToken, now time.Duration, onExpiry func()) error {
	s.mustOwn(token)
	if s.flags.has(flagInitialized) {
		return ErrAlreadyInitialized
	}
	s.timer = newOneShotTimer(onExpiry)
	s.lastTick = now
	s.flags.set(flagInitialized)
	return nil
}

// Arm programs the timer to fire at now+delta (absolute deadline math is
// the caller's job; reset only knows the relative delta). Cancels any
// prior expiry first so the sequence is atomic with respect to this CPU,
// matching the timer's "cancel-then-forward" arming requirement.
func (s *PerCPUState) Arm(token cpuToken, delta time.Duration) {
	s.mustOwn(token)
	if !s.flags.has(flagInitialized) {
		PANIC("Arm called on uninitialized CPU %d\n", s.id)
	}
	s.timer.reset(delta)
	s.flags.set(flagTimerArmed)
}

// Disarm cancels the timer and clears timer_armed.
func (s *PerCPUState) Disarm(token cpuToken) {
	s.mustOwn(token)
	if !s.flags.has(flagInitialized) {
		PANIC("Disarm called on uninitialized CPU %d\n", s.id)
	}
	s.timer.cancel()
	s.flags.clear(flagTimerArmed)
}

func (s *PerCPUState) mustOwn(token cpuToken) {
	if token.cpu != s.id {
		PANIC("pin-token/state mismatch: token for CPU %d used on CPU %d\n",
			token.cpu, s.id)
	}
}
