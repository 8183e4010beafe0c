package paratick

import "testing"

// Any veto source forces DeadlinePeriod regardless of the timer-wheel/RCU
// deadlines.
func TestOracleVetoDominance(t *testing.T) {
	base := OracleInputs{
		Now:          1_000_000_000,
		RCUNextNs:    maxDeadline,
		NextTimerNs:  maxDeadline,
		NoTimekeeper: false,
		MaxDeferment: maxDeadline,
	}

	vetoes := []func(*OracleInputs){
		func(in *OracleInputs) { in.RCUNeedsCPU = true },
		func(in *OracleInputs) { in.ArchNeedsCPU = true },
		func(in *OracleInputs) { in.IRQWorkNeedsCPU = true },
		func(in *OracleInputs) { in.TimerSoftirq = true },
		func(in *OracleInputs) { in.AnySoftirq = true },
	}
	for i, set := range vetoes {
		in := base
		set(&in)
		d := nextEvent(in)
		if d.Kind != DeadlinePeriod {
			t.Fatalf("veto %d: expected DeadlinePeriod, got %+v", i, d)
		}
		if d.Delta != TickPeriod {
			t.Fatalf("veto %d: expected delta == one tick period, got %+v", i, d)
		}
	}
}

// When no CPU is timekeeper and the nearer of the RCU/timer-wheel
// deadlines exceeds MaxDeferment, the returned deadline is clamped to
// MaxDeferment.
func TestOracleDefermentClamp(t *testing.T) {
	in := OracleInputs{
		Now:          0,
		RCUNextNs:    200_000_000,
		NextTimerNs:  100_000_000,
		NoTimekeeper: true,
		MaxDeferment: 60_000_000,
	}
	d := nextEvent(in)
	if d.Kind != DeadlineAt || d.Delta != 60_000_000 {
		t.Fatalf("expected clamp to 60ms, got %+v", d)
	}
}

// The clamp is a global condition: it fires whenever no CPU holds the
// timekeeper role, regardless of which CPU is asking.
func TestOracleIdleDistantDeadlineClampsWhenNoTimekeeper(t *testing.T) {
	in := OracleInputs{
		Now:          0,
		NextTimerNs:  100_000_000,
		RCUNextNs:    200_000_000,
		NoTimekeeper: true,
		MaxDeferment: 60_000_000,
	}
	d := nextEvent(in)
	if d.Kind != DeadlineAt || d.Delta != 60_000_000 {
		t.Fatalf("expected 60ms clamp, got %+v", d)
	}
}

// As soon as some CPU holds the timekeeper role, the clamp is exempted
// entirely: an idle CPU with a distant deadline is not forced down to
// MaxDeferment just because it personally isn't the timekeeper.
func TestOracleDistantDeadlineNotClampedWhenTimekeeperHeld(t *testing.T) {
	in := OracleInputs{
		Now:          0,
		NextTimerNs:  200_000_000,
		RCUNextNs:    300_000_000,
		NoTimekeeper: false,
		MaxDeferment: 60_000_000,
	}
	d := nextEvent(in)
	if d.Kind != DeadlineAt || d.Delta != 200_000_000 {
		t.Fatalf("expected the full 200ms deadline, not clamped to MaxDeferment, got %+v", d)
	}
}

// A deadline sooner than one tick period clears the idle-timer state and
// falls back to DeadlinePeriod, instead of arming for a sub-tick delta.
func TestOracleNearDeadlineClearsIdleAndFallsBackToPeriod(t *testing.T) {
	cleared := 0
	in := OracleInputs{
		Now:          0,
		NextTimerNs:  1_500_000,
		RCUNextNs:    200_000_000,
		NoTimekeeper: false,
		MaxDeferment: maxDeadline,
		ClearIdle:    func() { cleared++ },
	}
	d := nextEvent(in)
	if d.Kind != DeadlinePeriod {
		t.Fatalf("expected DeadlinePeriod, got %+v", d)
	}
	if cleared != 1 {
		t.Fatalf("expected ClearIdle called once, got %d", cleared)
	}
}

// A pending softirq vetoes deferral even when every other input would
// otherwise allow it.
func TestOracleSoftirqVetoOverridesEverything(t *testing.T) {
	in := OracleInputs{
		Now:          0,
		NextTimerNs:  maxDeadline,
		RCUNextNs:    maxDeadline,
		NoTimekeeper: false,
		MaxDeferment: maxDeadline,
		AnySoftirq:   true,
	}
	d := nextEvent(in)
	if d.Kind != DeadlinePeriod {
		t.Fatalf("expected DeadlinePeriod, got %+v", d)
	}
}

// RCU wins ties against the timer wheel.
func TestOracleTieBreakRCUWins(t *testing.T) {
	in := OracleInputs{
		Now:          0,
		NextTimerNs:  10 * TickPeriod,
		RCUNextNs:    10 * TickPeriod, // exactly equal: RCU should "win"
		NoTimekeeper: false,
		MaxDeferment: maxDeadline,
	}
	d := nextEvent(in)
	// Equal deadlines produce the same delta either way; the tie-break
	// only matters when callers care which collaborator "owns" the
	// deadline. Assert the delta matches the shared value.
	if d.Kind != DeadlineAt || d.Delta != 10*TickPeriod {
		t.Fatalf("expected delta == 10 tick periods, got %+v", d)
	}
}

// No tick needed at all: both collaborators saturate to maxDeadline.
func TestOracleNever(t *testing.T) {
	in := OracleInputs{
		Now:          0,
		NextTimerNs:  maxDeadline,
		RCUNextNs:    maxDeadline,
		NoTimekeeper: false,
		MaxDeferment: maxDeadline,
	}
	d := nextEvent(in)
	if d.Kind != DeadlineNever {
		t.Fatalf("expected DeadlineNever, got %+v", d)
	}
}
