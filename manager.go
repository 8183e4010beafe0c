package paratick

import (
	"sync/atomic"
	"time"
)

// paratickVector is the IRQ vector paratick installs its handler on,
// matching the C source's PARATICK_IRQ_VECTOR.
const paratickVector = 235

// vectorTable is a small in-process stand-in for per-CPU IRQ-descriptor
// tables: one handler per (cpu, vector). Real vector allocation,
// descriptor tables, and APIC wiring are out of scope; this only has to
// let Manager.Init assert "installed exactly once per CPU" and let tests
// drive OnIRQ through the same path a real IRQ would.
type vectorTable struct {
	installed map[int]map[int]func(user bool)
}

func newVectorTable() *vectorTable {
	return &vectorTable{installed: make(map[int]map[int]func(user bool))}
}

func (v *vectorTable) install(cpu, vector int, handler func(user bool)) error {
	perCPU, ok := v.installed[cpu]
	if !ok {
		perCPU = make(map[int]func(user bool))
		v.installed[cpu] = perCPU
	}
	if _, taken := perCPU[vector]; taken {
		return ErrVectorTaken
	}
	perCPU[vector] = handler
	return nil
}

func (v *vectorTable) deliver(cpu, vector int, user bool) {
	perCPU, ok := v.installed[cpu]
	if !ok {
		return
	}
	if h, ok := perCPU[vector]; ok {
		h(user)
	}
}

// Manager coordinates every virtual CPU's PerCPUState/TickEngine pair plus
// the single process-wide TimekeeperCpu variable. It is the Go analogue of
// paratick_init's per-module bring-up, generalized from one fixed NR_CPUS
// to a caller-chosen virtual CPU count.
type Manager struct {
	clock      monotonicClock
	col        Collaborators
	timekeeper atomic.Int64
	rng        atomic.Uint32
	vectors    *vectorTable

	tokens  []cpuToken
	states  []*PerCPUState
	engines []*TickEngine
}

// NewManager builds a Manager wired to col but does not yet bring up any
// virtual CPUs; call Init to do that. A nil clock uses the real monotonic
// clock (timestamp.Now()); tests pass a fake.
func NewManager(col Collaborators, clock monotonicClock) *Manager {
	col.validate()
	if clock == nil {
		clock = newRealClock()
	}
	m := &Manager{
		clock:   clock,
		col:     col,
		vectors: newVectorTable(),
	}
	m.timekeeper.Store(timekeeperNone)
	return m
}

// Init brings up n virtual CPUs: the Go analogue of paratick_init. It
// allocates each CPU's PerCPUState/TickEngine pair, installs the shared
// on_irq dispatcher into every CPU's simulated vector table entry, and
// seeds every CPU's last_tick with the current monotonic time. On error
// the Manager is left as it was: n <= 0 or a failed per-CPU bring-up
// commits no CPU at all, and a second call leaves the CPUs from the first
// call in place. The tick never partially initializes CPUs.
func (m *Manager) Init(n int) error {
	if n <= 0 {
		return ErrInvalidCPUCount
	}
	if len(m.states) != 0 {
		return ErrAlreadyInitialized
	}

	now := m.clock.Now()
	tokens := make([]cpuToken, n)
	states := make([]*PerCPUState, n)
	engines := make([]*TickEngine, n)

	for i := 0; i < n; i++ {
		tokens[i] = NewCPUToken(i)
		states[i] = newPerCPUState(i)
		engines[i] = newTickEngine(tokens[i], states[i], m.clock,
			&m.timekeeper, &m.rng, m.col)

		cpu := i
		err := states[i].Setup(tokens[i], now, func() {
			engines[cpu].OnIRQ(paratickVector, false)
		})
		if err != nil {
			return err
		}
		if err := m.vectors.install(cpu, paratickVector, func(user bool) {
			engines[cpu].OnIRQ(paratickVector, user)
		}); err != nil {
			return err
		}
	}

	m.tokens = tokens
	m.states = states
	m.engines = engines
	return nil
}

// NumCPU returns the number of virtual CPUs brought up by Init.
func (m *Manager) NumCPU() int { return len(m.states) }

// Engine returns the TickEngine for virtual CPU cpu.
func (m *Manager) Engine(cpu int) *TickEngine {
	if cpu < 0 || cpu >= len(m.engines) {
		PANIC("Engine: invalid cpu %d\n", cpu)
	}
	return m.engines[cpu]
}

// State returns the PerCPUState for virtual CPU cpu.
func (m *Manager) State(cpu int) *PerCPUState {
	if cpu < 0 || cpu >= len(m.states) {
		PANIC("State: invalid cpu %d\n", cpu)
	}
	return m.states[cpu]
}

// Token returns the pin token minted for virtual CPU cpu at Init time.
func (m *Manager) Token(cpu int) cpuToken {
	if cpu < 0 || cpu >= len(m.tokens) {
		PANIC("Token: invalid cpu %d\n", cpu)
	}
	return m.tokens[cpu]
}

// Timekeeper returns the CPU id currently responsible for advancing
// wall-clock state, or -1 if none holds the role.
func (m *Manager) Timekeeper() int64 {
	return m.timekeeper.Load()
}

// DeliverIRQ simulates an external IRQ arriving on cpu on the paratick
// vector, for tests and cmd/paratickd's demo harness: it runs IRQEnter,
// the installed handler, then IRQExit, the same sequence common IRQ entry/
// exit code would run around any hardware interrupt.
func (m *Manager) DeliverIRQ(cpu int, user bool) {
	e := m.Engine(cpu)
	e.IRQEnter()
	m.vectors.deliver(cpu, paratickVector, user)
	e.IRQExit()
}

// Now returns the manager's monotonic clock reading, exposed for tests and
// demo harnesses that need to compute absolute deadlines.
func (m *Manager) Now() time.Duration {
	return m.clock.Now()
}
