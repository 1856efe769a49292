// Package timer implements the per-task countdown state machine: work
// countdown, pause/resume, expiry confirmation, and the fixed five-minute
// break sub-mode.
package timer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BreakSeconds is the fixed length of the break countdown.
const BreakSeconds = 5 * 60

// ErrInvalidTransition is returned when an action is not legal in the
// machine's current state.
var ErrInvalidTransition = errors.New("invalid timer transition")

// State is the countdown lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateExpired // awaiting the user's completion decision
	StateBreakRunning
	StateBreakExpired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateExpired:
		return "expired"
	case StateBreakRunning:
		return "break_running"
	case StateBreakExpired:
		return "break_expired"
	default:
		return "unknown"
	}
}

// Snapshot is the observable timer state handed to the UI layer.
type Snapshot struct {
	State     State
	IsRunning bool
	TimeLeft  int // seconds
	TaskID    uuid.UUID
	IsBreak   bool
}

// Intent is the completion signal emitted when the user confirms a finished
// countdown.
type Intent struct {
	TaskID      uuid.UUID
	CompletedAt time.Time
}

// Machine drives a single countdown. It owns at most one Interval; starting
// a new task's countdown silently ends the previous one.
type Machine struct {
	mu       sync.Mutex
	state    State
	timeLeft int
	taskID   uuid.UUID
	isBreak  bool

	interval   *Interval
	now        func() time.Time
	onComplete func(Intent)
	logger     *slog.Logger
}

// NewMachine creates an idle machine ticking once per second. onComplete
// receives exactly one intent per confirmed completion.
func NewMachine(onComplete func(Intent), logger *slog.Logger) *Machine {
	return NewMachineWithPeriod(time.Second, onComplete, logger)
}

// NewMachineWithPeriod creates a machine driven at a custom tick period.
// Callers that advance the countdown through Tick themselves pass a long
// period so the owned interval never interferes.
func NewMachineWithPeriod(period time.Duration, onComplete func(Intent), logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Machine{
		state:      StateIdle,
		now:        time.Now,
		onComplete: onComplete,
		logger:     logger,
	}
	m.interval = NewInterval(period, m.Tick)
	return m
}

// Start begins a work countdown for the task. Any countdown already in
// progress is discarded. A zero estimate expires immediately, skipping the
// running phase.
func (m *Machine) Start(taskID uuid.UUID, estimatedMinutes int) {
	m.mu.Lock()
	m.taskID = taskID
	m.isBreak = false
	m.timeLeft = estimatedMinutes * 60

	if m.timeLeft <= 0 {
		m.timeLeft = 0
		m.state = StateExpired
		m.interval.Pause()
		m.mu.Unlock()
		return
	}

	m.state = StateRunning
	m.mu.Unlock()

	m.interval.Start()
	m.interval.Resume()
}

// Pause suspends a running countdown. The tick is suspended, not destroyed.
func (m *Machine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRunning {
		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, m.state)
	}
	m.state = StatePaused
	m.interval.Pause()
	return nil
}

// Resume continues a paused countdown from the remaining time, not from a
// recalculated elapsed time.
func (m *Machine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePaused {
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, m.state)
	}
	m.state = StateRunning
	m.interval.Resume()
	return nil
}

// Stop cancels the countdown, discarding remaining time. No completion
// intent is emitted.
func (m *Machine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRunning && m.state != StatePaused {
		return fmt.Errorf("%w: stop from %s", ErrInvalidTransition, m.state)
	}
	m.resetLocked()
	return nil
}

// ConfirmCompletion acknowledges an expired countdown, emitting exactly one
// completion intent for the owning task.
func (m *Machine) ConfirmCompletion() error {
	m.mu.Lock()
	if m.state != StateExpired {
		m.mu.Unlock()
		return fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, m.state)
	}
	intent := Intent{TaskID: m.taskID, CompletedAt: m.now().UTC()}
	m.resetLocked()
	onComplete := m.onComplete
	m.mu.Unlock()

	if onComplete != nil {
		onComplete(intent)
	}
	return nil
}

// StartBreak declines completion and begins the fixed break countdown.
func (m *Machine) StartBreak() error {
	m.mu.Lock()
	if m.state != StateExpired {
		m.mu.Unlock()
		return fmt.Errorf("%w: break from %s", ErrInvalidTransition, m.state)
	}
	m.state = StateBreakRunning
	m.isBreak = true
	m.timeLeft = BreakSeconds
	m.mu.Unlock()

	m.interval.Start()
	m.interval.Resume()
	return nil
}

// SkipBreak leaves the break early, always available during a break.
func (m *Machine) SkipBreak() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateBreakRunning && m.state != StateBreakExpired {
		return fmt.Errorf("%w: skip break from %s", ErrInvalidTransition, m.state)
	}
	m.resetLocked()
	return nil
}

// Reset forces the machine back to idle, cancelling the tick. Used on
// session teardown.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

// Tick advances the countdown by one second. Driven by the owned interval in
// production; tests call it directly.
func (m *Machine) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateRunning:
		if m.timeLeft > 0 {
			m.timeLeft--
		}
		if m.timeLeft == 0 {
			m.state = StateExpired
			m.interval.Pause()
		}
	case StateBreakRunning:
		if m.timeLeft > 0 {
			m.timeLeft--
		}
		if m.timeLeft == 0 {
			m.state = StateBreakExpired
			m.interval.Pause()
		}
	default:
		// Suspended or idle; nothing to advance.
	}
}

// Snapshot returns the observable timer state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:     m.state,
		IsRunning: m.state == StateRunning || m.state == StateBreakRunning,
		TimeLeft:  m.timeLeft,
		TaskID:    m.taskID,
		IsBreak:   m.isBreak,
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// resetLocked returns to idle and stops the interval outright: teardown must
// leave no tick goroutine behind. Start re-creates it.
func (m *Machine) resetLocked() {
	m.state = StateIdle
	m.timeLeft = 0
	m.taskID = uuid.Nil
	m.isBreak = false
	m.interval.Stop()
}

// SetNow overrides the clock used for completion timestamps. Test hook.
func (m *Machine) SetNow(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
