package goSession

import (
	"sync"
	"time"
)

// attemptTracker counts failed code submissions per verification flow and
// locks a flow once the threshold is reached. State is keyed by verification
// ID and lives only as long as the flow; switching methods inside a flow
// shares the same counter.
type attemptTracker struct {
	clock           Clock
	maxAttempts     int
	lockoutDuration time.Duration

	mu    sync.Mutex
	flows map[string]*flowAttempts
}

type flowAttempts struct {
	failures    int
	lockedUntil time.Time
}

func newAttemptTracker(clock Clock, maxAttempts int, lockoutDuration time.Duration) *attemptTracker {
	return &attemptTracker{
		clock:           clock,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
		flows:           make(map[string]*flowAttempts),
	}
}

// RecordFailure increments the failure count for the flow and reports whether
// the flow just entered lockout, plus the attempts still available. Calls
// while locked are ignored and do not increment.
func (t *attemptTracker) RecordFailure(id string) (locked bool, remaining int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f := t.flow(id)
	if t.lockedLocked(f) {
		return true, 0
	}

	f.failures++
	if f.failures >= t.maxAttempts {
		f.lockedUntil = t.clock.Now().Add(t.lockoutDuration)
		return true, 0
	}
	return false, t.maxAttempts - f.failures
}

// RecordSuccess clears the flow's failure state.
func (t *attemptTracker) RecordSuccess(id string) {
	t.mu.Lock()
	delete(t.flows, id)
	t.mu.Unlock()
}

// Status reports whether the flow is locked and, if so, the whole seconds
// until the lockout clears.
func (t *attemptTracker) Status(id string) (locked bool, secondsRemaining int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.flows[id]
	if !ok {
		return false, 0
	}
	if !t.lockedLocked(f) {
		return false, 0
	}

	rem := f.lockedUntil.Sub(t.clock.Now())
	secs := int((rem + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return true, secs
}

// Failures reports the current failure count for the flow.
func (t *attemptTracker) Failures(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.flows[id]
	if !ok {
		return 0
	}
	t.lockedLocked(f)
	return f.failures
}

// Remaining reports the attempts left before the flow locks.
func (t *attemptTracker) Remaining(id string) int {
	rem := t.maxAttempts - t.Failures(id)
	if rem < 0 {
		return 0
	}
	return rem
}

// Forget drops all state for the flow.
func (t *attemptTracker) Forget(id string) {
	t.mu.Lock()
	delete(t.flows, id)
	t.mu.Unlock()
}

func (t *attemptTracker) flow(id string) *flowAttempts {
	f, ok := t.flows[id]
	if !ok {
		f = &flowAttempts{}
		t.flows[id] = f
	}
	return f
}

// lockedLocked reports whether the flow is currently locked, resetting the
// counter in place once an expired lockout is observed. Caller holds t.mu.
func (t *attemptTracker) lockedLocked(f *flowAttempts) bool {
	if f.lockedUntil.IsZero() {
		return false
	}
	if t.clock.Now().Before(f.lockedUntil) {
		return true
	}

	// Lockout elapsed: the flow gets a fresh set of attempts.
	f.failures = 0
	f.lockedUntil = time.Time{}
	return false
}
