package goSession

import (
	"sync"
	"time"
)

// CountdownKind defines a public type used by goSession APIs.
//
// CountdownKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CountdownKind uint8

const (
	// CountdownTOTPRefresh is an exported constant or variable used by the session engine.
	CountdownTOTPRefresh CountdownKind = iota
	// CountdownResendCooldown is an exported constant or variable used by the session engine.
	CountdownResendCooldown
	// CountdownLockout is an exported constant or variable used by the session engine.
	CountdownLockout
)

// Countdown tracks a single deadline or repeating window and reports the time
// left in whole seconds. Remaining time is always recomputed from the clock,
// never accumulated from ticks, so a suspended process that wakes past the
// deadline observes zero immediately.
//
// A totp-refresh countdown repeats every period and never elapses; the other
// kinds fire onElapsed once and stop.
type Countdown struct {
	kind      CountdownKind
	clock     Clock
	period    time.Duration
	deadline  time.Time
	onTick    func(remaining time.Duration)
	onElapsed func()

	mu    sync.Mutex
	timer Timer
	done  bool
}

// StartCountdown describes the startcountdown operation and its observable behavior.
//
// StartCountdown may return an error when input validation, dependency calls, or security checks fail.
// StartCountdown does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func StartCountdown(clock Clock, kind CountdownKind, d time.Duration, onTick func(time.Duration), onElapsed func()) *Countdown {
	if clock == nil {
		clock = systemClock{}
	}

	c := &Countdown{
		kind:      kind,
		clock:     clock,
		onTick:    onTick,
		onElapsed: onElapsed,
	}
	if kind == CountdownTOTPRefresh {
		c.period = d
	} else {
		c.deadline = clock.Now().Add(d)
	}

	c.mu.Lock()
	c.schedule()
	c.mu.Unlock()

	return c
}

// Remaining describes the remaining operation and its observable behavior.
//
// Remaining may return an error when input validation, dependency calls, or security checks fail.
// Remaining does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Countdown) Remaining() time.Duration {
	now := c.clock.Now()
	if c.kind == CountdownTOTPRefresh {
		return totpRemaining(now, c.period)
	}

	rem := c.deadline.Sub(now)
	if rem < 0 {
		return 0
	}
	return rem
}

// Cancel stops the countdown. Cancel is idempotent; no callback fires after
// it returns while the caller holds the same lock order as the callbacks.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.done = true
	if c.timer != nil {
		c.timer.Stop()
	}
}

// Done describes the done operation and its observable behavior.
//
// Done may return an error when input validation, dependency calls, or security checks fail.
// Done does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Countdown) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Countdown) tick() {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}

	rem := c.Remaining()

	if c.kind != CountdownTOTPRefresh && rem <= 0 {
		c.done = true
		elapsed := c.onElapsed
		tickFn := c.onTick
		c.mu.Unlock()
		if tickFn != nil {
			tickFn(0)
		}
		if elapsed != nil {
			elapsed()
		}
		return
	}

	tickFn := c.onTick
	c.schedule()
	c.mu.Unlock()

	if tickFn != nil {
		tickFn(rem)
	}
}

// schedule arms the next wakeup. Caller holds c.mu.
func (c *Countdown) schedule() {
	next := time.Second
	if c.kind != CountdownTOTPRefresh {
		if rem := c.Remaining(); rem < next {
			next = rem
		}
	}
	if next <= 0 {
		next = time.Millisecond
	}
	c.timer = c.clock.AfterFunc(next, c.tick)
}

// totpRemaining reports how long the current code window has left:
// period minus the position of now inside the window.
func totpRemaining(now time.Time, period time.Duration) time.Duration {
	if period <= 0 {
		return 0
	}
	secs := int64(period / time.Second)
	if secs <= 0 {
		return 0
	}
	into := now.Unix() % secs
	return time.Duration(secs-into) * time.Second
}
