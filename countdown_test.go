package goSession

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCountdownElapsesOnce(t *testing.T) {
	clock := newFakeClock()

	var ticks atomic.Int64
	var elapsed atomic.Int64
	c := StartCountdown(clock, CountdownResendCooldown, 3*time.Second, func(time.Duration) {
		ticks.Add(1)
	}, func() {
		elapsed.Add(1)
	})

	clock.Advance(10 * time.Second)

	if got := elapsed.Load(); got != 1 {
		t.Fatalf("onElapsed fired %d times, want 1", got)
	}
	if !c.Done() {
		t.Fatal("countdown should be done")
	}
	if got := c.Remaining(); got != 0 {
		t.Fatalf("remaining after elapse = %v, want 0", got)
	}

	// Further time passing must not fire anything again.
	clock.Advance(10 * time.Second)
	if got := elapsed.Load(); got != 1 {
		t.Fatalf("onElapsed fired %d times after done", got)
	}
	if ticks.Load() == 0 {
		t.Fatal("expected at least one tick")
	}
}

func TestCountdownRemainingSurvivesSuspension(t *testing.T) {
	clock := newFakeClock()
	c := StartCountdown(clock, CountdownLockout, 5*time.Minute, nil, nil)

	// Jump well past the deadline in one step, as a suspended process would.
	clock.Advance(time.Hour)

	if got := c.Remaining(); got != 0 {
		t.Fatalf("remaining after suspension = %v, want 0", got)
	}
	if !c.Done() {
		t.Fatal("countdown should have elapsed during the jump")
	}
}

func TestCountdownCancelIsIdempotent(t *testing.T) {
	clock := newFakeClock()

	var elapsed atomic.Int64
	c := StartCountdown(clock, CountdownResendCooldown, time.Minute, nil, func() {
		elapsed.Add(1)
	})

	c.Cancel()
	c.Cancel()

	clock.Advance(2 * time.Minute)
	if got := elapsed.Load(); got != 0 {
		t.Fatalf("onElapsed fired %d times after cancel", got)
	}
	if !c.Done() {
		t.Fatal("cancelled countdown should report done")
	}
}

func TestCountdownTOTPRefreshNeverElapses(t *testing.T) {
	clock := newFakeClock()

	var elapsed atomic.Int64
	c := StartCountdown(clock, CountdownTOTPRefresh, 30*time.Second, nil, func() {
		elapsed.Add(1)
	})
	defer c.Cancel()

	clock.Advance(5 * time.Minute)

	if got := elapsed.Load(); got != 0 {
		t.Fatalf("totp-refresh countdown elapsed %d times", got)
	}
	if c.Done() {
		t.Fatal("totp-refresh countdown should keep running")
	}

	rem := c.Remaining()
	if rem <= 0 || rem > 30*time.Second {
		t.Fatalf("totp remaining = %v, want within (0, 30s]", rem)
	}
}

func TestTOTPRemainingTracksWindowPosition(t *testing.T) {
	period := 30 * time.Second

	base := time.Unix(100, 0) // 10 seconds into a window
	if got := totpRemaining(base, period); got != 20*time.Second {
		t.Fatalf("remaining = %v, want 20s", got)
	}

	boundary := time.Unix(120, 0) // exactly on a boundary
	if got := totpRemaining(boundary, period); got != 30*time.Second {
		t.Fatalf("remaining at boundary = %v, want 30s", got)
	}
}
