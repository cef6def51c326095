package goSession

import (
	"sync"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// SessionCallbacks defines a public type used by goSession APIs.
//
// SessionCallbacks instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionCallbacks struct {
	// OnWarning fires once when the idle warning threshold is crossed, with
	// the whole seconds left before idle expiry.
	OnWarning func(secondsRemaining int)
	// OnExpired fires once when the session expires on idle or absolute
	// lifetime grounds.
	OnExpired func()
}

// Engine owns the single current session and the flows that create one. It is
// constructed through [Builder.Build] and safe for concurrent use afterwards.
//
// Lock ordering: a [Verification] or [Setup] handle may call into the Engine,
// never the reverse while holding the engine mutex. Callbacks are invoked
// without any engine lock held.
type Engine struct {
	config Config
	clock  Clock

	credentials CredentialVerifier
	codes       CodeVerifier
	sender      CodeSender
	backup      BackupCodeIssuer
	twoFactor   TwoFactorStore
	store       SessionStore
	tokens      *jwt.Manager
	phones      *phoneValidator

	tracker   *attemptTracker
	audit     *auditDispatcher
	metrics   *Metrics
	callbacks SessionCallbacks

	mu          sync.Mutex
	current     *session.Session
	warning     bool
	warnTimer   Timer
	expireTimer Timer
	pending     *Verification
	closed      bool
}

// Metrics describes the metrics operation and its observable behavior.
//
// Metrics may return an error when input validation, dependency calls, or security checks fail.
// Metrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Metrics() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Close stops timers, cancels any pending verification, and drains the audit
// pipeline. The engine is unusable afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.stopTimersLocked()
	pending := e.pending
	e.pending = nil
	e.current = nil
	e.mu.Unlock()

	if pending != nil {
		pending.Cancel(nil)
	}
	e.audit.Close()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	e.metrics.Observe(id, d)
}
