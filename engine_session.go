package goSession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/session"
)

// Snapshot returns a read-only view of the current session, or nil when no
// session is active. Mutating the snapshot has no effect on the engine.
func (e *Engine) Snapshot() *SessionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Touch refreshes the idle deadline in response to user activity. The
// deadline never moves past the absolute expiry, and activity observed after
// either deadline has passed expires the session instead.
func (e *Engine) Touch(ctx context.Context) error {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return ErrNoActiveSession
	}
	if e.deadlinePassedLocked() {
		e.expireLocked(ctx)
		return ErrSessionExpired
	}

	e.current.IdleDeadline = e.nextIdleDeadlineLocked().Unix()
	e.warning = false
	e.scheduleTimersLocked()
	e.mu.Unlock()
	return nil
}

// ExtendSession pushes the idle deadline out and persists the refreshed
// record. If the store rejects the write the local session is cleared and
// the caller must treat the user as logged out.
//
// ExtendSession may return an error when input validation, dependency calls, or security checks fail.
// ExtendSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ExtendSession(ctx context.Context) (*SessionSnapshot, error) {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	if e.deadlinePassedLocked() {
		e.expireLocked(ctx)
		return nil, ErrSessionExpired
	}

	prevIdle := e.current.IdleDeadline
	e.current.IdleDeadline = e.nextIdleDeadlineLocked().Unix()

	if err := e.store.Save(ctx, e.current); err != nil {
		// The backend refused the extension; holding the session open
		// locally would let the UI outlive the source of truth.
		e.current.IdleDeadline = prevIdle
		userID := e.current.UserID
		sid := e.current.SessionID
		e.clearSessionLocked()
		e.mu.Unlock()

		e.metricInc(MetricForcedLogout)
		e.emitAudit(ctx, auditEventForcedLogout, false, userID, sid, "", ErrSessionExtendRejected, nil)
		e.notifyExpired()
		return nil, fmt.Errorf("%w: %v", ErrSessionExtendRejected, err)
	}

	e.warning = false
	e.scheduleTimersLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.metricInc(MetricSessionExtended)
	e.emitAudit(ctx, auditEventSessionExtended, true, snap.UserID, snap.SessionID, "", nil, nil)
	return snap, nil
}

// Logout ends the session. Local state is cleared unconditionally and
// synchronously; remote revocation is attempted afterwards and its failure
// is reported but does not resurrect the session.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context) error {
	e.mu.Lock()
	cur := e.current
	pending := e.pending
	e.pending = nil
	if cur != nil {
		e.clearSessionLocked()
	}
	e.mu.Unlock()

	if pending != nil {
		pending.Cancel(ctx)
	}
	if cur == nil {
		return ErrNoActiveSession
	}

	e.metricInc(MetricLogout)

	err := e.store.Clear(ctx)
	if err != nil {
		e.emitAudit(ctx, auditEventLogout, false, cur.UserID, cur.SessionID, "", ErrSessionBackendUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrSessionBackendUnavailable, err)
	}
	e.emitAudit(ctx, auditEventLogout, true, cur.UserID, cur.SessionID, "", nil, nil)
	return nil
}

// Resume rehydrates a persisted session at startup. Missing, expired,
// corrupt, or tampered records are cleared and reported as no session.
//
// Resume may return an error when input validation, dependency calls, or security checks fail.
// Resume does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Resume(ctx context.Context) (*SessionSnapshot, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	if e.current != nil {
		e.mu.Unlock()
		return nil, ErrSessionActive
	}
	e.mu.Unlock()

	sess, err := e.store.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrSessionCorrupt) {
			_ = e.store.Clear(ctx)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionBackendUnavailable, err)
	}
	if sess == nil {
		return nil, nil
	}

	now := e.clock.Now()
	if !now.Before(time.Unix(sess.ExpiresAt, 0)) || !now.Before(time.Unix(sess.IdleDeadline, 0)) {
		_ = e.store.Clear(ctx)
		e.metricInc(MetricSessionExpired)
		e.emitAudit(ctx, auditEventSessionExpired, false, sess.UserID, sess.SessionID, "", ErrSessionExpired, nil)
		return nil, nil
	}

	claims, err := e.tokens.ParseSessionToken(sess.Token)
	if err != nil || claims.SID != sess.SessionID || claims.Subject != sess.UserID {
		_ = e.store.Clear(ctx)
		e.emitAudit(ctx, auditEventSessionResumed, false, sess.UserID, sess.SessionID, "", ErrTokenInvalid, nil)
		return nil, nil
	}

	e.mu.Lock()
	if e.current != nil {
		e.mu.Unlock()
		return nil, ErrSessionActive
	}
	e.current = sess
	e.warning = false
	e.scheduleTimersLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.metricInc(MetricSessionResumed)
	e.emitAudit(ctx, auditEventSessionResumed, true, sess.UserID, sess.SessionID, Method(sess.Method), nil, nil)
	return snap, nil
}

// issueSessionLocked creates, persists, and activates a session. Caller
// holds e.mu and has verified no session is active.
func (e *Engine) issueSessionLocked(ctx context.Context, userID string, remember, secondFactor bool, method Method) (*SessionSnapshot, error) {
	now := e.clock.Now()

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}

	expires := now.Add(e.config.Session.AbsoluteLifetime)
	idle := now.Add(e.idleTimeout(remember))
	if idle.After(expires) {
		idle = expires
	}

	token, err := e.tokens.CreateSessionToken(userID, sid.String(), string(method), remember, secondFactor, now, expires)
	if err != nil {
		return nil, err
	}

	sess := &session.Session{
		SessionID:             sid.String(),
		UserID:                userID,
		Token:                 token,
		Method:                string(method),
		Remember:              remember,
		SecondFactorSatisfied: secondFactor,
		IssuedAt:              now.Unix(),
		ExpiresAt:             expires.Unix(),
		IdleDeadline:          idle.Unix(),
	}

	if err := e.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionBackendUnavailable, err)
	}

	e.current = sess
	e.warning = false
	e.scheduleTimersLocked()

	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, userID, sess.SessionID, method, nil, nil)
	return e.snapshotLocked(), nil
}

func (e *Engine) idleTimeout(remember bool) time.Duration {
	if remember {
		return e.config.Session.RememberIdleTimeout
	}
	return e.config.Session.IdleTimeout
}

func (e *Engine) nextIdleDeadlineLocked() time.Time {
	idle := e.clock.Now().Add(e.idleTimeout(e.current.Remember))
	expires := time.Unix(e.current.ExpiresAt, 0)
	if idle.After(expires) {
		return expires
	}
	return idle
}

func (e *Engine) deadlinePassedLocked() bool {
	now := e.clock.Now()
	return !now.Before(time.Unix(e.current.IdleDeadline, 0)) ||
		!now.Before(time.Unix(e.current.ExpiresAt, 0))
}

func (e *Engine) snapshotLocked() *SessionSnapshot {
	if e.current == nil {
		return nil
	}
	return &SessionSnapshot{
		SessionID:             e.current.SessionID,
		UserID:                e.current.UserID,
		Token:                 e.current.Token,
		Remember:              e.current.Remember,
		SecondFactorSatisfied: e.current.SecondFactorSatisfied,
		Method:                Method(e.current.Method),
		IssuedAt:              time.Unix(e.current.IssuedAt, 0),
		ExpiresAt:             time.Unix(e.current.ExpiresAt, 0),
		IdleDeadline:          time.Unix(e.current.IdleDeadline, 0),
		WarningActive:         e.warning,
	}
}

/*
====================================
IDLE WATCHER
====================================
*/

// scheduleTimersLocked re-arms the warning and expiry timers from the
// current idle deadline. Caller holds e.mu.
func (e *Engine) scheduleTimersLocked() {
	e.stopTimersLocked()
	if e.current == nil {
		return
	}

	now := e.clock.Now()
	idle := time.Unix(e.current.IdleDeadline, 0)
	warnAt := idle.Add(-e.config.Session.WarningLead)

	if warnDelay := warnAt.Sub(now); warnDelay > 0 {
		e.warnTimer = e.clock.AfterFunc(warnDelay, e.onWarnTimer)
	} else if !e.warning {
		e.warnTimer = e.clock.AfterFunc(time.Millisecond, e.onWarnTimer)
	}

	expireDelay := idle.Sub(now)
	if expireDelay < time.Millisecond {
		expireDelay = time.Millisecond
	}
	e.expireTimer = e.clock.AfterFunc(expireDelay, e.onExpireTimer)
}

func (e *Engine) stopTimersLocked() {
	if e.warnTimer != nil {
		e.warnTimer.Stop()
		e.warnTimer = nil
	}
	if e.expireTimer != nil {
		e.expireTimer.Stop()
		e.expireTimer = nil
	}
}

func (e *Engine) onWarnTimer() {
	e.mu.Lock()
	if e.current == nil || e.warning {
		e.mu.Unlock()
		return
	}

	now := e.clock.Now()
	idle := time.Unix(e.current.IdleDeadline, 0)
	warnAt := idle.Add(-e.config.Session.WarningLead)
	if now.Before(warnAt) {
		// Deadline moved since this timer was armed.
		e.warnTimer = e.clock.AfterFunc(warnAt.Sub(now), e.onWarnTimer)
		e.mu.Unlock()
		return
	}

	e.warning = true
	userID := e.current.UserID
	sid := e.current.SessionID
	secs := wholeSeconds(idle.Sub(now))
	cb := e.callbacks.OnWarning
	e.mu.Unlock()

	e.metricInc(MetricSessionWarning)
	e.emitAudit(context.Background(), auditEventSessionWarning, true, userID, sid, "", nil, nil)
	if cb != nil {
		cb(secs)
	}
}

func (e *Engine) onExpireTimer() {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return
	}

	now := e.clock.Now()
	idle := time.Unix(e.current.IdleDeadline, 0)
	if now.Before(idle) && now.Before(time.Unix(e.current.ExpiresAt, 0)) {
		// Deadline moved since this timer was armed.
		e.expireTimer = e.clock.AfterFunc(idle.Sub(now), e.onExpireTimer)
		e.mu.Unlock()
		return
	}

	e.expireLocked(context.Background())
}

// expireLocked ends the session on a crossed deadline. Caller holds e.mu;
// the lock is released before callbacks run.
func (e *Engine) expireLocked(ctx context.Context) {
	userID := e.current.UserID
	sid := e.current.SessionID
	e.clearSessionLocked()
	e.mu.Unlock()

	e.metricInc(MetricSessionExpired)
	e.emitAudit(ctx, auditEventSessionExpired, true, userID, sid, "", ErrSessionExpired, nil)
	_ = e.store.Clear(ctx)
	e.notifyExpired()
}

// clearSessionLocked drops local session state. Caller holds e.mu.
func (e *Engine) clearSessionLocked() {
	e.current = nil
	e.warning = false
	e.stopTimersLocked()
}

func (e *Engine) notifyExpired() {
	if cb := e.callbacks.OnExpired; cb != nil {
		cb()
	}
}
