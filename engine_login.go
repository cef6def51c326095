package goSession

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goSession/internal"
)

// Login checks the primary factor and either activates a session immediately
// or returns a [Verification] handle for the second factor. A login issued
// while another login is still awaiting its second factor cancels the
// earlier flow.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, creds Credentials, remember bool) (*LoginResult, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	if e.current != nil {
		e.mu.Unlock()
		return nil, ErrSessionActive
	}
	stale := e.pending
	e.mu.Unlock()

	if stale != nil {
		stale.Cancel(ctx)
	}

	res, err := e.credentials.VerifyPrimary(ctx, creds)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", ErrCredentialBackendUnavailable, nil)
		return nil, fmt.Errorf("%w: %v", ErrCredentialBackendUnavailable, err)
	}

	switch res.Status {
	case PrimaryOK, PrimarySecondFactorRequired:
	case PrimaryInactive:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.UserID, "", "", ErrAccountInactive, nil)
		return nil, ErrAccountInactive
	default:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if res.Status == PrimaryOK || !e.config.Verification.RequireForLogin {
		e.mu.Lock()
		if e.current != nil {
			e.mu.Unlock()
			return nil, ErrSessionActive
		}
		snap, err := e.issueSessionLocked(ctx, res.UserID, remember, false, "")
		e.mu.Unlock()
		if err != nil {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, res.UserID, "", "", err, nil)
			return nil, err
		}
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, true, res.UserID, snap.SessionID, "", nil, nil)
		return &LoginResult{Session: snap}, nil
	}

	vid, err := internal.NewSessionID()
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	v := newVerification(e, vid.String(), res.UserID, res.Methods)
	v.remember = remember

	e.mu.Lock()
	if e.current != nil {
		e.mu.Unlock()
		return nil, ErrSessionActive
	}
	e.pending = v
	e.mu.Unlock()

	e.metricInc(MetricVerificationRequired)
	e.emitAudit(ctx, auditEventVerificationRequired, true, res.UserID, "", v.method, nil, func() map[string]string {
		return map[string]string{"verification_id": v.id}
	})
	return &LoginResult{Verification: v}, nil
}

// PendingVerification returns the verification flow a login is waiting on,
// or nil when no login is pending.
func (e *Engine) PendingVerification() *Verification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// completeVerification turns an accepted second factor into the active
// session. Called by the Verification handle after it has gone terminal,
// so the lock order is always handle then engine.
func (e *Engine) completeVerification(ctx context.Context, v *Verification, method Method) (*SessionSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending != v {
		return nil, ErrVerificationFinished
	}
	e.pending = nil

	if e.current != nil {
		return nil, ErrSessionActive
	}
	return e.issueSessionLocked(ctx, v.userID, v.remember, true, method)
}

func (e *Engine) clearPendingVerification(v *Verification) {
	e.mu.Lock()
	if e.pending == v {
		e.pending = nil
	}
	e.mu.Unlock()
}
