package goSession

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// VerificationState defines a public type used by goSession APIs.
//
// VerificationState instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type VerificationState uint8

const (
	// VerificationSelectingMethod is an exported constant or variable used by the session engine.
	VerificationSelectingMethod VerificationState = iota
	// VerificationAwaitingCode is an exported constant or variable used by the session engine.
	VerificationAwaitingCode
	// VerificationVerifying is an exported constant or variable used by the session engine.
	VerificationVerifying
	// VerificationLocked is an exported constant or variable used by the session engine.
	VerificationLocked
	// VerificationSuccess is an exported constant or variable used by the session engine.
	VerificationSuccess
	// VerificationCancelled is an exported constant or variable used by the session engine.
	VerificationCancelled
)

// VerificationStatus is a point-in-time view of a verification flow for
// rendering. All remaining times are whole seconds recomputed from the clock
// at the moment of the call.
type VerificationStatus struct {
	State                   VerificationState
	Method                  Method
	Methods                 []Method
	FailedAttempts          int
	AttemptsRemaining       int
	Locked                  bool
	LockoutSecondsRemaining int
	ResendSecondsRemaining  int
	TOTPSecondsRemaining    int
}

// Verification is the handle for one second-factor challenge created by a
// login. It owns the attempt counter, the lockout window, and the resend
// cooldown for that challenge, and completes the pending login when a code
// is accepted.
//
// All methods are safe for concurrent use. A verifier response that resolves
// after the flow was cancelled or locked is discarded.
type Verification struct {
	engine   *Engine
	id       string
	userID   string
	remember bool

	mu       sync.Mutex
	state    VerificationState
	method   Method
	methods  []Method
	gen      uint64
	inFlight bool
	attempts []VerificationAttempt
	resend   *Countdown
	lockout  *Countdown
}

func newVerification(e *Engine, id, userID string, methods []Method) *Verification {
	if len(methods) == 0 {
		methods = []Method{MethodApp}
	}

	v := &Verification{
		engine:  e,
		id:      id,
		userID:  userID,
		state:   VerificationSelectingMethod,
		methods: methods,
	}
	if len(methods) == 1 {
		v.method = methods[0]
		v.state = VerificationAwaitingCode
	}
	return v
}

// ID describes the id operation and its observable behavior.
//
// ID may return an error when input validation, dependency calls, or security checks fail.
// ID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (v *Verification) ID() string {
	return v.id
}

// UserID describes the userid operation and its observable behavior.
//
// UserID may return an error when input validation, dependency calls, or security checks fail.
// UserID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (v *Verification) UserID() string {
	return v.userID
}

// Status describes the status operation and its observable behavior.
//
// Status may return an error when input validation, dependency calls, or security checks fail.
// Status does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (v *Verification) Status() VerificationStatus {
	v.mu.Lock()
	defer v.mu.Unlock()

	locked, lockSecs := v.engine.tracker.Status(v.id)
	if !locked && v.state == VerificationLocked {
		// Lockout elapsed between the timer and this read.
		v.state = VerificationAwaitingCode
	}

	s := VerificationStatus{
		State:                   v.state,
		Method:                  v.method,
		Methods:                 append([]Method(nil), v.methods...),
		FailedAttempts:          v.engine.tracker.Failures(v.id),
		AttemptsRemaining:       v.engine.tracker.Remaining(v.id),
		Locked:                  locked,
		LockoutSecondsRemaining: lockSecs,
	}
	if v.state == VerificationVerifying && !v.inFlight {
		s.State = VerificationAwaitingCode
	}
	if v.resend != nil && !v.resend.Done() {
		s.ResendSecondsRemaining = wholeSeconds(v.resend.Remaining())
	}
	if v.method == MethodApp && !v.terminalLocked() {
		period := time.Duration(v.engine.config.TOTP.Period) * time.Second
		s.TOTPSecondsRemaining = wholeSeconds(totpRemaining(v.engine.clock.Now(), period))
	}
	return s
}

// Attempts returns the submission log for this flow, oldest first. Each
// attempt's outcome is immutable once recorded.
func (v *Verification) Attempts() []VerificationAttempt {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]VerificationAttempt(nil), v.attempts...)
}

// SelectMethod chooses or switches the second-factor method. Switching tabs
// clears transient input state but never the failure counter. Selecting the
// SMS method dispatches a code and starts the resend cooldown.
func (v *Verification) SelectMethod(ctx context.Context, m Method) error {
	v.mu.Lock()
	if v.terminalLocked() {
		v.mu.Unlock()
		return ErrVerificationFinished
	}
	if v.inFlight {
		v.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if !v.methodAvailableLocked(m) {
		v.mu.Unlock()
		return ErrMethodUnavailable
	}

	alreadySelected := v.method == m && v.state != VerificationSelectingMethod
	v.method = m
	if v.state == VerificationSelectingMethod {
		v.state = VerificationAwaitingCode
	}
	needsDispatch := m == MethodSMS && !alreadySelected && (v.resend == nil || v.resend.Done())
	gen := v.gen
	v.mu.Unlock()

	if !needsDispatch {
		return nil
	}
	return v.dispatchSMS(ctx, gen, auditEventVerificationRequired)
}

// Resend re-dispatches the SMS code. While the cooldown is running it is a
// no-op that reports the seconds left; 0 means a code was sent.
func (v *Verification) Resend(ctx context.Context) (int, error) {
	v.mu.Lock()
	if v.terminalLocked() {
		v.mu.Unlock()
		return 0, ErrVerificationFinished
	}
	if v.method != MethodSMS {
		v.mu.Unlock()
		return 0, ErrMethodUnavailable
	}
	if v.resend != nil && !v.resend.Done() {
		secs := wholeSeconds(v.resend.Remaining())
		v.mu.Unlock()
		v.engine.metricInc(MetricResendBlocked)
		return secs, nil
	}
	gen := v.gen
	v.mu.Unlock()

	if err := v.dispatchSMS(ctx, gen, auditEventCodeResent); err != nil {
		return 0, err
	}
	return 0, nil
}

func (v *Verification) dispatchSMS(ctx context.Context, gen uint64, event string) error {
	err := v.engine.sender.SendSMS(ctx, VerificationContext{
		UserID:         v.userID,
		VerificationID: v.id,
	})

	v.mu.Lock()
	if v.gen != gen || v.terminalLocked() {
		v.mu.Unlock()
		return ErrVerificationFinished
	}
	if err != nil {
		v.mu.Unlock()
		v.engine.emitAudit(ctx, event, false, v.userID, "", MethodSMS, ErrSendFailed, nil)
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	v.resend = StartCountdown(v.engine.clock, CountdownResendCooldown, v.engine.config.SMS.ResendCooldown, nil, nil)
	v.mu.Unlock()

	v.engine.metricInc(MetricResendSent)
	v.engine.emitAudit(ctx, event, true, v.userID, "", MethodSMS, nil, nil)
	return nil
}

// Submit checks one code. On acceptance it completes the pending login and
// returns the new active session. Rejections count against the attempt
// budget; malformed input and verifier transport failures do not.
func (v *Verification) Submit(ctx context.Context, code string) (*SessionSnapshot, error) {
	start := v.engine.clock.Now()

	v.mu.Lock()
	if v.terminalLocked() {
		v.mu.Unlock()
		return nil, ErrVerificationFinished
	}
	if v.state == VerificationSelectingMethod {
		v.mu.Unlock()
		return nil, ErrMethodUnavailable
	}
	if locked, _ := v.engine.tracker.Status(v.id); locked {
		v.mu.Unlock()
		return nil, ErrVerificationLocked
	}
	if v.state == VerificationLocked {
		// Lockout elapsed; the flow is live again.
		v.state = VerificationAwaitingCode
	}
	method := v.method
	if err := validateCodeFormat(method, code, v.engine.config.Verification); err != nil {
		v.mu.Unlock()
		v.engine.metricInc(MetricCodeMalformed)
		return nil, err
	}
	if v.inFlight {
		v.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	v.inFlight = true
	v.state = VerificationVerifying
	gen := v.gen
	v.mu.Unlock()

	accepted, verr := v.engine.codes.VerifyCode(ctx, method, code, VerificationContext{
		UserID:         v.userID,
		VerificationID: v.id,
	})

	v.engine.metricObserve(MetricVerifyLatency, v.engine.clock.Now().Sub(start))

	v.mu.Lock()
	v.inFlight = false
	if v.gen != gen || v.terminalLocked() {
		// The flow moved on while the verifier was out; drop the result.
		v.mu.Unlock()
		return nil, ErrVerificationFinished
	}
	v.state = VerificationAwaitingCode

	if verr != nil {
		v.mu.Unlock()
		v.engine.metricInc(MetricVerificationFailure)
		v.engine.emitAudit(ctx, auditEventVerificationFailure, false, v.userID, "", method, ErrVerifierUnavailable, nil)
		return nil, fmt.Errorf("%w: %v", ErrVerifierUnavailable, verr)
	}

	v.attempts = append(v.attempts, VerificationAttempt{
		Method:    method,
		Accepted:  accepted,
		Timestamp: v.engine.clock.Now(),
	})

	if !accepted {
		locked, _ := v.engine.tracker.RecordFailure(v.id)
		if locked {
			v.enterLockoutLocked()
			v.mu.Unlock()
			v.engine.metricInc(MetricVerificationLocked)
			v.engine.emitAudit(ctx, auditEventVerificationLocked, false, v.userID, "", method, ErrVerificationLocked, func() map[string]string {
				return map[string]string{"verification_id": v.id}
			})
			return nil, ErrVerificationLocked
		}
		v.mu.Unlock()
		v.engine.metricInc(MetricVerificationFailure)
		v.engine.emitAudit(ctx, auditEventVerificationFailure, false, v.userID, "", method, ErrCodeRejected, nil)
		return nil, ErrCodeRejected
	}

	v.engine.tracker.RecordSuccess(v.id)
	v.state = VerificationSuccess
	v.gen++
	v.stopCountdownsLocked()
	v.mu.Unlock()

	snap, err := v.engine.completeVerification(ctx, v, method)
	if err != nil {
		v.engine.emitAudit(ctx, auditEventVerificationSuccess, false, v.userID, "", method, err, nil)
		return nil, err
	}

	v.engine.metricInc(MetricVerificationSuccess)
	v.engine.emitAudit(ctx, auditEventVerificationSuccess, true, v.userID, snap.SessionID, method, nil, nil)
	return snap, nil
}

// Cancel abandons the flow. Safe to call from any state; cancelling a
// finished flow is a no-op.
func (v *Verification) Cancel(ctx context.Context) {
	v.mu.Lock()
	if v.terminalLocked() {
		v.mu.Unlock()
		return
	}
	v.state = VerificationCancelled
	v.gen++
	v.stopCountdownsLocked()
	v.mu.Unlock()

	v.engine.tracker.Forget(v.id)
	v.engine.clearPendingVerification(v)
	v.engine.metricInc(MetricVerificationCancelled)
	v.engine.emitAudit(ctx, auditEventVerificationCancelled, true, v.userID, "", v.method, nil, nil)
}

// enterLockoutLocked flips the flow into the locked state and arms the timer
// that releases it. Caller holds v.mu.
func (v *Verification) enterLockoutLocked() {
	v.state = VerificationLocked
	v.gen++
	gen := v.gen

	v.lockout = StartCountdown(v.engine.clock, CountdownLockout, v.engine.config.Verification.LockoutDuration, nil, func() {
		v.mu.Lock()
		if v.gen != gen || v.state != VerificationLocked {
			v.mu.Unlock()
			return
		}
		v.state = VerificationAwaitingCode
		v.mu.Unlock()
		v.engine.emitAudit(context.Background(), auditEventVerificationUnlocked, true, v.userID, "", v.method, nil, nil)
	})
}

func (v *Verification) stopCountdownsLocked() {
	if v.resend != nil {
		v.resend.Cancel()
	}
	if v.lockout != nil {
		v.lockout.Cancel()
	}
}

func (v *Verification) terminalLocked() bool {
	return v.state == VerificationSuccess || v.state == VerificationCancelled
}

func (v *Verification) methodAvailableLocked(m Method) bool {
	for _, have := range v.methods {
		if have == m {
			return true
		}
	}
	return false
}

func wholeSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
