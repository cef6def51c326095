package goSession

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SetupState defines a public type used by goSession APIs.
//
// SetupState instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SetupState uint8

const (
	// SetupSelectingMethod is an exported constant or variable used by the session engine.
	SetupSelectingMethod SetupState = iota
	// SetupAwaitingConfirmation is an exported constant or variable used by the session engine.
	SetupAwaitingConfirmation
	// SetupCodesIssued is an exported constant or variable used by the session engine.
	SetupCodesIssued
	// SetupCancelled is an exported constant or variable used by the session engine.
	SetupCancelled
)

// Setup is the handle for one two-factor enrollment flow. Nothing is
// persisted until Confirm proves the user controls the chosen method; the
// backup codes it returns exist in memory only and are gone once the handle
// is dropped.
type Setup struct {
	engine *Engine
	id     string
	userID string

	mu          sync.Mutex
	state       SetupState
	method      Method
	phone       string
	provision   AppProvision
	backupCodes []string
}

// StartSetup begins two-factor enrollment for the logged-in user. It
// requires an active session; the enrollment page is only reachable from
// one.
//
// StartSetup may return an error when input validation, dependency calls, or security checks fail.
// StartSetup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StartSetup(ctx context.Context) (*Setup, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	if e.current == nil {
		e.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	userID := e.current.UserID
	e.mu.Unlock()

	s := &Setup{
		engine: e,
		id:     uuid.NewString(),
		userID: userID,
		state:  SetupSelectingMethod,
	}

	e.metricInc(MetricSetupStarted)
	e.emitAudit(ctx, auditEventSetupStarted, true, userID, "", "", nil, func() map[string]string {
		return map[string]string{"setup_id": s.id}
	})
	return s, nil
}

// ID describes the id operation and its observable behavior.
//
// ID may return an error when input validation, dependency calls, or security checks fail.
// ID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Setup) ID() string {
	return s.id
}

// State describes the state operation and its observable behavior.
//
// State may return an error when input validation, dependency calls, or security checks fail.
// State does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Setup) State() SetupState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ConfigureApp requests an authenticator-app secret and QR payload. The
// returned provision is what the enrollment page renders; the flow then
// waits for the user to prove the pairing via Confirm.
//
// ConfigureApp may return an error when input validation, dependency calls, or security checks fail.
// ConfigureApp does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Setup) ConfigureApp(ctx context.Context) (AppProvision, error) {
	s.mu.Lock()
	if err := s.configurableLocked(); err != nil {
		s.mu.Unlock()
		return AppProvision{}, err
	}
	s.mu.Unlock()

	prov, err := s.engine.sender.AppSecret(ctx, VerificationContext{
		UserID:         s.userID,
		VerificationID: s.id,
	})
	if err != nil {
		s.engine.metricInc(MetricSetupFailure)
		s.engine.emitAudit(ctx, auditEventSetupFailure, false, s.userID, "", MethodApp, ErrSendFailed, nil)
		return AppProvision{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	s.mu.Lock()
	if s.state == SetupCancelled {
		s.mu.Unlock()
		return AppProvision{}, ErrSetupFinished
	}
	s.method = MethodApp
	s.phone = ""
	s.provision = prov
	s.state = SetupAwaitingConfirmation
	s.mu.Unlock()
	return prov, nil
}

// ConfigureSMS validates the phone number locally and dispatches a code to
// it. Nothing is sent when the number fails the configured pattern.
//
// ConfigureSMS may return an error when input validation, dependency calls, or security checks fail.
// ConfigureSMS does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Setup) ConfigureSMS(ctx context.Context, phone string) error {
	if err := s.engine.phones.validate(phone); err != nil {
		s.engine.metricInc(MetricSetupFailure)
		s.engine.emitAudit(ctx, auditEventSetupFailure, false, s.userID, "", MethodSMS, err, nil)
		return err
	}

	s.mu.Lock()
	if err := s.configurableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	err := s.engine.sender.SendSMS(ctx, VerificationContext{
		UserID:         s.userID,
		VerificationID: s.id,
	})
	if err != nil {
		s.engine.metricInc(MetricSetupFailure)
		s.engine.emitAudit(ctx, auditEventSetupFailure, false, s.userID, "", MethodSMS, ErrSendFailed, nil)
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	s.mu.Lock()
	if s.state == SetupCancelled {
		s.mu.Unlock()
		return ErrSetupFinished
	}
	s.method = MethodSMS
	s.phone = phone
	s.provision = AppProvision{}
	s.state = SetupAwaitingConfirmation
	s.mu.Unlock()
	return nil
}

// Confirm proves the user controls the configured method, persists the
// two-factor configuration, and returns the freshly issued backup codes.
// This is the only point where anything becomes durable.
//
// Confirm may return an error when input validation, dependency calls, or security checks fail.
// Confirm does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Setup) Confirm(ctx context.Context, code string) ([]string, error) {
	s.mu.Lock()
	if s.state == SetupCancelled || s.state == SetupCodesIssued {
		s.mu.Unlock()
		return nil, ErrSetupFinished
	}
	if s.state != SetupAwaitingConfirmation {
		s.mu.Unlock()
		return nil, ErrSetupStateInvalid
	}
	method := s.method
	phone := s.phone
	secretRef := s.provision.SecretRef
	s.mu.Unlock()

	if err := validateCodeFormat(method, code, s.engine.config.Verification); err != nil {
		s.engine.metricInc(MetricCodeMalformed)
		return nil, err
	}

	accepted, err := s.engine.codes.VerifyCode(ctx, method, code, VerificationContext{
		UserID:         s.userID,
		VerificationID: s.id,
	})
	if err != nil {
		s.engine.metricInc(MetricSetupFailure)
		s.engine.emitAudit(ctx, auditEventSetupFailure, false, s.userID, "", method, ErrVerifierUnavailable, nil)
		return nil, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	if !accepted {
		s.engine.metricInc(MetricSetupFailure)
		s.engine.emitAudit(ctx, auditEventSetupFailure, false, s.userID, "", method, ErrCodeRejected, nil)
		return nil, ErrCodeRejected
	}

	cfg := &TwoFactorConfig{
		Enabled:        true,
		Method:         method,
		PhoneNumber:    phone,
		SecretRef:      secretRef,
		LastVerifiedAt: s.engine.clock.Now().Unix(),
	}
	if err := s.engine.twoFactor.SaveTwoFactorConfig(ctx, s.userID, cfg); err != nil {
		s.engine.metricInc(MetricSetupFailure)
		s.engine.emitAudit(ctx, auditEventSetupFailure, false, s.userID, "", method, ErrTwoFactorStoreUnavailable, nil)
		return nil, fmt.Errorf("%w: %v", ErrTwoFactorStoreUnavailable, err)
	}

	codes, err := s.engine.backup.IssueBackupCodes(ctx, s.userID)
	if err != nil {
		// Enrollment stands; the user can regenerate codes from the
		// manage page.
		s.engine.emitAudit(ctx, auditEventSetupConfirmed, true, s.userID, "", method, nil, nil)
		return nil, fmt.Errorf("%w: %v", ErrTwoFactorStoreUnavailable, err)
	}

	s.mu.Lock()
	s.state = SetupCodesIssued
	s.backupCodes = append([]string(nil), codes...)
	s.mu.Unlock()

	s.engine.metricInc(MetricSetupConfirmed)
	s.engine.metricInc(MetricBackupCodesIssued)
	s.engine.emitAudit(ctx, auditEventSetupConfirmed, true, s.userID, "", method, nil, nil)
	s.engine.emitAudit(ctx, auditEventBackupCodesIssued, true, s.userID, "", method, nil, func() map[string]string {
		return map[string]string{"count": fmt.Sprintf("%d", len(codes))}
	})
	return append([]string(nil), codes...), nil
}

// BackupCodes returns the codes issued by Confirm for re-rendering within
// the same flow. Empty before Confirm succeeds.
func (s *Setup) BackupCodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.backupCodes...)
}

// Cancel abandons the flow and discards any codes held in memory.
func (s *Setup) Cancel() {
	s.mu.Lock()
	s.state = SetupCancelled
	s.backupCodes = nil
	s.provision = AppProvision{}
	s.phone = ""
	s.mu.Unlock()
}

func (s *Setup) configurableLocked() error {
	switch s.state {
	case SetupSelectingMethod, SetupAwaitingConfirmation:
		return nil
	case SetupCancelled, SetupCodesIssued:
		return ErrSetupFinished
	default:
		return ErrSetupStateInvalid
	}
}

/*
====================================
MANAGE PAGE OPERATIONS
====================================
*/

// DisableTwoFactor turns two-factor off for the logged-in user after a
// fresh code proves possession of the configured method.
//
// DisableTwoFactor may return an error when input validation, dependency calls, or security checks fail.
// DisableTwoFactor does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) DisableTwoFactor(ctx context.Context, code string) error {
	userID, method, err := e.requireEnrolled(ctx)
	if err != nil {
		return err
	}
	if err := e.proveCode(ctx, userID, method, code); err != nil {
		return err
	}

	if err := e.twoFactor.ClearTwoFactorConfig(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrTwoFactorStoreUnavailable, err)
	}

	e.metricInc(MetricTwoFactorDisabled)
	e.emitAudit(ctx, auditEventTwoFactorDisabled, true, userID, "", method, nil, nil)
	return nil
}

// RegenerateBackupCodes replaces the user's backup-code set after a fresh
// code proves possession of the configured method. Previously issued codes
// stop working.
//
// RegenerateBackupCodes may return an error when input validation, dependency calls, or security checks fail.
// RegenerateBackupCodes does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RegenerateBackupCodes(ctx context.Context, code string) ([]string, error) {
	userID, method, err := e.requireEnrolled(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.proveCode(ctx, userID, method, code); err != nil {
		return nil, err
	}

	codes, err := e.backup.IssueBackupCodes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTwoFactorStoreUnavailable, err)
	}

	e.metricInc(MetricBackupCodesIssued)
	e.emitAudit(ctx, auditEventBackupCodesIssued, true, userID, "", method, nil, func() map[string]string {
		return map[string]string{"count": fmt.Sprintf("%d", len(codes))}
	})
	return codes, nil
}

// TwoFactorStatus reports the stored configuration for the logged-in user
// with the secret reference redacted.
func (e *Engine) TwoFactorStatus(ctx context.Context) (*TwoFactorConfig, error) {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	userID := e.current.UserID
	e.mu.Unlock()

	cfg, err := e.twoFactor.GetTwoFactorConfig(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTwoFactorStoreUnavailable, err)
	}
	if cfg == nil {
		return &TwoFactorConfig{}, nil
	}
	out := *cfg
	out.SecretRef = ""
	return &out, nil
}

func (e *Engine) requireEnrolled(ctx context.Context) (string, Method, error) {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return "", "", ErrNoActiveSession
	}
	userID := e.current.UserID
	e.mu.Unlock()

	cfg, err := e.twoFactor.GetTwoFactorConfig(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrTwoFactorStoreUnavailable, err)
	}
	if cfg == nil || !cfg.Enabled {
		return "", "", ErrTwoFactorNotEnabled
	}
	return userID, cfg.Method, nil
}

func (e *Engine) proveCode(ctx context.Context, userID string, method Method, code string) error {
	if err := validateCodeFormat(method, code, e.config.Verification); err != nil {
		e.metricInc(MetricCodeMalformed)
		return err
	}

	accepted, err := e.codes.VerifyCode(ctx, method, code, VerificationContext{UserID: userID})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	if !accepted {
		return ErrCodeRejected
	}
	return nil
}
