package goSession

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventVerificationRequired  = "verification_required"
	auditEventVerificationSuccess   = "verification_success"
	auditEventVerificationFailure   = "verification_failure"
	auditEventVerificationLocked    = "verification_locked"
	auditEventVerificationUnlocked  = "verification_unlocked"
	auditEventVerificationCancelled = "verification_cancelled"
	auditEventCodeResent            = "code_resent"
	auditEventSessionCreated        = "session_created"
	auditEventSessionExtended       = "session_extended"
	auditEventSessionWarning        = "session_warning"
	auditEventSessionExpired        = "session_expired"
	auditEventSessionResumed        = "session_resumed"
	auditEventLogout                = "logout"
	auditEventForcedLogout          = "forced_logout"
	auditEventSetupStarted          = "setup_started"
	auditEventSetupConfirmed        = "setup_confirmed"
	auditEventSetupFailure          = "setup_failure"
	auditEventBackupCodesIssued     = "backup_codes_issued"
	auditEventTwoFactorDisabled     = "two_factor_disabled"
)

// AuditErrorCode defines a public type used by goSession APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrAccountInactive    AuditErrorCode = "account_inactive"
	auditErrCodeMalformed      AuditErrorCode = "code_malformed"
	auditErrCodeRejected       AuditErrorCode = "code_rejected"
	auditErrLocked             AuditErrorCode = "locked"
	auditErrFlowFinished       AuditErrorCode = "flow_finished"
	auditErrResendCooldown     AuditErrorCode = "resend_cooldown"
	auditErrPhoneInvalid       AuditErrorCode = "phone_invalid"
	auditErrSessionExpired     AuditErrorCode = "session_expired"
	auditErrExtendRejected     AuditErrorCode = "extend_rejected"
	auditErrTokenInvalid       AuditErrorCode = "invalid_token"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	method Method,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		Method:    string(method),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		event.Metadata["user_agent"] = ua
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountInactive):
		return auditErrAccountInactive
	case errors.Is(err, ErrCodeMalformed):
		return auditErrCodeMalformed
	case errors.Is(err, ErrCodeRejected):
		return auditErrCodeRejected
	case errors.Is(err, ErrVerificationLocked):
		return auditErrLocked
	case errors.Is(err, ErrVerificationFinished),
		errors.Is(err, ErrVerificationCancelled),
		errors.Is(err, ErrSetupFinished),
		errors.Is(err, ErrSetupStateInvalid),
		errors.Is(err, ErrSubmissionInFlight):
		return auditErrFlowFinished
	case errors.Is(err, ErrResendCoolingDown):
		return auditErrResendCooldown
	case errors.Is(err, ErrPhoneInvalid):
		return auditErrPhoneInvalid
	case errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrNoActiveSession):
		return auditErrSessionExpired
	case errors.Is(err, ErrSessionExtendRejected):
		return auditErrExtendRejected
	case errors.Is(err, ErrTokenInvalid):
		return auditErrTokenInvalid
	case errors.Is(err, ErrVerifierUnavailable),
		errors.Is(err, ErrSendFailed),
		errors.Is(err, ErrCredentialBackendUnavailable),
		errors.Is(err, ErrSessionBackendUnavailable),
		errors.Is(err, ErrTwoFactorStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
