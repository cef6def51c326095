package goSession

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the session engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive is an exported constant or variable used by the session engine.
	ErrAccountInactive = errors.New("account inactive")
	// ErrCredentialBackendUnavailable is an exported constant or variable used by the session engine.
	ErrCredentialBackendUnavailable = errors.New("credential backend unavailable")
	// ErrSessionActive is an exported constant or variable used by the session engine.
	ErrSessionActive = errors.New("a session is already active")
	// ErrNoActiveSession is an exported constant or variable used by the session engine.
	ErrNoActiveSession = errors.New("no active session")
	// ErrSessionExpired is an exported constant or variable used by the session engine.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionBackendUnavailable is an exported constant or variable used by the session engine.
	ErrSessionBackendUnavailable = errors.New("session backend unavailable")
	// ErrSessionExtendRejected is an exported constant or variable used by the session engine.
	ErrSessionExtendRejected = errors.New("session extension rejected")
	// ErrCodeMalformed is an exported constant or variable used by the session engine.
	ErrCodeMalformed = errors.New("code format invalid")
	// ErrCodeRejected is an exported constant or variable used by the session engine.
	ErrCodeRejected = errors.New("code rejected")
	// ErrVerificationLocked is an exported constant or variable used by the session engine.
	ErrVerificationLocked = errors.New("verification locked")
	// ErrVerificationFinished is an exported constant or variable used by the session engine.
	ErrVerificationFinished = errors.New("verification already finished")
	// ErrVerificationCancelled is an exported constant or variable used by the session engine.
	ErrVerificationCancelled = errors.New("verification cancelled")
	// ErrSubmissionInFlight is an exported constant or variable used by the session engine.
	ErrSubmissionInFlight = errors.New("a code submission is already in flight")
	// ErrVerifierUnavailable is an exported constant or variable used by the session engine.
	ErrVerifierUnavailable = errors.New("code verifier unavailable")
	// ErrMethodUnavailable is an exported constant or variable used by the session engine.
	ErrMethodUnavailable = errors.New("verification method unavailable")
	// ErrSendFailed is an exported constant or variable used by the session engine.
	ErrSendFailed = errors.New("code dispatch failed")
	// ErrResendCoolingDown is an exported constant or variable used by the session engine.
	ErrResendCoolingDown = errors.New("resend cooling down")
	// ErrPhoneInvalid is an exported constant or variable used by the session engine.
	ErrPhoneInvalid = errors.New("phone number invalid")
	// ErrSetupFinished is an exported constant or variable used by the session engine.
	ErrSetupFinished = errors.New("setup flow already finished")
	// ErrSetupStateInvalid is an exported constant or variable used by the session engine.
	ErrSetupStateInvalid = errors.New("operation not valid in current setup state")
	// ErrTwoFactorNotEnabled is an exported constant or variable used by the session engine.
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication not enabled")
	// ErrTwoFactorStoreUnavailable is an exported constant or variable used by the session engine.
	ErrTwoFactorStoreUnavailable = errors.New("two-factor configuration store unavailable")
	// ErrBackupCodesNotConfigured is an exported constant or variable used by the session engine.
	ErrBackupCodesNotConfigured = errors.New("backup codes not configured")
	// ErrTokenInvalid is an exported constant or variable used by the session engine.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrEngineClosed is an exported constant or variable used by the session engine.
	ErrEngineClosed = errors.New("engine closed")
)
