package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// Method defines a public type used by goSession APIs.
//
// Method instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Method string

const (
	// MethodApp is an exported constant or variable used by the session engine.
	MethodApp Method = "app"
	// MethodSMS is an exported constant or variable used by the session engine.
	MethodSMS Method = "sms"
	// MethodBackup is an exported constant or variable used by the session engine.
	MethodBackup Method = "backup"
)

// Credentials defines a public type used by goSession APIs.
//
// Credentials instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Credentials struct {
	Identifier string
	Password   string
}

// PrimaryStatus defines a public type used by goSession APIs.
//
// PrimaryStatus instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PrimaryStatus uint8

const (
	// PrimaryInvalid is an exported constant or variable used by the session engine.
	PrimaryInvalid PrimaryStatus = iota
	// PrimaryOK is an exported constant or variable used by the session engine.
	PrimaryOK
	// PrimarySecondFactorRequired is an exported constant or variable used by the session engine.
	PrimarySecondFactorRequired
	// PrimaryInactive is an exported constant or variable used by the session engine.
	PrimaryInactive
)

// PrimaryResult defines a public type used by goSession APIs.
//
// PrimaryResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PrimaryResult struct {
	Status PrimaryStatus
	UserID string

	// Methods lists the second-factor methods available to this account when
	// Status is PrimarySecondFactorRequired. Empty means the app method only.
	Methods []Method
}

// CredentialVerifier checks the primary factor (identifier + password) against
// the identity backend. Implementations must treat unknown identifiers and
// wrong passwords identically and report both as PrimaryInvalid.
type CredentialVerifier interface {
	VerifyPrimary(ctx context.Context, creds Credentials) (PrimaryResult, error)
}

// VerificationContext identifies the flow a code check belongs to. It is
// passed through to collaborators so they can scope per-user state without
// the engine exposing its internals.
type VerificationContext struct {
	UserID         string
	VerificationID string
}

// CodeVerifier checks a second-factor code of the given method. A false
// result with a nil error is a clean rejection; a non-nil error means the
// check itself could not be performed and must not count as an attempt.
type CodeVerifier interface {
	VerifyCode(ctx context.Context, method Method, code string, vc VerificationContext) (bool, error)
}

// AppProvision carries what an authenticator-app enrollment needs to render:
// an opaque reference to the stored secret and the otpauth:// payload for the
// QR code. The raw secret never crosses this boundary.
type AppProvision struct {
	SecretRef string
	QRPayload string
}

// CodeSender dispatches verification material out of band: SMS codes to the
// user's phone and authenticator-app provisioning secrets during setup.
type CodeSender interface {
	SendSMS(ctx context.Context, vc VerificationContext) error
	AppSecret(ctx context.Context, vc VerificationContext) (AppProvision, error)
}

// BackupCodeIssuer generates and persists a fresh backup-code set for a user,
// replacing any previous set, and returns the plaintext codes exactly once.
type BackupCodeIssuer interface {
	IssueBackupCodes(ctx context.Context, userID string) ([]string, error)
}

// SessionStore persists the single current session. Load returns (nil, nil)
// when no session is stored.
type SessionStore interface {
	Save(ctx context.Context, sess *session.Session) error
	Load(ctx context.Context) (*session.Session, error)
	Clear(ctx context.Context) error
}

// TwoFactorConfig defines a public type used by goSession APIs.
//
// TwoFactorConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TwoFactorConfig struct {
	Enabled        bool
	Method         Method
	PhoneNumber    string
	SecretRef      string
	BackupCodesRef string
	LastVerifiedAt int64
}

// TwoFactorStore persists per-user two-factor configuration. Get returns
// (nil, nil) when the user has no configuration.
type TwoFactorStore interface {
	GetTwoFactorConfig(ctx context.Context, userID string) (*TwoFactorConfig, error)
	SaveTwoFactorConfig(ctx context.Context, userID string, cfg *TwoFactorConfig) error
	ClearTwoFactorConfig(ctx context.Context, userID string) error
}

// SessionSnapshot defines a public type used by goSession APIs.
//
// SessionSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionSnapshot struct {
	SessionID             string
	UserID                string
	Token                 string
	Remember              bool
	SecondFactorSatisfied bool
	Method                Method
	IssuedAt              time.Time
	ExpiresAt             time.Time
	IdleDeadline          time.Time
	WarningActive         bool
}

// LoginResult defines a public type used by goSession APIs.
//
// LoginResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginResult struct {
	// Session is non-nil when login completed without a second factor.
	Session *SessionSnapshot

	// Verification is non-nil when the account requires a second factor;
	// the login is pending until the handle reaches a terminal state.
	Verification *Verification
}

// VerificationAttempt defines a public type used by goSession APIs.
//
// VerificationAttempt instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type VerificationAttempt struct {
	Method    Method
	Accepted  bool
	Timestamp time.Time
}
