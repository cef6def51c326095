package goSession

import (
	"errors"
	"regexp"
	"time"
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session      SessionConfig
	Verification VerificationConfig
	SMS          SMSConfig
	TOTP         TOTPConfig
	Setup        SetupConfig
	Token        TokenConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by goSession APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	AbsoluteLifetime    time.Duration
	IdleTimeout         time.Duration
	RememberIdleTimeout time.Duration
	WarningLead         time.Duration
	RedisPrefix         string
}

/*
====================================
VERIFICATION CONFIG
====================================
*/

// VerificationConfig defines a public type used by goSession APIs.
//
// VerificationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type VerificationConfig struct {
	RequireForLogin  bool
	MaxAttempts      int
	LockoutDuration  time.Duration
	CodeDigits       int
	BackupCodeDigits int
}

// SMSConfig defines a public type used by goSession APIs.
//
// SMSConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SMSConfig struct {
	ResendCooldown time.Duration
}

// TOTPConfig defines a public type used by goSession APIs.
//
// TOTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TOTPConfig struct {
	Issuer string
	Digits int
	Period int
	Skew   int
}

// SetupConfig defines a public type used by goSession APIs.
//
// SetupConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SetupConfig struct {
	// PhonePattern is the anchored regular expression phone numbers must
	// match before any SMS is dispatched. The default accepts an optional
	// leading + followed by 10 to 15 digits.
	PhonePattern    string
	BackupCodeCount int
}

// TokenConfig defines a public type used by goSession APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

// AuditConfig defines a public type used by goSession APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goSession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

const defaultPhonePattern = `^\+?[0-9]{10,15}$`

// DefaultConfig returns the configuration New starts from. Callers tweak the
// returned value and pass it back through [Builder.WithConfig]; Token keys
// always have to be filled in before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			AbsoluteLifetime:    24 * time.Hour,
			IdleTimeout:         30 * time.Minute,
			RememberIdleTimeout: 12 * time.Hour,
			WarningLead:         5 * time.Minute,
			RedisPrefix:         "gs",
		},
		Verification: VerificationConfig{
			RequireForLogin:  true,
			MaxAttempts:      5,
			LockoutDuration:  5 * time.Minute,
			CodeDigits:       6,
			BackupCodeDigits: 8,
		},
		SMS: SMSConfig{
			ResendCooldown: 60 * time.Second,
		},
		TOTP: TOTPConfig{
			Issuer: "",
			Digits: 6,
			Period: 30,
			Skew:   1,
		},
		Setup: SetupConfig{
			PhonePattern:    defaultPhonePattern,
			BackupCodeCount: 10,
		},
		Token: TokenConfig{
			SigningMethod: "hs256",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Session
	if c.Session.AbsoluteLifetime <= 0 {
		return errors.New("Session AbsoluteLifetime must be > 0")
	}
	if c.Session.IdleTimeout <= 0 {
		return errors.New("Session IdleTimeout must be > 0")
	}
	if c.Session.RememberIdleTimeout < c.Session.IdleTimeout {
		return errors.New("Session RememberIdleTimeout must be >= IdleTimeout")
	}
	if c.Session.WarningLead <= 0 {
		return errors.New("Session WarningLead must be > 0")
	}
	if c.Session.WarningLead >= c.Session.IdleTimeout {
		return errors.New("Session WarningLead must be < IdleTimeout")
	}

	// Verification
	if c.Verification.MaxAttempts <= 0 {
		return errors.New("Verification MaxAttempts must be > 0")
	}
	if c.Verification.LockoutDuration <= 0 {
		return errors.New("Verification LockoutDuration must be > 0")
	}
	if c.Verification.CodeDigits < 6 || c.Verification.CodeDigits > 10 {
		return errors.New("Verification CodeDigits must be between 6 and 10")
	}
	if c.Verification.BackupCodeDigits < 8 || c.Verification.BackupCodeDigits > 10 {
		return errors.New("Verification BackupCodeDigits must be between 8 and 10")
	}

	// SMS
	if c.SMS.ResendCooldown <= 0 {
		return errors.New("SMS ResendCooldown must be > 0")
	}

	// TOTP
	if c.TOTP.Digits != 6 && c.TOTP.Digits != 8 {
		return errors.New("TOTP Digits must be 6 or 8")
	}
	if c.TOTP.Period < 15 {
		return errors.New("TOTP Period must be >= 15 seconds")
	}
	if c.TOTP.Skew < 0 {
		return errors.New("TOTP Skew must be >= 0")
	}

	// Setup
	if c.Setup.PhonePattern == "" {
		return errors.New("Setup PhonePattern is required")
	}
	if _, err := regexp.Compile(c.Setup.PhonePattern); err != nil {
		return errors.New("Setup PhonePattern must be a valid regular expression")
	}
	if c.Setup.BackupCodeCount <= 0 {
		return errors.New("Setup BackupCodeCount must be > 0")
	}

	// Token
	if c.Token.SigningMethod != "hs256" && c.Token.SigningMethod != "ed25519" {
		return errors.New("unsupported Token signing method")
	}
	if c.Token.SigningMethod == "hs256" && len(c.Token.PrivateKey) == 0 {
		return errors.New("hs256 requires PrivateKey")
	}
	if c.Token.SigningMethod == "ed25519" && (len(c.Token.PrivateKey) == 0 || len(c.Token.PublicKey) == 0) {
		return errors.New("ed25519 requires PrivateKey and PublicKey")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
