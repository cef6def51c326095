package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by goSession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client
	clock  Clock

	credentials CredentialVerifier
	codes       CodeVerifier
	sender      CodeSender
	backup      BackupCodeIssuer
	twoFactor   TwoFactorStore
	store       SessionStore
	auditSink   AuditSink
	callbacks   SessionCallbacks

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithClock replaces the wall clock. Tests use this to drive countdowns and
// session deadlines deterministically.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithCredentialVerifier describes the withcredentialverifier operation and its observable behavior.
//
// WithCredentialVerifier may return an error when input validation, dependency calls, or security checks fail.
// WithCredentialVerifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCredentialVerifier(cv CredentialVerifier) *Builder {
	b.credentials = cv
	return b
}

// WithCodeVerifier describes the withcodeverifier operation and its observable behavior.
//
// WithCodeVerifier may return an error when input validation, dependency calls, or security checks fail.
// WithCodeVerifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCodeVerifier(v CodeVerifier) *Builder {
	b.codes = v
	return b
}

// WithCodeSender describes the withcodesender operation and its observable behavior.
//
// WithCodeSender may return an error when input validation, dependency calls, or security checks fail.
// WithCodeSender does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCodeSender(s CodeSender) *Builder {
	b.sender = s
	return b
}

// WithBackupCodeIssuer describes the withbackupcodeissuer operation and its observable behavior.
//
// WithBackupCodeIssuer may return an error when input validation, dependency calls, or security checks fail.
// WithBackupCodeIssuer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithBackupCodeIssuer(i BackupCodeIssuer) *Builder {
	b.backup = i
	return b
}

// WithTwoFactorStore describes the withtwofactorstore operation and its observable behavior.
//
// WithTwoFactorStore may return an error when input validation, dependency calls, or security checks fail.
// WithTwoFactorStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTwoFactorStore(s TwoFactorStore) *Builder {
	b.twoFactor = s
	return b
}

// WithSessionStore overrides the redis-backed default. Passing a store makes
// the redis client optional.
func (b *Builder) WithSessionStore(s SessionStore) *Builder {
	b.store = s
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithSessionCallbacks describes the withsessioncallbacks operation and its observable behavior.
//
// WithSessionCallbacks may return an error when input validation, dependency calls, or security checks fail.
// WithSessionCallbacks does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSessionCallbacks(cb SessionCallbacks) *Builder {
	b.callbacks = cb
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.credentials == nil {
		return nil, errors.New("credential verifier required")
	}
	if b.codes == nil {
		return nil, errors.New("code verifier required")
	}
	if b.sender == nil {
		return nil, errors.New("code sender required")
	}

	clock := b.clock
	if clock == nil {
		clock = systemClock{}
	}

	twoFactor := b.twoFactor
	if twoFactor == nil {
		twoFactor = NewMemoryTwoFactorStore()
	}
	backup := b.backup
	if backup == nil {
		backup = NewBackupCodeVault(cfg.Setup.BackupCodeCount, cfg.Verification.BackupCodeDigits)
	}

	// -------- SESSION STORE --------
	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client required when no session store is provided")
		}
		store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
	}

	// -------- TOKEN MANAGER --------
	jm, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	phones, err := newPhoneValidator(cfg.Setup.PhonePattern)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      cfg,
		clock:       clock,
		credentials: b.credentials,
		codes:       b.codes,
		sender:      b.sender,
		backup:      backup,
		twoFactor:   twoFactor,
		store:       store,
		tokens:      jm,
		phones:      phones,
		callbacks:   b.callbacks,
	}

	engine.tracker = newAttemptTracker(clock, cfg.Verification.MaxAttempts, cfg.Verification.LockoutDuration)
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
