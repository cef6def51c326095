package goSession

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPAuthenticator is the bundled authenticator-app collaborator. It
// provisions secrets during setup and checks app codes during verification,
// delegating the RFC 6238 math to the otp library. Secrets are held
// in-process and addressed by opaque references; production deployments that
// keep secrets elsewhere implement [CodeVerifier] and the AppSecret half of
// [CodeSender] themselves.
type TOTPAuthenticator struct {
	issuer string
	period uint
	digits otp.Digits
	skew   uint
	clock  Clock

	mu      sync.Mutex
	secrets map[string]string // userID -> base32 secret
	refs    map[string]string // secretRef -> userID
}

// NewTOTPAuthenticator describes the newtotpauthenticator operation and its observable behavior.
//
// NewTOTPAuthenticator may return an error when input validation, dependency calls, or security checks fail.
// NewTOTPAuthenticator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewTOTPAuthenticator(cfg TOTPConfig, clock Clock) *TOTPAuthenticator {
	if clock == nil {
		clock = systemClock{}
	}

	digits := otp.DigitsSix
	if cfg.Digits == 8 {
		digits = otp.DigitsEight
	}
	period := uint(cfg.Period)
	if period == 0 {
		period = 30
	}

	return &TOTPAuthenticator{
		issuer:  cfg.Issuer,
		period:  period,
		digits:  digits,
		skew:    uint(cfg.Skew),
		clock:   clock,
		secrets: make(map[string]string),
		refs:    make(map[string]string),
	}
}

// AppSecret generates a fresh secret for the user and returns the otpauth
// URL the enrollment page renders as a QR code. A repeat call replaces the
// previous, unconfirmed secret.
//
// AppSecret may return an error when input validation, dependency calls, or security checks fail.
// AppSecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *TOTPAuthenticator) AppSecret(_ context.Context, vc VerificationContext) (AppProvision, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.issuer,
		AccountName: vc.UserID,
		Period:      a.period,
		Digits:      a.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return AppProvision{}, err
	}

	ref := uuid.NewString()

	a.mu.Lock()
	a.secrets[vc.UserID] = key.Secret()
	a.refs[ref] = vc.UserID
	a.mu.Unlock()

	return AppProvision{
		SecretRef: ref,
		QRPayload: key.URL(),
	}, nil
}

// VerifyCode describes the verifycode operation and its observable behavior.
//
// VerifyCode may return an error when input validation, dependency calls, or security checks fail.
// VerifyCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *TOTPAuthenticator) VerifyCode(_ context.Context, method Method, code string, vc VerificationContext) (bool, error) {
	if method != MethodApp {
		return false, nil
	}

	a.mu.Lock()
	secret, ok := a.secrets[vc.UserID]
	a.mu.Unlock()
	if !ok {
		return false, nil
	}

	valid, err := totp.ValidateCustom(code, secret, a.clock.Now(), totp.ValidateOpts{
		Period:    a.period,
		Skew:      a.skew,
		Digits:    a.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, nil
	}
	return valid, nil
}
