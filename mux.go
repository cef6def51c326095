package goSession

import "context"

// AppSecretSource is the provisioning half of [CodeSender].
type AppSecretSource interface {
	AppSecret(ctx context.Context, vc VerificationContext) (AppProvision, error)
}

// SMSDispatcher is the delivery half of [CodeSender].
type SMSDispatcher interface {
	SendSMS(ctx context.Context, vc VerificationContext) error
}

// SenderMux combines independent app and SMS collaborators into one
// [CodeSender]. Either half may be nil when the deployment does not offer
// that method.
type SenderMux struct {
	App AppSecretSource
	SMS SMSDispatcher
}

// SendSMS describes the sendsms operation and its observable behavior.
//
// SendSMS may return an error when input validation, dependency calls, or security checks fail.
// SendSMS does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m SenderMux) SendSMS(ctx context.Context, vc VerificationContext) error {
	if m.SMS == nil {
		return ErrMethodUnavailable
	}
	return m.SMS.SendSMS(ctx, vc)
}

// AppSecret describes the appsecret operation and its observable behavior.
//
// AppSecret may return an error when input validation, dependency calls, or security checks fail.
// AppSecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m SenderMux) AppSecret(ctx context.Context, vc VerificationContext) (AppProvision, error) {
	if m.App == nil {
		return AppProvision{}, ErrMethodUnavailable
	}
	return m.App.AppSecret(ctx, vc)
}

// VerifierMux routes code checks to a per-method [CodeVerifier]. A code for
// a method with no verifier is a clean rejection, not a transport failure.
type VerifierMux struct {
	App    CodeVerifier
	SMS    CodeVerifier
	Backup CodeVerifier
}

// VerifyCode describes the verifycode operation and its observable behavior.
//
// VerifyCode may return an error when input validation, dependency calls, or security checks fail.
// VerifyCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m VerifierMux) VerifyCode(ctx context.Context, method Method, code string, vc VerificationContext) (bool, error) {
	var v CodeVerifier
	switch method {
	case MethodApp:
		v = m.App
	case MethodSMS:
		v = m.SMS
	case MethodBackup:
		v = m.Backup
	}
	if v == nil {
		return false, nil
	}
	return v.VerifyCode(ctx, method, code, vc)
}
