package goSession

import "regexp"

// Format checks run locally before any collaborator is consulted. A code
// that fails them never reaches the verifier and never consumes an attempt.

func validateCodeFormat(m Method, code string, cfg VerificationConfig) error {
	digits := cfg.CodeDigits
	if m == MethodBackup {
		digits = cfg.BackupCodeDigits
	}
	if len(code) != digits || !allDigits(code) {
		return ErrCodeMalformed
	}
	return nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

type phoneValidator struct {
	pattern *regexp.Regexp
}

func newPhoneValidator(pattern string) (*phoneValidator, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &phoneValidator{pattern: re}, nil
}

func (p *phoneValidator) validate(phone string) error {
	if phone == "" || !p.pattern.MatchString(phone) {
		return ErrPhoneInvalid
	}
	return nil
}
