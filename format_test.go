package goSession

import (
	"errors"
	"testing"
)

func TestValidateCodeFormat(t *testing.T) {
	cfg := VerificationConfig{CodeDigits: 6, BackupCodeDigits: 8}

	cases := []struct {
		method Method
		code   string
		ok     bool
	}{
		{MethodApp, "123456", true},
		{MethodSMS, "000000", true},
		{MethodBackup, "12345678", true},
		{MethodApp, "12345", false},
		{MethodApp, "1234567", false},
		{MethodApp, "12a456", false},
		{MethodApp, "123 45", false},
		{MethodApp, "", false},
		{MethodBackup, "123456", false},
		{MethodBackup, "1234-5678", false},
		{MethodSMS, "12345⁶", false},
	}

	for _, tc := range cases {
		err := validateCodeFormat(tc.method, tc.code, cfg)
		if tc.ok && err != nil {
			t.Errorf("validateCodeFormat(%v, %q) = %v, want nil", tc.method, tc.code, err)
		}
		if !tc.ok && !errors.Is(err, ErrCodeMalformed) {
			t.Errorf("validateCodeFormat(%v, %q) = %v, want ErrCodeMalformed", tc.method, tc.code, err)
		}
	}
}

func TestPhoneValidator(t *testing.T) {
	p, err := newPhoneValidator(defaultPhonePattern)
	if err != nil {
		t.Fatalf("newPhoneValidator failed: %v", err)
	}

	valid := []string{"+15550100100", "15550100100", "4915123456789"}
	for _, phone := range valid {
		if err := p.validate(phone); err != nil {
			t.Errorf("validate(%q) = %v, want nil", phone, err)
		}
	}

	invalid := []string{"", "123", "+1 555 0100 100", "phone", "+1234567890123456"}
	for _, phone := range invalid {
		if err := p.validate(phone); !errors.Is(err, ErrPhoneInvalid) {
			t.Errorf("validate(%q) = %v, want ErrPhoneInvalid", phone, err)
		}
	}
}
