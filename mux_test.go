package goSession

import (
	"context"
	"errors"
	"testing"
)

func TestSenderMuxRejectsMissingHalves(t *testing.T) {
	var m SenderMux

	if err := m.SendSMS(context.Background(), VerificationContext{}); !errors.Is(err, ErrMethodUnavailable) {
		t.Fatalf("SendSMS = %v, want ErrMethodUnavailable", err)
	}
	if _, err := m.AppSecret(context.Background(), VerificationContext{}); !errors.Is(err, ErrMethodUnavailable) {
		t.Fatalf("AppSecret = %v, want ErrMethodUnavailable", err)
	}
}

func TestSenderMuxDelegates(t *testing.T) {
	sender := &stubSender{provision: AppProvision{SecretRef: "ref-1", QRPayload: "otpauth://totp/x"}}
	m := SenderMux{App: sender, SMS: sender}

	if err := m.SendSMS(context.Background(), VerificationContext{UserID: "user-1"}); err != nil {
		t.Fatalf("SendSMS failed: %v", err)
	}
	if sender.sentCount() != 1 {
		t.Fatalf("sms calls = %d", sender.sentCount())
	}

	prov, err := m.AppSecret(context.Background(), VerificationContext{UserID: "user-1"})
	if err != nil || prov.SecretRef != "ref-1" {
		t.Fatalf("AppSecret = (%+v, %v)", prov, err)
	}
}

func TestVerifierMuxRoutesByMethod(t *testing.T) {
	app := &stubVerifier{accept: "111111"}
	sms := &stubVerifier{accept: "222222"}
	backup := &stubVerifier{accept: "33333333"}
	m := VerifierMux{App: app, SMS: sms, Backup: backup}
	ctx := context.Background()
	vc := VerificationContext{UserID: "user-1"}

	if ok, err := m.VerifyCode(ctx, MethodApp, "111111", vc); err != nil || !ok {
		t.Fatalf("app route = (%v, %v)", ok, err)
	}
	if ok, err := m.VerifyCode(ctx, MethodSMS, "222222", vc); err != nil || !ok {
		t.Fatalf("sms route = (%v, %v)", ok, err)
	}
	if ok, err := m.VerifyCode(ctx, MethodBackup, "33333333", vc); err != nil || !ok {
		t.Fatalf("backup route = (%v, %v)", ok, err)
	}

	// A code accepted by one route must not leak through another.
	if ok, _ := m.VerifyCode(ctx, MethodSMS, "111111", vc); ok {
		t.Fatal("sms route accepted an app code")
	}
	if sms.callCount() != 2 || app.callCount() != 1 {
		t.Fatalf("call counts: app=%d sms=%d", app.callCount(), sms.callCount())
	}
}

func TestVerifierMuxUnroutedMethodIsCleanRejection(t *testing.T) {
	m := VerifierMux{SMS: &stubVerifier{accept: "222222"}}

	ok, err := m.VerifyCode(context.Background(), MethodBackup, "33333333", VerificationContext{})
	if err != nil || ok {
		t.Fatalf("VerifyCode = (%v, %v), want clean rejection", ok, err)
	}
	ok, err = m.VerifyCode(context.Background(), Method("hardware-key"), "222222", VerificationContext{})
	if err != nil || ok {
		t.Fatalf("VerifyCode = (%v, %v), want clean rejection", ok, err)
	}
}
