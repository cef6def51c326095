package goSession

import (
	"context"
	"errors"
	"testing"
)

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t, nil)
	env.creds.result = PrimaryResult{Status: PrimaryInvalid}

	_, err := env.engine.Login(context.Background(), Credentials{Identifier: "alice", Password: "wrong"}, false)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login error = %v, want ErrInvalidCredentials", err)
	}
	if env.engine.Snapshot() != nil {
		t.Fatal("failed login created a session")
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	env.creds.result = PrimaryResult{Status: PrimaryInactive, UserID: "user-1"}

	_, err := env.engine.Login(context.Background(), Credentials{Identifier: "alice", Password: "pw"}, false)
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("Login error = %v, want ErrAccountInactive", err)
	}
}

func TestLoginBackendUnavailable(t *testing.T) {
	env := newTestEnv(t, nil)
	env.creds.err = errors.New("identity service 503")

	_, err := env.engine.Login(context.Background(), Credentials{Identifier: "alice", Password: "pw"}, false)
	if !errors.Is(err, ErrCredentialBackendUnavailable) {
		t.Fatalf("Login error = %v, want ErrCredentialBackendUnavailable", err)
	}
}

func TestLoginWithoutSecondFactor(t *testing.T) {
	env := newTestEnv(t, nil)

	snap := env.loginDirect(t, false)
	if snap.UserID != "user-1" {
		t.Fatalf("user = %q, want user-1", snap.UserID)
	}
	if snap.SecondFactorSatisfied {
		t.Fatal("session claims a second factor that never ran")
	}
	if snap.Token == "" {
		t.Fatal("session has no token")
	}

	// Persisted on creation.
	stored, err := env.store.Load(context.Background())
	if err != nil || stored == nil {
		t.Fatalf("Load = (%v, %v)", stored, err)
	}
	if stored.SessionID != snap.SessionID {
		t.Fatalf("stored session %q, want %q", stored.SessionID, snap.SessionID)
	}
}

func TestLoginRejectedWhileSessionActive(t *testing.T) {
	env := newTestEnv(t, nil)
	env.loginDirect(t, false)

	_, err := env.engine.Login(context.Background(), Credentials{Identifier: "alice", Password: "pw"}, false)
	if !errors.Is(err, ErrSessionActive) {
		t.Fatalf("Login error = %v, want ErrSessionActive", err)
	}
}

func TestLoginRequiresSecondFactor(t *testing.T) {
	env := newTestEnv(t, nil)
	v := env.loginSecondFactor(t)

	if env.engine.Snapshot() != nil {
		t.Fatal("session exists before second factor")
	}
	if env.engine.PendingVerification() != v {
		t.Fatal("pending verification not exposed")
	}
	if v.UserID() != "user-1" {
		t.Fatalf("verification user = %q", v.UserID())
	}
}

func TestNewLoginCancelsStaleVerification(t *testing.T) {
	env := newTestEnv(t, nil)
	stale := env.loginSecondFactor(t)

	res, err := env.engine.Login(context.Background(), Credentials{Identifier: "alice", Password: "pw"}, false)
	if err != nil {
		t.Fatalf("second Login failed: %v", err)
	}
	fresh := res.Verification
	if fresh == nil || fresh == stale {
		t.Fatal("second login did not mint a fresh verification")
	}

	if st := stale.Status(); st.State != VerificationCancelled {
		t.Fatalf("stale flow state = %v, want cancelled", st.State)
	}
	if _, err := stale.Submit(context.Background(), "123456"); !errors.Is(err, ErrVerificationFinished) {
		t.Fatalf("stale submit error = %v, want ErrVerificationFinished", err)
	}
	if env.engine.PendingVerification() != fresh {
		t.Fatal("fresh verification not the pending one")
	}
}

func TestLoginSecondFactorDisabledByConfig(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Verification.RequireForLogin = false
	})
	env.creds.result = PrimaryResult{
		Status:  PrimarySecondFactorRequired,
		UserID:  "user-1",
		Methods: []Method{MethodSMS},
	}

	res, err := env.engine.Login(context.Background(), Credentials{Identifier: "alice", Password: "pw"}, false)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.Session == nil || res.Verification != nil {
		t.Fatalf("result = %+v, want immediate session", res)
	}
	if res.Session.SecondFactorSatisfied {
		t.Fatal("bypassed second factor must not be reported as satisfied")
	}
}

func TestLoginAfterEngineClose(t *testing.T) {
	env := newTestEnv(t, nil)
	env.engine.Close()

	_, err := env.engine.Login(context.Background(), Credentials{Identifier: "alice", Password: "pw"}, false)
	if !errors.Is(err, ErrEngineClosed) {
		t.Fatalf("Login error = %v, want ErrEngineClosed", err)
	}
}
