package goSession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/session"
)

/*
====================================
FAKE CLOCK
====================================
*/

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	when    time.Time
	fn      func()
	fired   bool
	stopped bool
}

func newFakeClock() *fakeClock {
	// Anchored near the real clock so signed tokens minted under the fake
	// clock still validate.
	return &fakeClock{now: time.Now().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, when: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and fires due timers in deadline order.
// Callbacks run without the clock lock so they can re-arm timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)

	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.when.After(c.now) {
				continue
			}
			if next == nil || t.when.Before(next.when) {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.fired = true
		fn := next.fn
		c.mu.Unlock()
		fn()
		c.mu.Lock()
	}
	c.mu.Unlock()
}

/*
====================================
STUB COLLABORATORS
====================================
*/

type stubCredentials struct {
	mu     sync.Mutex
	result PrimaryResult
	err    error
	calls  int
}

func (s *stubCredentials) VerifyPrimary(context.Context, Credentials) (PrimaryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.result, s.err
}

func (s *stubCredentials) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubVerifier struct {
	mu     sync.Mutex
	accept string
	err    error
	calls  int

	// started receives one value when a blocked call enters; release, when
	// non-nil, blocks VerifyCode until it is closed.
	started chan struct{}
	release chan struct{}
}

func (s *stubVerifier) VerifyCode(_ context.Context, _ Method, code string, _ VerificationContext) (bool, error) {
	s.mu.Lock()
	s.calls++
	accept := s.accept
	err := s.err
	started := s.started
	release := s.release
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return false, err
	}
	return code == accept, nil
}

func (s *stubVerifier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubSender struct {
	mu        sync.Mutex
	smsCalls  int
	smsErr    error
	provision AppProvision
	appErr    error
}

func (s *stubSender) SendSMS(context.Context, VerificationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.smsErr != nil {
		return s.smsErr
	}
	s.smsCalls++
	return nil
}

func (s *stubSender) AppSecret(context.Context, VerificationContext) (AppProvision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appErr != nil {
		return AppProvision{}, s.appErr
	}
	return s.provision, nil
}

func (s *stubSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.smsCalls
}

var errStoreDown = errors.New("store down")

// flakyStore wraps the in-memory session store with per-operation fault
// injection.
type flakyStore struct {
	inner *session.MemoryStore

	mu        sync.Mutex
	failSave  bool
	failLoad  bool
	failClear bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{inner: session.NewMemoryStore()}
}

func (s *flakyStore) Save(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	fail := s.failSave
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return s.inner.Save(ctx, sess)
}

func (s *flakyStore) Load(ctx context.Context) (*session.Session, error) {
	s.mu.Lock()
	fail := s.failLoad
	s.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	return s.inner.Load(ctx)
}

func (s *flakyStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	fail := s.failClear
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return s.inner.Clear(ctx)
}

func (s *flakyStore) setFailSave(v bool)  { s.mu.Lock(); s.failSave = v; s.mu.Unlock() }
func (s *flakyStore) setFailClear(v bool) { s.mu.Lock(); s.failClear = v; s.mu.Unlock() }

/*
====================================
ENGINE CONSTRUCTION
====================================
*/

type testEnv struct {
	clock    *fakeClock
	creds    *stubCredentials
	verifier *stubVerifier
	sender   *stubSender
	store    *flakyStore
	engine   *Engine
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Token.Issuer = "test"
	return cfg
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	env := &testEnv{
		clock:    newFakeClock(),
		creds:    &stubCredentials{},
		verifier: &stubVerifier{accept: "123456"},
		sender:   &stubSender{provision: AppProvision{SecretRef: "ref-1", QRPayload: "otpauth://totp/demo"}},
		store:    newFlakyStore(),
	}

	engine, err := New().
		WithConfig(cfg).
		WithClock(env.clock).
		WithCredentialVerifier(env.creds).
		WithCodeVerifier(env.verifier).
		WithCodeSender(env.sender).
		WithSessionStore(env.store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	env.engine = engine
	return env
}

// loginSecondFactor drives a login to the pending-verification state with the
// SMS method selected.
func (env *testEnv) loginSecondFactor(t *testing.T) *Verification {
	t.Helper()

	env.creds.result = PrimaryResult{
		Status:  PrimarySecondFactorRequired,
		UserID:  "user-1",
		Methods: []Method{MethodSMS, MethodApp, MethodBackup},
	}

	res, err := env.engine.Login(context.Background(), Credentials{Identifier: "alice", Password: "pw"}, false)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.Verification == nil {
		t.Fatal("expected a pending verification")
	}
	if err := res.Verification.SelectMethod(context.Background(), MethodSMS); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}
	return res.Verification
}

// loginDirect drives a login that needs no second factor and returns the
// session snapshot.
func (env *testEnv) loginDirect(t *testing.T, remember bool) *SessionSnapshot {
	t.Helper()

	env.creds.result = PrimaryResult{Status: PrimaryOK, UserID: "user-1"}
	res, err := env.engine.Login(context.Background(), Credentials{Identifier: "alice", Password: "pw"}, remember)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.Session == nil {
		t.Fatal("expected an immediate session")
	}
	return res.Session
}
