package goSession

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func TestAuditDisabledProducesNoDispatcher(t *testing.T) {
	env := newTestEnv(t, nil)

	env.loginDirect(t, false)
	if got := env.engine.AuditDropped(); got != 0 {
		t.Fatalf("dropped = %d on a disabled pipeline", got)
	}
}

func TestAuditEventsCarryRequestContext(t *testing.T) {
	sink := NewChannelSink(16)

	env := &testEnv{
		clock:    newFakeClock(),
		creds:    &stubCredentials{},
		verifier: &stubVerifier{accept: "123456"},
		sender:   &stubSender{},
		store:    newFlakyStore(),
	}

	cfg := testConfig()
	cfg.Audit.Enabled = true

	engine, err := New().
		WithConfig(cfg).
		WithClock(env.clock).
		WithCredentialVerifier(env.creds).
		WithCodeVerifier(env.verifier).
		WithCodeSender(env.sender).
		WithSessionStore(env.store).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	ctx = WithUserAgent(ctx, "portal-ui/2.1")

	env.creds.result = PrimaryResult{Status: PrimaryOK, UserID: "user-1"}
	if _, err := engine.Login(ctx, Credentials{Identifier: "alice", Password: "pw"}, false); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	want := map[string]bool{
		auditEventSessionCreated: false,
		auditEventLoginSuccess:   false,
	}
	deadline := time.After(2 * time.Second)
	for {
		var done = true
		for _, seen := range want {
			if !seen {
				done = false
			}
		}
		if done {
			break
		}

		select {
		case ev := <-sink.Events():
			if _, ok := want[ev.EventType]; !ok {
				t.Fatalf("unexpected event %q", ev.EventType)
			}
			want[ev.EventType] = true
			if ev.UserID != "user-1" {
				t.Fatalf("event user = %q", ev.UserID)
			}
			if ev.IP != "203.0.113.7" {
				t.Fatalf("event ip = %q", ev.IP)
			}
			if ev.Metadata["user_agent"] != "portal-ui/2.1" {
				t.Fatalf("event metadata = %v", ev.Metadata)
			}
			if !ev.Success {
				t.Fatalf("event %q reported failure", ev.EventType)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for events, seen: %v", want)
		}
	}
}

func TestAuditDropsWhenBufferFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// The worker blocks on the first event; the buffer holds one more.
	for i := 0; i < 8; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventLoginFailure})
	}

	if got := d.Dropped(); got < 6 {
		t.Fatalf("dropped = %d, want at least 6", got)
	}

	close(sink.gate)
	d.Close()
}

func TestAuditCloseDrainsBuffer(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16, DropIfFull: false}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventLogout})
	}
	d.Close()

	if got := sink.count.Load(); got != 5 {
		t.Fatalf("sink received %d events, want 5", got)
	}

	// Emitting after close is a silent no-op.
	d.Emit(context.Background(), AuditEvent{EventType: auditEventLogout})
	if got := sink.count.Load(); got != 5 {
		t.Fatalf("post-close emit reached the sink: %d", got)
	}
}
