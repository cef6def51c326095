package session

import (
	"context"
	"strings"
	"testing"
)

func sampleSession() *Session {
	return &Session{
		SessionID:             "sid-1",
		UserID:                "user-1",
		Token:                 "header.payload.signature",
		Method:                "sms",
		Remember:              true,
		SecondFactorSatisfied: true,
		IssuedAt:              1_700_000_000,
		ExpiresAt:             1_700_086_400,
		IdleDeadline:          1_700_001_800,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := sampleSession()

	data, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestDecodeFlagsIndependently(t *testing.T) {
	s := sampleSession()
	s.Remember = false
	s.SecondFactorSatisfied = true

	data, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Remember || !got.SecondFactorSatisfied {
		t.Fatalf("flags = remember=%v sfs=%v", got.Remember, got.SecondFactorSatisfied)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	data, err := Encode(sampleSession())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	data[0] = 99

	if _, err := Decode(data); err == nil {
		t.Fatal("decoded a record with an unknown version")
	}
}

func TestDecodeRejectsTruncatedAndTrailingInput(t *testing.T) {
	data, err := Encode(sampleSession())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for cut := 1; cut < len(data); cut++ {
		if _, err := Decode(data[:cut]); err == nil {
			t.Fatalf("decoded truncated record of %d bytes", cut)
		}
	}

	if _, err := Decode(append(append([]byte(nil), data...), 0x00)); err == nil {
		t.Fatal("decoded a record with trailing bytes")
	}
	if _, err := Decode(nil); err == nil {
		t.Fatal("decoded an empty record")
	}
}

func TestEncodeRejectsOversizedFields(t *testing.T) {
	s := sampleSession()
	s.UserID = strings.Repeat("x", 256)
	if _, err := Encode(s); err == nil {
		t.Fatal("encoded an oversized user ID")
	}

	s = sampleSession()
	s.Token = strings.Repeat("x", 65536)
	if _, err := Encode(s); err == nil {
		t.Fatal("encoded an oversized token")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if got, err := store.Load(ctx); err != nil || got != nil {
		t.Fatalf("Load on empty store = (%+v, %v)", got, err)
	}

	want := sampleSession()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *got != *want {
		t.Fatalf("loaded %+v, want %+v", got, want)
	}

	// Mutating the loaded copy must not affect the stored record.
	got.UserID = "someone-else"
	again, err := store.Load(ctx)
	if err != nil || again.UserID != "user-1" {
		t.Fatalf("store shares state with callers: (%+v, %v)", again, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if got, err := store.Load(ctx); err != nil || got != nil {
		t.Fatalf("Load after Clear = (%+v, %v)", got, err)
	}
}
