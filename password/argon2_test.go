package password

import (
	"strings"
	"testing"
)

func newTestHasher(t *testing.T) *Argon2 {
	t.Helper()

	a, err := NewArgon2(Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return a
}

func TestHashVerifyRoundTrip(t *testing.T) {
	a := newTestHasher(t)

	hash, err := a.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("hash is not PHC formatted: %q", hash)
	}

	ok, err := a.Verify("correct-horse-battery", hash)
	if err != nil || !ok {
		t.Fatalf("Verify = (%v, %v), want accepted", ok, err)
	}
	ok, err = a.Verify("incorrect-horse-battery", hash)
	if err != nil || ok {
		t.Fatalf("Verify = (%v, %v), want rejected", ok, err)
	}
}

func TestHashSaltsEachCall(t *testing.T) {
	a := newTestHasher(t)

	first, err := a.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	second, err := a.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	a := newTestHasher(t)

	if _, err := a.Hash("short"); err == nil {
		t.Fatal("Hash accepted a password under the minimum length")
	}
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	a := newTestHasher(t)

	bad := []string{
		"",
		"plainhash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	}
	for _, hash := range bad {
		if _, err := a.Verify("correct-horse-battery", hash); err == nil {
			t.Errorf("Verify accepted malformed hash %q", hash)
		}
	}
}

func TestNeedsUpgradeTracksCostChanges(t *testing.T) {
	weak := newTestHasher(t)
	hash, err := weak.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if upgrade, err := weak.NeedsUpgrade(hash); err != nil || upgrade {
		t.Fatalf("NeedsUpgrade on current params = (%v, %v)", upgrade, err)
	}

	strong, err := NewArgon2(Config{
		Memory:      16 * 1024,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	if upgrade, err := strong.NeedsUpgrade(hash); err != nil || !upgrade {
		t.Fatalf("NeedsUpgrade against stronger params = (%v, %v)", upgrade, err)
	}
}

func TestNewArgon2RejectsWeakConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"low memory", func(c *Config) { c.Memory = 1024 }},
		{"zero time", func(c *Config) { c.Time = 0 }},
		{"zero parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"short salt", func(c *Config) { c.SaltLength = 8 }},
		{"short key", func(c *Config) { c.KeyLength = 8 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if _, err := NewArgon2(cfg); err == nil {
				t.Fatal("NewArgon2 accepted a weak config")
			}
		})
	}
}
