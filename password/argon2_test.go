package password

import (
	"errors"
	"strings"
	"testing"
)

// fastConfig keeps the minimum cost so the suite stays quick.
func fastConfig() Config {
	return Config{
		Memory:      minMemoryKB,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerifyPIN(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("1234")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("1234", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to succeed, got %v, %v", ok, err)
	}

	ok, err = hasher.Verify("1235", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, got %v, %v", ok, err)
	}
}

func TestHashRejectsShortSecret(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	if _, err := hasher.Hash("12"); !errors.Is(err, ErrSecretTooShort) {
		t.Fatalf("expected ErrSecretTooShort, got %v", err)
	}
}

func TestHashIsSalted(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	a, _ := hasher.Hash("246810")
	b, _ := hasher.Hash("246810")
	if a == b {
		t.Fatal("expected distinct hashes for the same secret")
	}
}

func TestNeedsUpgrade(t *testing.T) {
	oldHasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2(old) error: %v", err)
	}
	hash, err := oldHasher.Hash("9876")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := fastConfig()
	stronger.Time = 2
	newHasher, err := NewArgon2(stronger)
	if err != nil {
		t.Fatalf("NewArgon2(new) error: %v", err)
	}

	if up, err := newHasher.NeedsUpgrade(hash); err != nil || !up {
		t.Fatalf("expected upgrade, got %v, %v", up, err)
	}
	if up, err := oldHasher.NeedsUpgrade(hash); err != nil || up {
		t.Fatalf("expected no upgrade, got %v, %v", up, err)
	}
	if ok, err := newHasher.Verify("9876", hash); err != nil || !ok {
		t.Fatalf("older hash must still verify, got %v, %v", ok, err)
	}
}

func TestVerifyRejectsMalformedPHC(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	cases := []string{
		"",
		"plain",
		"$bcrypt$v=19$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
		"$argon2id$v=18$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
		"$argon2id$v=19$m=1,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
		"$argon2id$v=19$m=8192,m=8192,t=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
		"$argon2id$v=19$m=8192,t=1,p=1$short$AAAA",
		"$argon2id$v=19$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$",
	}
	for _, in := range cases {
		if _, err := hasher.Verify("1234", in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	weak := []Config{
		{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		{Memory: minMemoryKB, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		{Memory: minMemoryKB, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 32},
		{Memory: minMemoryKB, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 32},
		{Memory: minMemoryKB, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8},
		{Memory: minMemoryKB, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32, MinSecretBytes: -1},
	}
	for i, cfg := range weak {
		if _, err := NewArgon2(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
	if _, err := NewArgon2(DefaultConfig()); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}
