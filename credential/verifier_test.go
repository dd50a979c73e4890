package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/authcore/authcore/password"
)

type countingHasher struct {
	*password.Argon2
	verifies int
}

func (h *countingHasher) Verify(secret, encoded string) (bool, error) {
	h.verifies++
	return h.Argon2.Verify(secret, encoded)
}

func newVerifierTest(t *testing.T) (*DirectoryVerifier, *MemoryDirectory, *countingHasher) {
	t.Helper()
	argon, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	hasher := &countingHasher{Argon2: argon}
	dir := NewMemoryDirectory()
	if _, err := dir.Add("cooluser1", "1234", hasher); err != nil {
		t.Fatalf("Add: %v", err)
	}
	v, err := NewDirectoryVerifier(dir, hasher)
	if err != nil {
		t.Fatalf("NewDirectoryVerifier: %v", err)
	}
	return v, dir, hasher
}

func TestVerifySuccess(t *testing.T) {
	v, _, _ := newVerifierTest(t)

	id, err := v.Verify(context.Background(), "cooluser1", "1234")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID == "" || id.DisplayName != "cooluser1" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestVerifyRejectionsShareOneKind(t *testing.T) {
	v, dir, _ := newVerifierTest(t)
	ctx := context.Background()

	if err := dir.SetDisabled("cooluser1", false); err != nil {
		t.Fatalf("SetDisabled: %v", err)
	}

	cases := []struct {
		name, secret string
		missing      bool
	}{
		{"cooluser1", "0000", false},
		{"nobody", "1234", false},
		{"", "1234", true},
		{"cooluser1", "", true},
	}
	for _, tc := range cases {
		_, err := v.Verify(ctx, tc.name, tc.secret)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Verify(%q, %q): expected ErrInvalidCredentials, got %v", tc.name, tc.secret, err)
		}
		if errors.Is(err, ErrMissingCredentials) != tc.missing {
			t.Fatalf("Verify(%q, %q): missing flag mismatch: %v", tc.name, tc.secret, err)
		}
	}
}

func TestVerifyUnknownUserStillHashes(t *testing.T) {
	v, _, hasher := newVerifierTest(t)
	before := hasher.verifies

	if _, err := v.Verify(context.Background(), "ghost", "1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if hasher.verifies != before+1 {
		t.Fatalf("expected one dummy comparison, got %d", hasher.verifies-before)
	}
}

func TestVerifyDisabledUser(t *testing.T) {
	v, dir, _ := newVerifierTest(t)
	if err := dir.SetDisabled("cooluser1", true); err != nil {
		t.Fatalf("SetDisabled: %v", err)
	}
	if _, err := v.Verify(context.Background(), "cooluser1", "1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyDirectoryUnavailable(t *testing.T) {
	v, _, _ := newVerifierTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Verify(ctx, "cooluser1", "1234")
	if !errors.Is(err, ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got %v", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("directory outage must not look like bad credentials")
	}
}

func TestMemoryDirectoryRejectsDuplicateName(t *testing.T) {
	_, dir, hasher := newVerifierTest(t)
	if _, err := dir.Add("cooluser1", "5678", hasher); err == nil {
		t.Fatal("expected duplicate name error")
	}
}
