package session

import (
	"testing"
	"time"
)

// FuzzParseRefreshToken feeds arbitrary strings to the refresh token decoder. Invalid
// input must fail with ErrTokenMalformed, never panic.
func FuzzParseRefreshToken(f *testing.F) {
	f.Add("")
	f.Add("abc")
	f.Add("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	f.Add("!!!not-base64!!!")
	f.Add("aGVsbG8=")
	if tok, err := newRefreshToken(time.Unix(1_700_000_000, 0)); err == nil {
		f.Add(tok.String())
	}

	f.Fuzz(func(t *testing.T, input string) {
		tok, err := parseRefreshToken(input)
		if err != nil {
			if err != ErrTokenMalformed {
				t.Fatalf("unexpected error type %v", err)
			}
			return
		}

		again, err := parseRefreshToken(tok.String())
		if err != nil {
			t.Fatalf("re-encoded token rejected: %v", err)
		}
		if again.id != tok.id || again.secret != tok.secret {
			t.Fatal("roundtrip mismatch")
		}

		sid, err := SessionIDFromToken(input)
		if err != nil || sid != tok.id.String() {
			t.Fatalf("SessionIDFromToken = %q, %v", sid, err)
		}
	})
}
