package internal

import (
	"encoding/base64"
	"testing"
)

func TestNewRandomTokenEntropyAndEncoding(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		tok, err := NewRandomToken()
		if err != nil {
			t.Fatalf("NewRandomToken error: %v", err)
		}
		raw, err := base64.RawURLEncoding.DecodeString(tok)
		if err != nil {
			t.Fatalf("token %q is not base64url: %v", tok, err)
		}
		if len(raw) != 32 {
			t.Fatalf("expected 32 random bytes, got %d", len(raw))
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("refresh-token")
	b := HashToken("refresh-token")
	if a != b {
		t.Fatalf("expected deterministic digest, got %q and %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if HashToken("refresh-token2") == a {
		t.Fatal("expected distinct digests for distinct inputs")
	}
}

func TestNewNumericCodeRange(t *testing.T) {
	for _, digits := range []int{4, 6, 8} {
		low := int64(1)
		for i := 1; i < digits; i++ {
			low *= 10
		}
		high := low*10 - 1

		for i := 0; i < 500; i++ {
			n, err := NewNumericCode(digits)
			if err != nil {
				t.Fatalf("NewNumericCode(%d) error: %v", digits, err)
			}
			if n < low || n > high {
				t.Fatalf("NewNumericCode(%d) = %d outside [%d, %d]", digits, n, low, high)
			}
		}
	}
}

func TestNewNumericCodeCoversLeadingDigits(t *testing.T) {
	leading := make(map[int64]bool)
	for i := 0; i < 2000 && len(leading) < 9; i++ {
		n, err := NewNumericCode(6)
		if err != nil {
			t.Fatalf("NewNumericCode error: %v", err)
		}
		leading[n/100000] = true
	}
	if len(leading) != 9 {
		t.Fatalf("expected every leading digit 1-9, saw %v", leading)
	}
}

func TestNewNumericCodeRejectsBadDigits(t *testing.T) {
	for _, d := range []int{0, 3, 11} {
		if _, err := NewNumericCode(d); err == nil {
			t.Fatalf("expected error for %d digits", d)
		}
	}
}
