package utils

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Encode("s3cret")
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !h.Matches("s3cret", hash) {
		t.Fatal("expected password to match its own hash")
	}
	if h.Matches("S3cret", hash) {
		t.Fatal("expected a different password not to match")
	}
	if h.Matches("s3cret", "not-a-bcrypt-hash") {
		t.Fatal("expected a garbage hash never to match")
	}

	// Limit is in bytes: 25 four-byte runes are 100 bytes.
	if _, err := h.Encode(strings.Repeat("😀", 25)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := h.Encode(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Fatalf("a %d byte password must be accepted: %v", MaxPasswordBytes, err)
	}

	if cost := NewBcryptHasher(99).cost; cost != DefaultBcryptCost {
		t.Fatalf("out of range cost should fall back to %d, got %d", DefaultBcryptCost, cost)
	}
}
