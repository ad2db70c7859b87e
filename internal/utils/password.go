package utils

import (
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost = 12
	// MaxPasswordBytes is bcrypt's input limit, counted in bytes.
	MaxPasswordBytes = 72
)

// PasswordHasher hashes and checks user passwords.
type PasswordHasher interface {
	Encode(password string) (string, error)
	Matches(password, hash string) bool
}

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt hasher. Costs outside bcrypt's accepted
// range fall back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Encode generates a bcrypt hash of the password. Passwords longer than
// MaxPasswordBytes are ErrPasswordTooLong.
func (h *BcryptHasher) Encode(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(bytes), err
}

// Matches compares a plaintext password with a stored bcrypt hash.
func (h *BcryptHasher) Matches(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
