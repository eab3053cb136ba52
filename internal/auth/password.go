package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost is the default cost for bcrypt hashing.
	// Cost of 10 provides a good balance between security and performance.
	bcryptCost = 10
)

// Gate hashes and verifies channel passwords. It satisfies the core
// hub's PasswordGate interface.
type Gate struct{}

// NewGate returns a bcrypt-backed password gate.
func NewGate() *Gate {
	return &Gate{}
}

// Hash generates a bcrypt hash of the password.
func (*Gate) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare compares a bcrypt hashed password with its plaintext version.
func (*Gate) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
