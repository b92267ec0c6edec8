package security

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters (OWASP recommended minimums for interactive use).
const (
	scryptN       = 32768
	scryptR       = 8
	scryptP       = 1
	DeriveSaltLen = 16
)

// NewDeriveSalt draws a fresh random salt for key derivation.
func NewDeriveSalt() ([]byte, error) {
	salt := make([]byte, DeriveSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey stretches a passphrase into a 256-bit key with scrypt. The
// same passphrase and salt always yield the same key, so a user can
// recover a session key without the raw export being stored anywhere.
func DeriveKey(passphrase string, salt []byte) (*Key, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase cannot be empty")
	}
	if len(salt) < DeriveSaltLen {
		return nil, fmt.Errorf("salt must be at least %d bytes", DeriveSaltLen)
	}

	raw, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, KeySize)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	return &Key{raw: raw}, nil
}
