// Package internal holds small helpers shared by the engine and its
// internal packages: confirmation-token generation and hashing.
package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

const confirmationSecretSize = 32

// NewConfirmationToken returns a fresh unguessable confirmation token
// string: 32 random bytes, base64url without padding.
func NewConfirmationToken() (string, error) {
	var secret [confirmationSecretSize]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(secret[:]), nil
}

// HashConfirmationToken maps a token string to its storage key digest.
// Only the digest is persisted, never the token itself.
func HashConfirmationToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CheckConfirmationToken rejects token strings that cannot have been
// produced by [NewConfirmationToken], before any store round trip.
func CheckConfirmationToken(token string) error {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return err
	}
	if len(raw) != confirmationSecretSize {
		return errors.New("invalid confirmation token size")
	}
	return nil
}
