package scheduler

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength    = 16
	derivedKeyLen = 16
	pbkdf2Rounds  = 100_000

	specialChars = "!@#?"
)

// GenerateSalt returns 16 bytes from a cryptographically random source.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey computes the stored credential for a password and salt:
// PBKDF2-HMAC-SHA256, 100000 rounds, 16-byte key. This is the only
// value ever compared during authentication; raw passwords are never
// compared or persisted.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Rounds, derivedKeyLen, sha256.New)
}

// KeysEqual compares two derived keys in constant time.
func KeysEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// ValidatePassword applies the strength rules in a fixed order and
// reports only the first one violated: length, letter, mixed case,
// digit, special character.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: must be at least 8 characters long", ErrWeakPassword)
	}

	var hasLetter, hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasLetter, hasUpper = true, true
		case unicode.IsLower(r):
			hasLetter, hasLower = true, true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	switch {
	case !hasLetter:
		return fmt.Errorf("%w: must contain at least one letter", ErrWeakPassword)
	case !hasUpper || !hasLower:
		return fmt.Errorf("%w: must mix uppercase and lowercase letters", ErrWeakPassword)
	case !hasDigit:
		return fmt.Errorf("%w: must contain at least one digit", ErrWeakPassword)
	case !hasSpecial:
		return fmt.Errorf("%w: must contain one of the special characters ! @ # ?", ErrWeakPassword)
	}
	return nil
}
