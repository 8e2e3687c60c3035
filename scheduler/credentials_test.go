package scheduler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordAccepted(t *testing.T) {
	for _, pw := range []string{"Passw0rd!", "aB3?xyzw", "Sch3duler#", "X9y@zzzz"} {
		assert.NoError(t, ValidatePassword(pw), pw)
	}
}

func TestValidatePasswordRejectsFirstViolation(t *testing.T) {
	tests := []struct {
		name     string
		password string
		reason   string
	}{
		{"too short", "Ab1!", "at least 8 characters"},
		{"no letter", "12345678!", "at least one letter"},
		{"no mixed case", "password1!", "mix uppercase and lowercase"},
		{"no digit", "Password!", "at least one digit"},
		{"no special char", "Password1", "special characters"},
		// Length is checked first, so a password violating several
		// rules reports only the length.
		{"first rule wins", "pw1", "at least 8 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			require.ErrorIs(t, err, ErrWeakPassword)
			assert.ErrorContains(t, err, tt.reason)
		})
	}
}

func TestGenerateSalt(t *testing.T) {
	s1, err := GenerateSalt()
	require.NoError(t, err)
	s2, err := GenerateSalt()
	require.NoError(t, err)

	assert.Len(t, s1, saltLength)
	assert.False(t, bytes.Equal(s1, s2), "two salts should not collide")
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")

	k1 := DeriveKey("Passw0rd!", salt)
	k2 := DeriveKey("Passw0rd!", salt)
	require.Len(t, k1, derivedKeyLen)
	assert.Equal(t, k1, k2, "equal inputs must yield equal keys")

	other := DeriveKey("Passw0rd!", []byte("fedcba9876543210"))
	assert.NotEqual(t, k1, other, "different salts must yield different keys")

	assert.True(t, KeysEqual(k1, k2))
	assert.False(t, KeysEqual(k1, other))
}
