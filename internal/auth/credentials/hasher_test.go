package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bookstore/internal/auth/models"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("Secret1!")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1!", hash)

	assert.True(t, h.Verify("Secret1!", hash))
	assert.False(t, h.Verify("secret1!", hash))
	assert.False(t, h.Verify("", hash))
}

func TestHashIsSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("Secret1!")
	require.NoError(t, err)
	second, err := h.Hash("Secret1!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("Secret1!", first))
	assert.True(t, h.Verify("Secret1!", second))
}

func TestVerifyFailsClosedOnCorruptHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "not-a-hash", "$2a$10$", "$2a$99$abcdefghijklmnopqrstuv"} {
		assert.False(t, h.Verify("Secret1!", hash), "hash %q", hash)
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).cost)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{name: "valid", password: "Secret1!", ok: true},
		{name: "too short", password: "Se1!", ok: false},
		{name: "no upper", password: "secret1!", ok: false},
		{name: "no lower", password: "SECRET1!", ok: false},
		{name: "no digit", password: "Secretly!", ok: false},
		{name: "no special", password: "Secret12", ok: false},
		{name: "longest accepted", password: "Aa1!" + strings.Repeat("x", MaxPasswordBytes-4), ok: true},
		{name: "too long", password: "Aa1!" + strings.Repeat("x", MaxPasswordBytes-3), ok: false},
		{name: "too long in bytes", password: "Aa1!" + strings.Repeat("é", 35), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("john"))
	assert.ErrorIs(t, ValidateUsername("jo"), models.ErrValidation)
	assert.ErrorIs(t, ValidateUsername("   "), models.ErrValidation)
	assert.ErrorIs(t, ValidateUsername(string(make([]byte, MaxUsernameLength+1))), models.ErrValidation)
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("john@example.com"))
	assert.ErrorIs(t, ValidateEmail(""), models.ErrValidation)
	assert.ErrorIs(t, ValidateEmail("john"), models.ErrValidation)
	assert.ErrorIs(t, ValidateEmail("John <john@example.com>"), models.ErrValidation)
}
