package credentials

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"bookstore/internal/auth/models"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes  = 72
	MinUsernameLength = 3
	MaxUsernameLength = 50

	passwordSpecials = "@#$%^&+=!"
)

// ValidatePassword enforces the registration password policy: at least
// MinPasswordLength characters and at most MaxPasswordBytes bytes, with an
// upper-case letter, a lower-case letter, a digit and one of @#$%^&+=!.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return models.Errorf(models.ErrValidation, "password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return models.Errorf(models.ErrValidation, "password must be at most %d bytes long", MaxPasswordBytes)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}

	switch {
	case !upper:
		return models.Errorf(models.ErrValidation, "password must contain at least one uppercase letter")
	case !lower:
		return models.Errorf(models.ErrValidation, "password must contain at least one lowercase letter")
	case !digit:
		return models.Errorf(models.ErrValidation, "password must contain at least one digit")
	case !special:
		return models.Errorf(models.ErrValidation, "password must contain at least one special character")
	}
	return nil
}

func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(username))
	if n < MinUsernameLength || n > MaxUsernameLength {
		return models.Errorf(models.ErrValidation, "username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength)
	}
	return nil
}

func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return models.Errorf(models.ErrValidation, "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return models.Errorf(models.ErrValidation, "email must be valid")
	}
	return nil
}
