package validation

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 12
	MaxPasswordLength = 128
)

// ValidatePassword enforces length and character-class rules for new passwords.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return errors.New("password must be at least 12 characters")
	}
	if n > MaxPasswordLength {
		return errors.New("password must be at most 128 characters")
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
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return errors.New("password must contain upper and lower case letters, a digit and a special character")
	}
	return nil
}
