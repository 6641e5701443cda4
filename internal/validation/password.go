package validation

import (
	"errors"
	"strings"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must not exceed 72 characters")
	ErrCommonPassword   = errors.New("password is too common, please choose a stronger one")
)

var commonPasswords = map[string]bool{
	"password": true, "password1": true, "12345678": true, "123456789": true,
	"1234567890": true, "qwertyuiop": true, "qwerty123": true, "iloveyou": true,
	"letmein1": true, "welcome1": true, "sunshine": true, "football": true,
	"baseball": true, "superman": true, "trustno1": true, "11111111": true,
	"abc12345": true, "passw0rd": true, "00000000": true, "asdfghjkl": true,
}

// ValidatePassword enforces a length window and rejects well-known passwords.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}

	// bcrypt silently truncates passwords longer than 72 bytes
	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	if commonPasswords[strings.ToLower(password)] {
		return ErrCommonPassword
	}

	return nil
}
