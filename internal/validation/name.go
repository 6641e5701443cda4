package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

var (
	ErrInvalidUsername = errors.New("username must be 3-32 characters of letters, digits, '.', '_' or '-'")
	ErrNameTooLong     = errors.New("name is too long (max 100 characters)")
)

func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateDisplayName allows empty names.
func ValidateDisplayName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > 100 {
		return ErrNameTooLong
	}
	return nil
}

// ValidateTitle requires 1 to max runes after trimming.
func ValidateTitle(title string, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 {
		return errors.New("title is required")
	}
	if n > max {
		return errors.New("title is too long")
	}
	return nil
}
