package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[\x00-\x1f\x7f/\\:*?"<>|]`)

// SanitizeFileName strips characters that are unsafe in file names so
// a sheet name can double as an xlsx file name.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(unsafeFileChars.ReplaceAllString(name, ""))
}
