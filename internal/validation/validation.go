// Package validation holds the pure input checks shared by the auth and
// poll services.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	pollbox_errors "pollbox/pkg/errors"
)

// PasswordStrength checks the password policy: at least 8 characters with
// one uppercase letter, one lowercase letter, one digit and one special
// character. Violations are reported as a single combined reason.
func PasswordStrength(password string) error {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if len(password) < 8 || !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return pollbox_errors.ErrWeakPassword
	}
	return nil
}

// PollShape validates a poll's question and options. The question must be
// non-blank after trimming; at least 2 options must remain after blank
// entries are filtered out. The trimmed, filtered values are returned so
// callers persist exactly what was validated.
func PollShape(question string, options []string) (string, []string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, fmt.Errorf("%w: question must not be empty", pollbox_errors.ErrInvalidInput)
	}

	filtered := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt != "" {
			filtered = append(filtered, opt)
		}
	}

	if len(filtered) < 2 {
		return "", nil, fmt.Errorf("%w: a poll needs at least 2 options", pollbox_errors.ErrInvalidInput)
	}

	return question, filtered, nil
}
