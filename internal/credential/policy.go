package credential

import (
	"unicode"
	"unicode/utf8"

	"github.com/dtroode/signvault/internal/model"
)

// MinPasswordLength is the minimum number of characters in a password.
const MinPasswordLength = 12

// Password rule violations.
const (
	ViolationLength    = "password must be at least 12 characters long."
	ViolationUppercase = "password must contain at least one uppercase letter."
	ViolationLowercase = "password must contain at least one lowercase letter."
	ViolationDigit     = "password must contain at least one digit."
	ViolationSpecial   = "password must contain at least one special character."
)

// CheckPassword returns every rule the password violates, in rule order.
// Each character counts for exactly one class; anything that is not an upper
// or lower case letter or a digit is special.
func CheckPassword(password string) []string {
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	var violations []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		violations = append(violations, ViolationLength)
	}
	if !upper {
		violations = append(violations, ViolationUppercase)
	}
	if !lower {
		violations = append(violations, ViolationLowercase)
	}
	if !digit {
		violations = append(violations, ViolationDigit)
	}
	if !special {
		violations = append(violations, ViolationSpecial)
	}
	return violations
}

// ValidatePassword returns a *model.ValidationError listing all violations, or nil.
func ValidatePassword(password string) error {
	if violations := CheckPassword(password); len(violations) > 0 {
		return model.NewValidationError(violations...)
	}
	return nil
}
