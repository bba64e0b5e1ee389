// Package validate implements the credential validator: pure shape
// checks on emails and passwords with no I/O.  The rules here are a
// policy gate; deployments may tighten them but must not weaken them.
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/iliyamo/user-identity-service/internal/apperr"
)

// emailPattern accepts a standard local@domain shape: word characters,
// dots, pluses and hyphens in the local part, dotted domain labels and
// a 2–7 letter TLD.  No network lookup, no MX check.
var emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w-]+(\.[\w-]+)*\.[A-Za-z]{2,7}$`)

// MinPasswordLen is the minimum accepted password length.
const MinPasswordLen = 6

// Email parses and normalizes a raw email address.  The result is
// trimmed and lowercased; the same normalization is applied before
// every store lookup so case never splits an identity.
func Email(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperr.Msg(apperr.InvalidInput, "Email is required.")
	}
	if !emailPattern.MatchString(email) {
		return "", apperr.Msg(apperr.InvalidInput, "Email format is invalid.")
	}
	return email, nil
}

// Password checks a raw password against the policy: at least
// MinPasswordLen characters, at least one digit and at least one
// punctuation or symbol character.
func Password(raw string) (string, error) {
	if raw == "" {
		return "", apperr.Msg(apperr.InvalidInput, "Password is required.")
	}
	if len(raw) < MinPasswordLen {
		return "", apperr.Msg(apperr.InvalidInput, "Password must be at least 6 characters.")
	}
	var hasDigit, hasPunct bool
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasPunct = true
		}
	}
	if !hasDigit {
		return "", apperr.Msg(apperr.InvalidInput, "Password must contain a digit.")
	}
	if !hasPunct {
		return "", apperr.Msg(apperr.InvalidInput, "Password must contain a punctuation character.")
	}
	return raw, nil
}
