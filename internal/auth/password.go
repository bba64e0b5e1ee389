package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/user-identity-service/internal/apperr"
)

// DefaultBcryptCost is used when no cost is configured.
const DefaultBcryptCost = 12

// HashPassword returns a bcrypt hash of plain using the given cost.
// A cost outside bcrypt's valid range falls back to the default.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err)
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
// A mismatch returns false with no error; only a malformed stored hash
// is reported as an error.
func VerifyPassword(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err == nil {
		return true, nil
	}
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}
	return false, apperr.Wrap(apperr.Internal, err)
}
