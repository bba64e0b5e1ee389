// Package auth provides the token issuer and the password hashing
// primitives.  Access and refresh tokens are independent HS512 JWTs
// carrying the same claim shape with different lifetimes; refresh
// tokens are additionally persisted by value so a session can be
// terminated by deleting the stored row.
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/user-identity-service/internal/apperr"
)

// TokenPair is the result of a successful login or refresh: one
// short-lived access token and one long-lived refresh token, each with
// its own expiry.
type TokenPair struct {
	AccessToken      string    // signed access JWT
	AccessExpiresAt  time.Time // UTC expiry of the access token
	RefreshToken     string    // signed refresh JWT
	RefreshExpiresAt time.Time // UTC expiry of the refresh token
}

// Issuer mints and validates the service's JWTs.  The secret and the
// TTLs are fixed at construction time; nothing here reads ambient
// state.  Now is injectable for tests and defaults to time.Now.
type Issuer struct {
	Secret        string // HMAC signing secret (HS512)
	AccessTTLMin  int    // access token time-to-live in minutes
	RefreshTTLMin int    // refresh token time-to-live in minutes
	Now           func() time.Time
}

// NewIssuer builds an Issuer with the given secret and TTLs.
func NewIssuer(secret string, accessTTLMin, refreshTTLMin int) *Issuer {
	return &Issuer{Secret: secret, AccessTTLMin: accessTTLMin, RefreshTTLMin: refreshTTLMin}
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// sign builds an HS512 JWT for a user with the given TTL.  The claims
// carry the user id, the issue instant, the expiry and a uuid jti that
// doubles as the stored refresh record id.
func (i *Issuer) sign(userID uint64, ttl time.Duration) (string, time.Time, string, error) {
	now := i.now().UTC()
	exp := now.Add(ttl)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"user_id":   userID,
		"issued_at": now.Unix(),
		"exp":       exp.Unix(),
		"jti":       jti,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := t.SignedString([]byte(i.Secret))
	if err != nil {
		return "", time.Time{}, "", apperr.Wrap(apperr.Internal, err)
	}
	return signed, exp, jti, nil
}

// IssueAccessToken mints a short-lived access token for the user.
func (i *Issuer) IssueAccessToken(userID uint64) (string, time.Time, error) {
	tok, exp, _, err := i.sign(userID, time.Duration(i.AccessTTLMin)*time.Minute)
	return tok, exp, err
}

// IssueRefreshToken mints a long-lived refresh token for the user and
// returns the jti the stored record is keyed by.
func (i *Issuer) IssueRefreshToken(userID uint64) (string, time.Time, string, error) {
	return i.sign(userID, time.Duration(i.RefreshTTLMin)*time.Minute)
}

// IssuePair mints a fresh access+refresh pair for the user.
func (i *Issuer) IssuePair(userID uint64) (TokenPair, string, error) {
	access, accessExp, err := i.IssueAccessToken(userID)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, refreshExp, jti, err := i.IssueRefreshToken(userID)
	if err != nil {
		return TokenPair{}, "", err
	}
	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, jti, nil
}

// ValidateToken checks the signature and expiry of a token and returns
// the user id it was issued for.  Expiry uses a strict comparison: a
// token is rejected only when exp < now, so a token expiring exactly
// "now" is still accepted.  The library's own claim validation is
// disabled so this rule stays in one place.
func (i *Issuer) ValidateToken(token string) (uint64, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Msg(apperr.Unauthorized, "Invalid token.")
		}
		return []byte(i.Secret), nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !tok.Valid {
		return 0, apperr.Msg(apperr.Unauthorized, "Invalid token.")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apperr.Msg(apperr.Unauthorized, "Invalid token.")
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return 0, apperr.Msg(apperr.Unauthorized, "Invalid token.")
	}
	if int64(exp) < i.now().Unix() {
		return 0, apperr.Msg(apperr.Unauthorized, "Expired token.")
	}
	uid, ok := claims["user_id"].(float64)
	if !ok || uid <= 0 {
		return 0, apperr.Msg(apperr.Unauthorized, "Invalid token.")
	}
	return uint64(uid), nil
}

// BearerToken extracts the raw token from an Authorization header
// value.  The header must be present and carry the "Bearer " prefix
// followed by exactly one token.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.Msg(apperr.InvalidInput, "No auth header.")
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", apperr.Msg(apperr.InvalidInput, "Invalid auth header format.")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", apperr.Msg(apperr.InvalidInput, "Invalid auth header format.")
	}
	return parts[1], nil
}
