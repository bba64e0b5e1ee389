// Package session implements the authentication and session lifecycle
// manager.  Per principal the states are Anonymous ->
// Registered(unverified) -> Verified -> Authenticated(session); the
// manager composes the credential validator, the identity store, the
// verification workflow and the token issuer into the register, login,
// verify, refresh and logout operations.  Collaborator failures never
// escape raw: everything is translated into the apperr taxonomy before
// it reaches the transport layer.
package session

import (
	"context"
	"errors"
	"log"

	"github.com/iliyamo/user-identity-service/internal/apperr"
	"github.com/iliyamo/user-identity-service/internal/auth"
	"github.com/iliyamo/user-identity-service/internal/model"
	"github.com/iliyamo/user-identity-service/internal/oauth"
	"github.com/iliyamo/user-identity-service/internal/repository"
	"github.com/iliyamo/user-identity-service/internal/validate"
)

// UserStore is the slice of the identity store the manager depends on.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RefreshTokenStore persists session-continuation records.
type RefreshTokenStore interface {
	Store(ctx context.Context, t model.RefreshToken) error
	DeleteByToken(ctx context.Context, token string) error
}

// CodeWorkflow is the verification workflow surface the manager uses.
type CodeWorkflow interface {
	IssueCode(ctx context.Context, email string) (string, error)
	Redeem(ctx context.Context, email, code string) error
}

// PublicUser is the caller-visible view of a user.  The password hash
// never appears here.
type PublicUser struct {
	ID         uint64          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	IsVerified bool            `json:"is_verified"`
	LoginType  model.LoginType `json:"login_type"`
}

func publicView(u model.User) PublicUser {
	return PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		LoginType:  u.LoginType,
	}
}

// Session is the result of a successful authentication: the public
// user view plus a fresh token pair.
type Session struct {
	User   PublicUser
	Tokens auth.TokenPair
}

// Manager orchestrates the authentication and session lifecycle.
type Manager struct {
	Users      UserStore
	Tokens     RefreshTokenStore
	Codes      CodeWorkflow
	Verifier   oauth.AssertionVerifier
	Issuer     *auth.Issuer
	BcryptCost int
}

func NewManager(users UserStore, tokens RefreshTokenStore, codes CodeWorkflow,
	verifier oauth.AssertionVerifier, issuer *auth.Issuer, bcryptCost int) *Manager {
	return &Manager{
		Users:      users,
		Tokens:     tokens,
		Codes:      codes,
		Verifier:   verifier,
		Issuer:     issuer,
		BcryptCost: bcryptCost,
	}
}

// Register validates the form, creates an unverified MANUAL user and
// issues a verification code.  Duplicate email surfaces as Conflict
// straight from the store's unique key; there is no pre-check, so two
// racing registrations cannot both win.  A failed code issue is logged
// and not fatal: the account exists and a login attempt re-issues.
func (m *Manager) Register(ctx context.Context, name, rawEmail, rawPassword string) (PublicUser, error) {
	if name == "" {
		return PublicUser{}, apperr.Msg(apperr.InvalidInput, "Name is required.")
	}
	email, err := validate.Email(rawEmail)
	if err != nil {
		return PublicUser{}, err
	}
	password, err := validate.Password(rawPassword)
	if err != nil {
		return PublicUser{}, err
	}
	hash, err := auth.HashPassword(password, m.BcryptCost)
	if err != nil {
		return PublicUser{}, err
	}

	u := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   false,
		LoginType:    model.LoginManual,
	}
	id, err := m.Users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return PublicUser{}, apperr.New(apperr.Conflict)
		}
		return PublicUser{}, apperr.Wrap(apperr.Unavailable, err)
	}
	u.ID = id

	if _, err := m.Codes.IssueCode(ctx, email); err != nil {
		log.Printf("session: issue verification code for %s failed: %v", email, err)
	}
	return publicView(u), nil
}

// ManualLogin authenticates an email/password pair.  The two failure
// messages stay distinct (unknown email vs wrong password).  An
// unverified account gets a fresh code re-issued and the login is
// rejected with Forbidden until the code is redeemed.
func (m *Manager) ManualLogin(ctx context.Context, rawEmail, password string) (Session, error) {
	email, err := validate.Email(rawEmail)
	if err != nil {
		return Session{}, err
	}
	if password == "" {
		return Session{}, apperr.Msg(apperr.InvalidInput, "Password is required.")
	}

	u, err := m.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, apperr.Msg(apperr.InvalidCredential, "User does not exist.")
		}
		return Session{}, apperr.Wrap(apperr.Unavailable, err)
	}
	// OAuth-provisioned accounts carry no password and cannot log in manually.
	if u.PasswordHash == "" {
		return Session{}, apperr.Msg(apperr.InvalidCredential, "Invalid password.")
	}
	ok, err := auth.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, apperr.Msg(apperr.InvalidCredential, "Invalid password.")
	}
	if !u.IsVerified {
		if _, err := m.Codes.IssueCode(ctx, email); err != nil {
			log.Printf("session: re-issue verification code for %s failed: %v", email, err)
		}
		return Session{}, apperr.Msg(apperr.Forbidden,
			"Account is not verified. A new verification code has been sent.")
	}
	return m.openSession(ctx, u)
}

// OAuthLogin authenticates a third-party identity assertion.  The
// assertion is always verified before any trust is extended; the
// verified claims, not the submitted form, decide which account the
// session belongs to.  First login provisions a verified GOOGLE user
// with no password.
func (m *Manager) OAuthLogin(ctx context.Context, idToken, name string) (Session, error) {
	claims, err := m.Verifier.Verify(ctx, idToken)
	if err != nil {
		return Session{}, err
	}
	email, err := validate.Email(claims.Email)
	if err != nil {
		return Session{}, err
	}
	if name == "" {
		name = claims.Name
	}

	u, err := m.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// existing account, any login type
	case errors.Is(err, repository.ErrNotFound):
		u = model.User{
			Name:       name,
			Email:      email,
			IsVerified: true, // ownership proven by the provider
			LoginType:  model.LoginGoogle,
		}
		id, createErr := m.Users.Create(ctx, u)
		if createErr != nil {
			if errors.Is(createErr, repository.ErrEmailExists) {
				// lost a provisioning race; the winner's record is authoritative
				u, err = m.Users.GetByEmail(ctx, email)
				if err != nil {
					return Session{}, apperr.Wrap(apperr.Unavailable, err)
				}
				break
			}
			return Session{}, apperr.Wrap(apperr.Unavailable, createErr)
		}
		u.ID = id
	default:
		return Session{}, apperr.Wrap(apperr.Unavailable, err)
	}
	return m.openSession(ctx, u)
}

// VerifyAccount redeems a verification code for the email.
func (m *Manager) VerifyAccount(ctx context.Context, rawEmail, code string) error {
	email, err := validate.Email(rawEmail)
	if err != nil {
		return err
	}
	if code == "" {
		return apperr.Msg(apperr.InvalidInput, "Verification code is required.")
	}
	return m.Codes.Redeem(ctx, email, code)
}

// RefreshSession exchanges a valid refresh token for a fresh
// access+refresh pair.  Rotation is delete-then-insert: the presented
// token's row is consumed before the replacement is stored, so a
// rotated-away or logged-out token cannot continue a session and stale
// rows do not accumulate.
func (m *Manager) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	userID, err := m.Issuer.ValidateToken(refreshToken)
	if err != nil {
		return Session{}, err
	}
	if err := m.Tokens.DeleteByToken(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// signature may still be nominally valid; the session was
			// terminated by deletion
			return Session{}, apperr.Msg(apperr.Unauthorized, "Invalid token.")
		}
		return Session{}, apperr.Wrap(apperr.Unavailable, err)
	}
	u, err := m.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, apperr.Msg(apperr.Unauthorized, "User does not exist.")
		}
		return Session{}, apperr.Wrap(apperr.Unavailable, err)
	}
	return m.openSession(ctx, u)
}

// Logout terminates a session by deleting its refresh-token record.
// The access token is not revoked; it simply runs out its short
// lifetime.
func (m *Manager) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperr.Msg(apperr.InvalidInput, "Refresh token is required.")
	}
	if err := m.Tokens.DeleteByToken(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Msg(apperr.Unauthorized, "Invalid token.")
		}
		return apperr.Wrap(apperr.Unavailable, err)
	}
	return nil
}

// openSession mints a token pair for the user and persists the refresh
// record keyed by the token's jti.
func (m *Manager) openSession(ctx context.Context, u model.User) (Session, error) {
	pair, jti, err := m.Issuer.IssuePair(u.ID)
	if err != nil {
		return Session{}, err
	}
	rec := model.RefreshToken{
		ID:     jti,
		UserID: u.ID,
		Email:  u.Email,
		Token:  pair.RefreshToken,
	}
	if err := m.Tokens.Store(ctx, rec); err != nil {
		return Session{}, apperr.Wrap(apperr.Unavailable, err)
	}
	return Session{User: publicView(u), Tokens: pair}, nil
}
