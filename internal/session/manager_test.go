package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/user-identity-service/internal/apperr"
	"github.com/iliyamo/user-identity-service/internal/auth"
	"github.com/iliyamo/user-identity-service/internal/model"
	"github.com/iliyamo/user-identity-service/internal/oauth"
	"github.com/iliyamo/user-identity-service/internal/repository"
	"github.com/iliyamo/user-identity-service/internal/verification"
)

// ---- fakes ----

// fakeUsers implements the manager's UserStore and the verification
// workflow's UserStore over an in-memory map.
type fakeUsers struct {
	byEmail map[string]*model.User
	nextID  uint64
	err     error // when set, every method fails with it
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u model.User) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return 0, repository.ErrEmailExists
	}
	f.nextID++
	u.ID = f.nextID
	f.byEmail[u.Email] = &u
	return u.ID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	if u, ok := f.byEmail[email]; ok {
		return *u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) MarkVerified(_ context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

// fakeTokens implements RefreshTokenStore keyed by token value.
type fakeTokens struct {
	rows map[string]model.RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{rows: map[string]model.RefreshToken{}}
}

func (f *fakeTokens) Store(_ context.Context, t model.RefreshToken) error {
	f.rows[t.Token] = t
	return nil
}

func (f *fakeTokens) DeleteByToken(_ context.Context, token string) error {
	if _, ok := f.rows[token]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, token)
	return nil
}

// fakeCodeStore and fakeSender back a real verification workflow so
// the register -> verify -> login lifecycle runs for real.
type fakeCodeStore struct {
	codes map[string][]string
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{codes: map[string][]string{}}
}

func (f *fakeCodeStore) Store(_ context.Context, email, code string) error {
	f.codes[email] = append(f.codes[email], code)
	return nil
}

func (f *fakeCodeStore) Find(_ context.Context, email, code string) (model.VerificationCode, error) {
	for _, c := range f.codes[email] {
		if c == code {
			return model.VerificationCode{Email: email, Code: code}, nil
		}
	}
	return model.VerificationCode{}, repository.ErrNotFound
}

func (f *fakeCodeStore) DeleteAll(_ context.Context, email string) error {
	delete(f.codes, email)
	return nil
}

type fakeSender struct{ sent int }

func (f *fakeSender) SendVerificationCode(context.Context, string, string) error {
	f.sent++
	return nil
}

type fakeVerifier struct {
	claims oauth.Claims
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(context.Context, string) (oauth.Claims, error) {
	f.calls++
	return f.claims, f.err
}

type env struct {
	mgr      *Manager
	users    *fakeUsers
	tokens   *fakeTokens
	codes    *fakeCodeStore
	sender   *fakeSender
	verifier *fakeVerifier
	issuer   *auth.Issuer
}

func newEnv() *env {
	users := newFakeUsers()
	tokens := newFakeTokens()
	codes := newFakeCodeStore()
	sender := &fakeSender{}
	verifier := &fakeVerifier{}
	issuer := auth.NewIssuer("test-secret", 5, 1440)
	workflow := verification.NewWorkflow(users, codes, sender)
	return &env{
		mgr:      NewManager(users, tokens, workflow, verifier, issuer, bcrypt.MinCost),
		users:    users,
		tokens:   tokens,
		codes:    codes,
		sender:   sender,
		verifier: verifier,
		issuer:   issuer,
	}
}

var ctx = context.Background()

// ---- register ----

func TestRegisterCreatesUnverifiedUserAndIssuesCode(t *testing.T) {
	e := newEnv()

	user, err := e.mgr.Register(ctx, "Ada", "a@example.com", "Secret1!")
	require.NoError(t, err)
	require.Equal(t, uint64(1), user.ID)
	require.Equal(t, "Ada", user.Name)
	require.Equal(t, "a@example.com", user.Email)
	require.False(t, user.IsVerified)
	require.Equal(t, model.LoginManual, user.LoginType)

	stored := e.users.byEmail["a@example.com"]
	require.NotNil(t, stored)
	// never stored as plaintext
	require.NotEqual(t, "Secret1!", stored.PasswordHash)
	require.NotEmpty(t, stored.PasswordHash)

	require.Len(t, e.codes.codes["a@example.com"], 1)
	require.Equal(t, 1, e.sender.sent)
}

func TestRegisterDuplicateEmailIsConflict(t *testing.T) {
	e := newEnv()
	_, err := e.mgr.Register(ctx, "Ada", "a@example.com", "Secret1!")
	require.NoError(t, err)

	_, err = e.mgr.Register(ctx, "Eve", "a@example.com", "Other2?")
	require.Error(t, err)
	require.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestRegisterValidatesInputs(t *testing.T) {
	e := newEnv()
	for name, args := range map[string][3]string{
		"missing name":  {"", "a@example.com", "Secret1!"},
		"bad email":     {"Ada", "not-an-email", "Secret1!"},
		"weak password": {"Ada", "a@example.com", "secret"},
	} {
		_, err := e.mgr.Register(ctx, args[0], args[1], args[2])
		require.Error(t, err, name)
		require.Equal(t, apperr.InvalidInput, apperr.KindOf(err), name)
	}
	// nothing persisted, nothing mailed
	require.Empty(t, e.users.byEmail)
	require.Equal(t, 0, e.sender.sent)
}

// ---- manual login ----

func TestManualLoginBeforeVerificationIsForbidden(t *testing.T) {
	e := newEnv()
	_, err := e.mgr.Register(ctx, "Ada", "a@example.com", "Secret1!")
	require.NoError(t, err)

	// correct credentials, unverified account: Forbidden, not InvalidCredential
	_, err = e.mgr.ManualLogin(ctx, "a@example.com", "Secret1!")
	require.Error(t, err)
	require.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	// and a fresh code was re-issued alongside the registration one
	require.Len(t, e.codes.codes["a@example.com"], 2)
	require.Equal(t, 2, e.sender.sent)
}

func TestManualLoginUnknownEmail(t *testing.T) {
	e := newEnv()
	_, err := e.mgr.ManualLogin(ctx, "ghost@example.com", "Secret1!")
	require.Error(t, err)
	require.Equal(t, apperr.InvalidCredential, apperr.KindOf(err))
	require.Equal(t, "User does not exist.", apperr.Message(err))
}

func TestManualLoginWrongPassword(t *testing.T) {
	e := newEnv()
	_, err := e.mgr.Register(ctx, "Ada", "a@example.com", "Secret1!")
	require.NoError(t, err)

	_, err = e.mgr.ManualLogin(ctx, "a@example.com", "Wrong9?!")
	require.Error(t, err)
	require.Equal(t, apperr.InvalidCredential, apperr.KindOf(err))
	require.Equal(t, "Invalid password.", apperr.Message(err))
}

// ---- full lifecycle ----

func TestRegisterVerifyLoginLifecycle(t *testing.T) {
	e := newEnv()

	_, err := e.mgr.Register(ctx, "Ada", "a@example.com", "Secret1!")
	require.NoError(t, err)

	_, err = e.mgr.ManualLogin(ctx, "a@example.com", "Secret1!")
	require.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	// redeem the most recently issued code
	issued := e.codes.codes["a@example.com"]
	code := issued[len(issued)-1]
	require.NoError(t, e.mgr.VerifyAccount(ctx, "a@example.com", code))
	require.True(t, e.users.byEmail["a@example.com"].IsVerified)

	s, err := e.mgr.ManualLogin(ctx, "a@example.com", "Secret1!")
	require.NoError(t, err)
	require.Equal(t, "a@example.com", s.User.Email)
	require.NotEmpty(t, s.Tokens.AccessToken)
	require.NotEmpty(t, s.Tokens.RefreshToken)

	// the access token carries the user's id
	uid, err := e.issuer.ValidateToken(s.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, s.User.ID, uid)

	// refresh record persisted, keyed by the token value
	rec, okFound := e.tokens.rows[s.Tokens.RefreshToken]
	require.True(t, okFound)
	require.Equal(t, s.User.ID, rec.UserID)
	require.Equal(t, "a@example.com", rec.Email)
	require.NotEmpty(t, rec.ID)
}

func TestVerifyAccountWrongCode(t *testing.T) {
	e := newEnv()
	_, err := e.mgr.Register(ctx, "Ada", "a@example.com", "Secret1!")
	require.NoError(t, err)

	err = e.mgr.VerifyAccount(ctx, "a@example.com", "XXXX")
	require.Error(t, err)
	require.Equal(t, apperr.InvalidCode, apperr.KindOf(err))
	require.False(t, e.users.byEmail["a@example.com"].IsVerified)
}

// ---- oauth ----

func TestOAuthLoginProvisionsVerifiedUser(t *testing.T) {
	e := newEnv()
	e.verifier.claims = oauth.Claims{Subject: "g-123", Email: "ada@example.com", Name: "Ada"}

	s, err := e.mgr.OAuthLogin(ctx, "id-token", "")
	require.NoError(t, err)
	require.Equal(t, 1, e.verifier.calls)
	require.Equal(t, "ada@example.com", s.User.Email)
	require.Equal(t, "Ada", s.User.Name)
	require.True(t, s.User.IsVerified)
	require.Equal(t, model.LoginGoogle, s.User.LoginType)

	// no password field on this path
	require.Empty(t, e.users.byEmail["ada@example.com"].PasswordHash)
	// session persisted
	require.Contains(t, e.tokens.rows, s.Tokens.RefreshToken)
}

func TestOAuthLoginReusesExistingUser(t *testing.T) {
	e := newEnv()
	e.verifier.claims = oauth.Claims{Subject: "g-123", Email: "ada@example.com", Name: "Ada"}

	first, err := e.mgr.OAuthLogin(ctx, "id-token", "")
	require.NoError(t, err)
	second, err := e.mgr.OAuthLogin(ctx, "id-token", "")
	require.NoError(t, err)
	require.Equal(t, first.User.ID, second.User.ID)
	require.Len(t, e.users.byEmail, 1)
}

func TestOAuthLoginRejectedAssertion(t *testing.T) {
	e := newEnv()
	e.verifier.err = apperr.Msg(apperr.InvalidInput, "Invalid ID token.")

	_, err := e.mgr.OAuthLogin(ctx, "bad-token", "")
	require.Error(t, err)
	require.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
	require.Empty(t, e.users.byEmail)
}

func TestManualLoginOnOAuthAccount(t *testing.T) {
	e := newEnv()
	e.verifier.claims = oauth.Claims{Subject: "g-123", Email: "ada@example.com", Name: "Ada"}
	_, err := e.mgr.OAuthLogin(ctx, "id-token", "")
	require.NoError(t, err)

	// no password exists; manual login cannot succeed
	_, err = e.mgr.ManualLogin(ctx, "ada@example.com", "Secret1!")
	require.Error(t, err)
	require.Equal(t, apperr.InvalidCredential, apperr.KindOf(err))
}

// ---- refresh / logout ----

func verifiedSession(t *testing.T, e *env) Session {
	t.Helper()
	_, err := e.mgr.Register(ctx, "Ada", "a@example.com", "Secret1!")
	require.NoError(t, err)
	issued := e.codes.codes["a@example.com"]
	require.NoError(t, e.mgr.VerifyAccount(ctx, "a@example.com", issued[len(issued)-1]))
	s, err := e.mgr.ManualLogin(ctx, "a@example.com", "Secret1!")
	require.NoError(t, err)
	return s
}

func TestRefreshSessionRotatesTokens(t *testing.T) {
	e := newEnv()
	s := verifiedSession(t, e)

	next, err := e.mgr.RefreshSession(ctx, s.Tokens.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, s.User.ID, next.User.ID)

	// new refresh token carries the same user id
	uid, err := e.issuer.ValidateToken(next.Tokens.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, s.User.ID, uid)

	// delete-then-insert: the old row is gone, the new one is present
	require.NotContains(t, e.tokens.rows, s.Tokens.RefreshToken)
	require.Contains(t, e.tokens.rows, next.Tokens.RefreshToken)
	require.Len(t, e.tokens.rows, 1)

	// the consumed token cannot continue the session again
	_, err = e.mgr.RefreshSession(ctx, s.Tokens.RefreshToken)
	require.Error(t, err)
	require.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestRefreshSessionRejectsForgedToken(t *testing.T) {
	e := newEnv()
	_, err := e.mgr.RefreshSession(ctx, "not-a-token")
	require.Error(t, err)
	require.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestLogoutDeletesRefreshRecord(t *testing.T) {
	e := newEnv()
	s := verifiedSession(t, e)

	require.NoError(t, e.mgr.Logout(ctx, s.Tokens.RefreshToken))
	require.Empty(t, e.tokens.rows)

	// reusing the token fails on the missing stored record, even though
	// its signature and expiry are still nominally valid
	uid, err := e.issuer.ValidateToken(s.Tokens.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, s.User.ID, uid)

	_, err = e.mgr.RefreshSession(ctx, s.Tokens.RefreshToken)
	require.Error(t, err)
	require.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	// a second logout with the same token is Unauthorized too
	err = e.mgr.Logout(ctx, s.Tokens.RefreshToken)
	require.Error(t, err)
	require.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestStoreFailureIsUnavailable(t *testing.T) {
	e := newEnv()
	e.users.err = errors.New("connection refused")

	_, err := e.mgr.ManualLogin(ctx, "a@example.com", "Secret1!")
	require.Error(t, err)
	require.Equal(t, apperr.Unavailable, apperr.KindOf(err))
}
