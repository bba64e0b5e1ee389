package handler

import (
	"context" // context with cancellation for store calls
	"log"     // server-side logging of internal failures
	"net/http"
	"time" // timeouts for store calls

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-identity-service/internal/apperr"
	"github.com/iliyamo/user-identity-service/internal/auth"
	"github.com/iliyamo/user-identity-service/internal/session"
)

// requestTimeout bounds the store and mail work done for one request.
const requestTimeout = 5 * time.Second

// AuthHandler bundles dependencies for the auth endpoints.  All logic
// lives in the session manager; handlers bind forms, run the operation
// and shape the {message, data} envelope.
type AuthHandler struct {
	Sessions *session.Manager
}

func NewAuthHandler(m *session.Manager) *AuthHandler {
	return &AuthHandler{Sessions: m}
}

// ----- forms -----

type registerForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type manualLoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type oauthLoginForm struct {
	IDToken string `json:"id_token"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}
type verificationCodeForm struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
type logoutForm struct {
	RefreshToken string `json:"refresh_token"`
}

// ----- response shapes -----

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type sessionData struct {
	User    session.PublicUser `json:"user"`
	Access  tokenPart          `json:"access"`
	Refresh tokenPart          `json:"refresh"`
}

func sessionPayload(s session.Session) sessionData {
	return sessionData{
		User:    s.User,
		Access:  tokenPart{Token: s.Tokens.AccessToken, Expires: s.Tokens.AccessExpiresAt},
		Refresh: tokenPart{Token: s.Tokens.RefreshToken, Expires: s.Tokens.RefreshExpiresAt},
	}
}

// ok writes the success envelope.
func ok(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, echo.Map{"message": message, "data": data})
}

// fail translates a classified error into the error envelope.  The
// apperr mapping is the only place a status is chosen, so an
// unclassified error can never select anything but 500.  Internal
// causes are logged here and never shown to the caller.
func fail(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal || kind == apperr.Unavailable {
		log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(kind.HTTPStatus(), echo.Map{"message": apperr.Message(err)})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// Register creates an unverified account and mails a verification code.
func (h *AuthHandler) Register(c echo.Context) error {
	var form registerForm
	if err := c.Bind(&form); err != nil {
		return fail(c, apperr.Msg(apperr.InvalidInput, "Invalid request body."))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := h.Sessions.Register(ctx, form.Name, form.Email, form.Password)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, "User registered successfully! Please check your email for the verification code.", user)
}

// ManualLogin authenticates email/password credentials.
func (h *AuthHandler) ManualLogin(c echo.Context) error {
	var form manualLoginForm
	if err := c.Bind(&form); err != nil {
		return fail(c, apperr.Msg(apperr.InvalidInput, "Invalid request body."))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Sessions.ManualLogin(ctx, form.Email, form.Password)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "User logged in successfully!", sessionPayload(s))
}

// OAuthLogin authenticates a Google identity assertion.
func (h *AuthHandler) OAuthLogin(c echo.Context) error {
	var form oauthLoginForm
	if err := c.Bind(&form); err != nil {
		return fail(c, apperr.Msg(apperr.InvalidInput, "Invalid request body."))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Sessions.OAuthLogin(ctx, form.IDToken, form.Name)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "User logged in successfully!", sessionPayload(s))
}

// VerifyAccount redeems a verification code.
func (h *AuthHandler) VerifyAccount(c echo.Context) error {
	var form verificationCodeForm
	if err := c.Bind(&form); err != nil {
		return fail(c, apperr.Msg(apperr.InvalidInput, "Invalid request body."))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Sessions.VerifyAccount(ctx, form.Email, form.Code); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "Account verified successfully!", nil)
}

// Refresh exchanges a bearer refresh token for a new token pair.  The
// token travels in the Authorization header, not the body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, err := auth.BearerToken(c.Request().Header.Get("Authorization"))
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Sessions.RefreshSession(ctx, raw)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "Session refreshed successfully!", sessionPayload(s))
}

// Logout deletes the stored refresh-token record.  The access token is
// not revoked; it expires on its own.
func (h *AuthHandler) Logout(c echo.Context) error {
	var form logoutForm
	if err := c.Bind(&form); err != nil {
		return fail(c, apperr.Msg(apperr.InvalidInput, "Invalid request body."))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Sessions.Logout(ctx, form.RefreshToken); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "User logged out successfully!", nil)
}

// Me is a simple protected endpoint echoing the authenticated identity.
func (h *AuthHandler) Me(c echo.Context) error {
	return ok(c, http.StatusOK, "OK", echo.Map{"user_id": c.Get("user_id")})
}
