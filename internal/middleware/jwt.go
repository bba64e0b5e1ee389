package middleware // middleware provides reusable HTTP middleware for the auth routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-identity-service/internal/auth"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the token's user id into the request context under
// "user_id".  Validation is delegated to the token issuer so signature
// and expiry follow one rule everywhere.  This middleware wraps
// protected routes only; the session endpoints themselves accept their
// tokens explicitly.
func JWTAuth(issuer *auth.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := auth.BearerToken(c.Request().Header.Get("Authorization"))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Missing bearer token."})
			}
			userID, err := issuer.ValidateToken(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token."})
			}
			c.Set("user_id", userID)
			return next(c)
		}
	}
}
