package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing

	"github.com/iliyamo/user-identity-service/internal/auth"
	"github.com/iliyamo/user-identity-service/internal/handler"
	"github.com/iliyamo/user-identity-service/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check
// for load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints and their
// middleware.  The anonymous session operations live under /v1/auth
// behind the rate limiter; protected endpoints live under /v1 behind
// the JWT guard.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, issuer *auth.Issuer, limiter echo.MiddlewareFunc) {
	// Anonymous operations: these endpoints create or exchange tokens
	// and are the ones worth throttling per caller.
	g := e.Group("/v1/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.ManualLogin)
	g.POST("/login/google", a.OAuthLogin)
	g.POST("/account/verify", a.VerifyAccount)
	// Refresh reads the bearer refresh token from the Authorization
	// header; logout takes the refresh token in the body.  Neither
	// requires a live access token.
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token.
	authed := e.Group("/v1")
	authed.Use(middleware.JWTAuth(issuer))
	authed.GET("/me", a.Me)
}
