package middleware

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Cleamaster322/library/pkg/tokens"
)

const (
	CtxUserID  = "user_id"
	CtxRole    = "role"
	CtxAuthErr = "auth_error"
	ctxClaims  = "user"
)

// Authenticate resolves the caller from "Authorization: Bearer <token>" or the
// "token" query parameter. It never rejects a request: a missing or bad token
// leaves the request anonymous and the failure is kept under CtxAuthErr.
func Authenticate(issuer *tokens.Issuer) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ctxClaims,
		TokenLookup: "header:Authorization:Bearer ,query:token",
		ParseTokenFunc: func(_ echo.Context, auth string) (interface{}, error) {
			return issuer.ParseAccess(auth)
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get(ctxClaims).(*tokens.AccessClaims)
			if !ok {
				return
			}
			c.Set(CtxUserID, claims.Subject)
			c.Set(CtxRole, claims.Role)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if tokenPresented(c) {
				c.Set(CtxAuthErr, err)
			}
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}

// RequireAuth rejects requests without a valid access token.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if UserID(c) == "" {
			return unauthenticated(c)
		}
		return next(c)
	}
}

// RequireAdmin rejects anonymous callers with 401 and non-admins with 403.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if UserID(c) == "" {
			return unauthenticated(c)
		}
		if !Role(c).IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "you do not have permission to perform this action")
		}
		return next(c)
	}
}

func UserID(c echo.Context) string {
	id, _ := c.Get(CtxUserID).(string)
	return id
}

func Role(c echo.Context) tokens.Role {
	role, _ := c.Get(CtxRole).(tokens.Role)
	return role
}

func AuthError(c echo.Context) error {
	err, _ := c.Get(CtxAuthErr).(error)
	return err
}

func unauthenticated(c echo.Context) error {
	if AuthError(c) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}
	return echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
}

func tokenPresented(c echo.Context) bool {
	return c.Request().Header.Get(echo.HeaderAuthorization) != "" || c.QueryParam("token") != ""
}
