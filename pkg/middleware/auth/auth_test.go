package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cleamaster322/library/pkg/tokens"
)

func newIssuer() *tokens.Issuer {
	return tokens.NewIssuer([]byte("access-secret"), []byte("refresh-secret"), time.Minute, time.Hour)
}

func mustAccess(t *testing.T, iss *tokens.Issuer, id string, role tokens.Role) string {
	t.Helper()
	tok, _, err := iss.CreateAccessToken(id, role)
	require.NoError(t, err)
	return tok
}

func newServer(iss *tokens.Issuer) *echo.Echo {
	e := echo.New()
	e.Use(Authenticate(iss))
	whoami := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user": UserID(c), "role": Role(c)})
	}
	e.GET("/public", whoami)
	e.GET("/private", whoami, RequireAuth)
	e.GET("/admin", whoami, RequireAdmin)
	return e
}

func do(e *echo.Echo, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPermissionGate(t *testing.T) {
	iss := newIssuer()
	e := newServer(iss)

	user := mustAccess(t, iss, "1", tokens.RoleUser)
	admin := mustAccess(t, iss, "2", tokens.RoleAdmin)

	expiredIss := newIssuer()
	expiredIss.Now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired := mustAccess(t, expiredIss, "1", tokens.RoleUser)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"public anonymous", "/public", "", http.StatusOK},
		{"public garbage token", "/public", "garbage", http.StatusOK},
		{"public expired token", "/public", expired, http.StatusOK},
		{"private anonymous", "/private", "", http.StatusUnauthorized},
		{"private garbage", "/private", "garbage", http.StatusUnauthorized},
		{"private expired", "/private", expired, http.StatusUnauthorized},
		{"private user", "/private", user, http.StatusOK},
		{"private admin", "/private", admin, http.StatusOK},
		{"admin anonymous", "/admin", "", http.StatusUnauthorized},
		{"admin expired", "/admin", expired, http.StatusUnauthorized},
		{"admin as user", "/admin", user, http.StatusForbidden},
		{"admin as admin", "/admin", admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, tt.path, tt.token)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestAuthenticateSetsIdentity(t *testing.T) {
	iss := newIssuer()
	e := newServer(iss)

	rec := do(e, "/public", mustAccess(t, iss, "7", tokens.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"7","role":"admin"}`, rec.Body.String())

	rec = do(e, "/public", "")
	assert.JSONEq(t, `{"user":"","role":""}`, rec.Body.String())
}

func TestAuthenticateQueryToken(t *testing.T) {
	iss := newIssuer()
	e := newServer(iss)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private?token="+mustAccess(t, iss, "3", tokens.RoleUser), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"3","role":"user"}`, rec.Body.String())
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	iss := newIssuer()
	e := newServer(iss)

	refresh, _, err := iss.CreateRefreshToken("1")
	require.NoError(t, err)

	rec := do(e, "/private", refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnauthenticatedMessages(t *testing.T) {
	iss := newIssuer()
	e := newServer(iss)

	rec := do(e, "/private", "")
	assert.Contains(t, rec.Body.String(), "credentials were not provided")

	rec = do(e, "/private", "garbage")
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}
