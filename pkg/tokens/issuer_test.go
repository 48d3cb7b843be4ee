package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *Issuer {
	return NewIssuer([]byte("test-jwt-secret"), []byte("test-refresh-secret"), 0, 0)
}

func TestIssuer_CreateAccessToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	token, exp, err := iss.CreateAccessToken("42", RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := iss.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
	assert.WithinDuration(t, time.Now().Add(DefaultAccessTTL), exp, 5*time.Second)
}

func TestIssuer_CreateRefreshToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	token, issued, err := iss.CreateRefreshToken("42")
	require.NoError(t, err)

	claims, err := iss.ParseRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, issued.ID, claims.ID)
	assert.WithinDuration(t, time.Now().Add(DefaultRefreshTTL), claims.ExpiresAt.Time, 5*time.Second)

	_, second, err := iss.CreateRefreshToken("42")
	require.NoError(t, err)
	assert.NotEqual(t, issued.ID, second.ID)
}

func TestIssuer_ExpiredTokens(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	iss.Now = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }

	access, _, err := iss.CreateAccessToken("1", RoleUser)
	require.NoError(t, err)
	refresh, _, err := iss.CreateRefreshToken("1")
	require.NoError(t, err)

	iss.Now = nil

	_, err = iss.ParseAccess(access)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))

	_, err = iss.ParseRefresh(refresh)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestIssuer_SecretsAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	access, _, err := iss.CreateAccessToken("1", RoleUser)
	require.NoError(t, err)
	refresh, _, err := iss.CreateRefreshToken("1")
	require.NoError(t, err)

	_, err = iss.ParseRefresh(access)
	assert.Error(t, err)
	_, err = iss.ParseAccess(refresh)
	assert.Error(t, err)
}

func TestAccessClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	secret := []byte("s")
	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "unknown role", token: sign(jwt.SigningMethodHS256, secret, AccessClaims{
			Role: "root", RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: exp},
		})},
		{name: "no subject", token: sign(jwt.SigningMethodHS256, secret, AccessClaims{
			Role: RoleUser, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
		})},
		{name: "no expiry", token: sign(jwt.SigningMethodHS256, secret, AccessClaims{
			Role: RoleUser, RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
		})},
		{name: "other method", token: sign(jwt.SigningMethodHS512, secret, AccessClaims{
			Role: RoleUser, RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: exp},
		})},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := AccessClaimsFromToken(tt.token, secret)
			require.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestRole(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("").Valid())
	assert.True(t, RoleAdmin.IsAdmin())
	assert.False(t, RoleUser.IsAdmin())
}
