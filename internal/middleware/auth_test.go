package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/avklenov/martdeck/internal/models"
)

var testSecret = []byte("test-jwt-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func accessClaims(userID uint, role models.Role, su bool) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"su":   su,
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
	}
}

func newContext(token string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestRequireAuthSetsIdentity(t *testing.T) {
	token := signToken(t, testSecret, accessClaims(7, models.RoleVendor, false))

	var got Identity
	handler := RequireAuth(testSecret)(func(c echo.Context) error {
		ident, ok := IdentityFrom(c)
		require.True(t, ok)
		got = ident
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(newContext(token)))
	require.Equal(t, uint(7), got.UserID)
	require.Equal(t, models.RoleVendor, got.Role)
	require.False(t, got.Superuser)
}

func TestRequireAuthRejectsBadTokens(t *testing.T) {
	handler := RequireAuth(testSecret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	cases := map[string]string{
		"missing":      "",
		"garbage":      "not-a-jwt",
		"wrong secret": signToken(t, []byte("other-secret"), accessClaims(7, models.RoleCustomer, false)),
		"expired": signToken(t, testSecret, jwt.MapClaims{
			"sub": 7, "role": "customer", "exp": time.Now().Add(-time.Minute).Unix(),
		}),
		"unknown role": signToken(t, testSecret, jwt.MapClaims{
			"sub": 7, "role": "superadmin", "exp": time.Now().Add(time.Minute).Unix(),
		}),
	}

	for name, token := range cases {
		err := handler(newContext(token))
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he, name)
		require.Equal(t, http.StatusUnauthorized, he.Code, name)
	}
}

func TestRequireAuthReadsCookie(t *testing.T) {
	token := signToken(t, testSecret, accessClaims(3, models.RoleCustomer, false))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	c := echo.New().NewContext(req, httptest.NewRecorder())

	handler := RequireAuth(testSecret)(func(c echo.Context) error {
		ident, ok := IdentityFrom(c)
		require.True(t, ok)
		require.Equal(t, uint(3), ident.UserID)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
}

func TestRequireAdmin(t *testing.T) {
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	customer := signToken(t, testSecret, accessClaims(1, models.RoleCustomer, false))
	err := RequireAuth(testSecret)(RequireAdmin()(next))(newContext(customer))
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusForbidden, he.Code)

	admin := signToken(t, testSecret, accessClaims(2, models.RoleAdmin, false))
	require.NoError(t, RequireAuth(testSecret)(RequireAdmin()(next))(newContext(admin)))

	// the superuser flag grants admin capability regardless of role
	super := signToken(t, testSecret, accessClaims(3, models.RoleCustomer, true))
	require.NoError(t, RequireAuth(testSecret)(RequireAdmin()(next))(newContext(super)))
}

func TestRequireVendorAllowsVendorsAndAdmins(t *testing.T) {
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	vendor := signToken(t, testSecret, accessClaims(1, models.RoleVendor, false))
	require.NoError(t, RequireAuth(testSecret)(RequireVendor()(next))(newContext(vendor)))

	admin := signToken(t, testSecret, accessClaims(2, models.RoleAdmin, false))
	require.NoError(t, RequireAuth(testSecret)(RequireVendor()(next))(newContext(admin)))

	customer := signToken(t, testSecret, accessClaims(3, models.RoleCustomer, false))
	err := RequireAuth(testSecret)(RequireVendor()(next))(newContext(customer))
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusForbidden, he.Code)
}
