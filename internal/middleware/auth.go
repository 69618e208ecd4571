package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/avklenov/martdeck/internal/models"
)

const identityKey = "identity"

// Identity is the authenticated caller, passed explicitly to every
// workflow operation instead of being read from ambient state.
type Identity struct {
	UserID    uint
	Role      models.Role
	Superuser bool
}

func (id Identity) IsAdmin() bool {
	return id.Role == models.RoleAdmin || id.Superuser
}

func (id Identity) IsVendor() bool {
	return id.Role == models.RoleVendor
}

// RequireAuth parses the access token from the Authorization header or the
// accessToken cookie and stores the caller identity in the echo context.
func RequireAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}

			tok, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
				if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signature method: %v", tok.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !tok.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}

			sub, ok := claims["sub"].(float64)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
			roleStr, _ := claims["role"].(string)
			role, ok := models.ParseRole(roleStr)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
			su, _ := claims["su"].(bool)

			c.Set(identityKey, Identity{UserID: uint(sub), Role: role, Superuser: su})
			return next(c)
		}
	}
}

// RequireAdmin allows the admin role or a superuser. Mount after RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			if !ident.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

// RequireVendor allows vendors and admins. Mount after RequireAuth.
func RequireVendor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			if !ident.IsVendor() && !ident.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "vendor access required")
			}
			return next(c)
		}
	}
}

func IdentityFrom(c echo.Context) (Identity, bool) {
	ident, ok := c.Get(identityKey).(Identity)
	return ident, ok
}

func tokenFromRequest(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := c.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}
