package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avklenov/martdeck/internal/hash"
	"github.com/avklenov/martdeck/internal/logging"
	"github.com/avklenov/martdeck/internal/models"
	"github.com/avklenov/martdeck/internal/mykafka"
	"github.com/avklenov/martdeck/internal/service/token"
	"github.com/avklenov/martdeck/internal/transport"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Producer *mykafka.Producer
}

func (h *AuthHandler) setTokenCookies(c echo.Context, pair transport.TokenPair) {
	c.SetCookie(CreateCookie("accessToken", pair.AccessToken, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(CreateCookie("refreshToken", pair.RefreshToken, "/", time.Now().Add(token.RefreshTTL)))
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Password != req.Password2 {
		return echo.NewHTTPError(http.StatusBadRequest, "password fields didn't match")
	}

	role := models.RoleCustomer
	if req.Role != "" {
		parsed, ok := models.ParseRole(req.Role)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
		}
		role = parsed
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         role,
		Phone:        req.Phone,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		Pincode:      req.Pincode,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusBadRequest, "email already registered")
		}
		l.Error("register_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	pair, err := h.Tokens.IssuePair(&user)
	if err != nil {
		l.Error("register_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	h.setTokenCookies(c, pair)

	publish(c, h.Producer, "user_events", strconv.FormatUint(uint64(user.ID), 10), map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"role":   user.Role,
	})

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, transport.AuthResponse{User: &user, Tokens: pair})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "user_id", user.ID)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	pair, err := h.Tokens.IssuePair(&user)
	if err != nil {
		l.Error("login_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	h.setTokenCookies(c, pair)

	publish(c, h.Producer, "user_events", strconv.FormatUint(uint64(user.ID), 10), map[string]interface{}{
		"type":   "user_logged_in",
		"userID": user.ID,
	})

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.AuthResponse{User: &user, Tokens: pair})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := refreshTokenFromRequest(c)
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	pair, err := h.Tokens.RotateToken(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "cannot rotate token")
	}
	h.setTokenCookies(c, pair)

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	raw := refreshTokenFromRequest(c)
	if raw != "" {
		if err := h.Tokens.RevokeRefresh(raw); err != nil {
			logging.FromContext(c.Request().Context()).Error("logout_error", "error", err)
		}
	}

	c.SetCookie(CreateCookie("accessToken", "", "/", time.Unix(0, 0)))
	c.SetCookie(CreateCookie("refreshToken", "", "/", time.Unix(0, 0)))

	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func refreshTokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie("refreshToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&body); err == nil {
		return body.RefreshToken
	}
	return ""
}
