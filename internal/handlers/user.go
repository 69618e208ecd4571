package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avklenov/martdeck/internal/hash"
	"github.com/avklenov/martdeck/internal/middleware"
	"github.com/avklenov/martdeck/internal/models"
	"github.com/avklenov/martdeck/internal/transport"
	"github.com/avklenov/martdeck/internal/util"
)

type UserHandler struct {
	DB *gorm.DB
}

func (h *UserHandler) currentUser(c echo.Context) (*models.User, error) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	var user models.User
	if err := h.DB.First(&user, ident.UserID).Error; err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "user not found")
	}
	return &user, nil
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Address != "" {
		user.Address = req.Address
	}
	if req.City != "" {
		user.City = req.City
	}
	if req.State != "" {
		user.State = req.State
	}
	if req.Pincode != "" {
		user.Pincode = req.Pincode
	}

	if err := h.DB.Save(user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req transport.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.NewPassword != req.NewPassword2 {
		return echo.NewHTTPError(http.StatusBadRequest, "password fields didn't match")
	}
	if !hash.CheckPassword(user.PasswordHash, req.OldPassword) {
		return echo.NewHTTPError(http.StatusBadRequest, "old password is incorrect")
	}

	newHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if err := h.DB.Model(user).Update("password_hash", newHash).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password changed"})
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var users []models.User
	if err := h.DB.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	out := make([]transport.UserResponse, len(users))
	for i := range users {
		out[i] = transport.NewUserResponse(&users[i])
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": out,
		"meta": transport.NewListMeta(page, limit, offset, total),
	})
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(&user))
}
