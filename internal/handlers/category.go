package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avklenov/martdeck/internal/models"
	"github.com/avklenov/martdeck/internal/transport"
)

type CategoryHandler struct {
	DB *gorm.DB
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	var categories []models.Category
	if err := h.DB.Where("is_active = ?", true).Order("name ASC").Find(&categories).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	out := make([]transport.CategoryResponse, len(categories))
	for i, cat := range categories {
		var count int64
		if err := h.DB.Model(&models.Product{}).
			Where("category_id = ? AND is_available = ?", cat.ID, true).
			Count(&count).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		out[i] = transport.CategoryResponse{Category: cat, ProductCount: count}
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CategoryHandler) GetCategory(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var cat models.Category
	if err := h.DB.First(&cat, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "category not found")
	}

	var count int64
	if err := h.DB.Model(&models.Product{}).
		Where("category_id = ? AND is_available = ?", cat.ID, true).
		Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, transport.CategoryResponse{Category: cat, ProductCount: count})
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cat := models.Category{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}

	if err := h.DB.Create(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusBadRequest, "category name already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) PatchCategory(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var cat models.Category
	if err := h.DB.First(&cat, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "category not found")
	}

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Name != "" {
		cat.Name = req.Name
	}
	if req.Description != "" {
		cat.Description = req.Description
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusBadRequest, "category name already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.DB.Delete(&models.Category{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
