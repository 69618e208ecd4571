package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avklenov/martdeck/internal/middleware"
	"github.com/avklenov/martdeck/internal/models"
	"github.com/avklenov/martdeck/internal/transport"
)

type ReviewHandler struct {
	DB *gorm.DB
}

func (h *ReviewHandler) ListReviews(c echo.Context) error {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, productID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	var reviews []models.Review
	if err := h.DB.Preload("User").Where("product_id = ?", productID).
		Order("created_at DESC").Find(&reviews).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	rating, count, err := averageRating(h.DB, productID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, transport.ReviewListResponse{
		Reviews:       reviews,
		AverageRating: rating,
		ReviewCount:   count,
	})
}

// CreateReview allows one review per user per product; the composite unique
// index backs up the duplicate check.
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	productID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, productID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	var req transport.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var existing models.Review
	err = h.DB.Where("product_id = ? AND user_id = ?", productID, ident.UserID).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "you have already reviewed this product")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	review := models.Review{
		ProductID: productID,
		UserID:    ident.UserID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusBadRequest, "you have already reviewed this product")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) PatchReview(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "review not found")
	}
	if review.UserID != ident.UserID {
		return echo.NewHTTPError(http.StatusForbidden, "you can only update your own reviews")
	}

	var req transport.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	review.Rating = req.Rating
	review.Comment = req.Comment
	if err := h.DB.Save(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "review not found")
	}
	if review.UserID != ident.UserID && !ident.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "you can only delete your own reviews")
	}

	if err := h.DB.Delete(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
