package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avklenov/martdeck/internal/models"
	"github.com/avklenov/martdeck/internal/mykafka"
	"github.com/avklenov/martdeck/internal/service/order"
)

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseUintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(v), nil
}

// serviceHTTPError maps workflow sentinel errors onto HTTP status codes,
// keeping the field-scoped message after the sentinel prefix.
func serviceHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, order.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, stripSentinel(err, order.ErrValidation))
	case errors.Is(err, order.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, order.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, stripSentinel(err, order.ErrConflict))
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func stripSentinel(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

// averageRating is the unweighted mean over a product's reviews rounded to
// one decimal; zero reviews yields 0.
func averageRating(db *gorm.DB, productID uint) (float64, int64, error) {
	var count int64
	if err := db.Model(&models.Review{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var avg float64
	if err := db.Model(&models.Review{}).
		Where("product_id = ?", productID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error; err != nil {
		return 0, 0, err
	}
	return math.Round(avg*10) / 10, count, nil
}

func publish(c echo.Context, p *mykafka.Producer, topic, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func CreateCookie(name, value, path string, expTime time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expTime,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
