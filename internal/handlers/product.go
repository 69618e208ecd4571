package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avklenov/martdeck/internal/logging"
	"github.com/avklenov/martdeck/internal/middleware"
	"github.com/avklenov/martdeck/internal/models"
	"github.com/avklenov/martdeck/internal/mykafka"
	"github.com/avklenov/martdeck/internal/service/search"
	"github.com/avklenov/martdeck/internal/transport"
	"github.com/avklenov/martdeck/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	ESIndex  string
}

func (h *ProductHandler) indexProduct(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	if err := search.IndexProduct(c.Request().Context(), h.ES, h.ESIndex, p); err != nil {
		logging.FromContext(c.Request().Context()).Warn("es_index_error", "product_id", p.ID, "error", err)
	}
}

func (h *ProductHandler) removeFromIndex(c echo.Context, productID uint) {
	if h.ES == nil {
		return
	}
	if err := search.DeleteProduct(c.Request().Context(), h.ES, h.ESIndex, productID); err != nil {
		logging.FromContext(c.Request().Context()).Warn("es_delete_error", "product_id", productID, "error", err)
	}
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Product{}).Where("is_available = ?", true)
	if v := c.QueryParam("category"); v != "" {
		q = q.Where("category_id = ?", parseIntDefault(v, 0))
	}
	if v := c.QueryParam("vendor"); v != "" {
		q = q.Where("vendor_id = ?", parseIntDefault(v, 0))
	}

	orderBy := "created_at DESC"
	switch c.QueryParam("ordering") {
	case "price":
		orderBy = "price ASC"
	case "-price":
		orderBy = "price DESC"
	case "views":
		orderBy = "views DESC"
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var items []models.Product
	if err := q.Preload("Category").Order(orderBy).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	out := make([]transport.ProductResponse, len(items))
	for i := range items {
		out[i] = transport.NewProductResponse(&items[i])
		rating, count, err := averageRating(h.DB, items[i].ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		out[i].AverageRating = rating
		out[i].ReviewCount = count
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": out,
		"meta": transport.NewListMeta(page, limit, offset, total),
	})
}

// GetProduct returns one product by slug and bumps its view counter.
func (h *ProductHandler) GetProduct(c echo.Context) error {
	var product models.Product
	if err := h.DB.Preload("Category").Preload("Images").
		Where("slug = ?", c.Param("slug")).
		First(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	if err := h.DB.Model(&product).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	resp := transport.NewProductResponse(&product)
	rating, count, err := averageRating(h.DB, product.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	resp.AverageRating = rating
	resp.ReviewCount = count

	var reviews []models.Review
	if err := h.DB.Preload("User").Where("product_id = ?", product.ID).
		Order("created_at DESC").Find(&reviews).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	resp.Reviews = reviews

	return c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	price, err := models.MoneyFromString(req.Price)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	var discount *models.Money
	if req.DiscountPrice != nil {
		d, err := models.MoneyFromString(*req.DiscountPrice)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid discount price")
		}
		discount = &d
	}

	var category models.Category
	if err := h.DB.First(&category, req.CategoryID).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "category not found")
	}

	productSlug := req.Slug
	if productSlug == "" {
		productSlug = slug.Make(req.Name)
	}

	product := models.Product{
		Name:          req.Name,
		Slug:          productSlug,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		Price:         price,
		DiscountPrice: discount,
		Stock:         req.Stock,
		IsAvailable:   true,
		VendorID:      ident.UserID,
	}
	if req.IsAvailable != nil {
		product.IsAvailable = *req.IsAvailable
	}

	if err := h.DB.Create(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusBadRequest, "slug already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.indexProduct(c, &product)
	publish(c, h.Producer, "product_events", strconv.FormatUint(uint64(ident.UserID), 10), map[string]interface{}{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
		"userID":    ident.UserID,
	})

	return c.JSON(http.StatusCreated, transport.NewProductResponse(&product))
}

func (h *ProductHandler) ownedProduct(c echo.Context, ident middleware.Identity) (*models.Product, error) {
	var product models.Product
	if err := h.DB.Where("slug = ?", c.Param("slug")).First(&product).Error; err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if product.VendorID != ident.UserID && !ident.IsAdmin() {
		return nil, echo.NewHTTPError(http.StatusForbidden, "you do not have permission to manage this product")
	}
	return &product, nil
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	product, err := h.ownedProduct(c, ident)
	if err != nil {
		return err
	}

	var req transport.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.CategoryID != nil {
		var category models.Category
		if err := h.DB.First(&category, *req.CategoryID).Error; err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "category not found")
		}
		product.CategoryID = *req.CategoryID
	}
	if req.Price != nil {
		price, err := models.MoneyFromString(*req.Price)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid price")
		}
		product.Price = price
	}
	if req.DiscountPrice != nil {
		if *req.DiscountPrice == "" {
			product.DiscountPrice = nil
		} else {
			d, err := models.MoneyFromString(*req.DiscountPrice)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid discount price")
			}
			product.DiscountPrice = &d
		}
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.IsAvailable != nil {
		product.IsAvailable = *req.IsAvailable
	}

	if err := h.DB.Save(product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.indexProduct(c, product)
	publish(c, h.Producer, "product_events", strconv.FormatUint(uint64(ident.UserID), 10), map[string]interface{}{
		"type":      "product_updated",
		"productID": product.ID,
		"name":      product.Name,
		"userID":    ident.UserID,
	})

	return c.JSON(http.StatusOK, transport.NewProductResponse(product))
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	product, err := h.ownedProduct(c, ident)
	if err != nil {
		return err
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(product).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.removeFromIndex(c, product.ID)
	publish(c, h.Producer, "product_events", strconv.FormatUint(uint64(ident.UserID), 10), map[string]interface{}{
		"type":      "product_deleted",
		"productID": product.ID,
		"userID":    ident.UserID,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) MyProducts(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	var items []models.Product
	if err := h.DB.Where("vendor_id = ?", ident.UserID).
		Order("created_at DESC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	out := make([]transport.ProductResponse, len(items))
	for i := range items {
		out[i] = transport.NewProductResponse(&items[i])
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) AddImage(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	product, err := h.ownedProduct(c, ident)
	if err != nil {
		return err
	}

	var req transport.ProductImageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	image := models.ProductImage{ProductID: product.ID, URL: req.URL}
	if err := h.DB.Create(&image).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, image)
}

func (h *ProductHandler) DeleteImage(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var image models.ProductImage
	if err := h.DB.First(&image, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}

	var product models.Product
	if err := h.DB.First(&product, image.ProductID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if product.VendorID != ident.UserID && !ident.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "you do not have permission to manage this product")
	}

	if err := h.DB.Delete(&image).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
