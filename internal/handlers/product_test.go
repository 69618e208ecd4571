package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avklenov/martdeck/internal/middleware"
	"github.com/avklenov/martdeck/internal/models"
)

func TestCreateProductGeneratesSlug(t *testing.T) {
	env := newTestEnv(t)
	_, vendorToken := env.createUser("vendor@shop.test", models.RoleVendor)
	cat := env.seedCategory("laptops")

	rec, c := env.doAuthedJSON(http.MethodPost, "/products/create", vendorToken, map[string]interface{}{
		"name":           "Gaming Laptop Pro",
		"description":    "16 inch, 32GB RAM",
		"category_id":    cat.ID,
		"price":          "129999",
		"discount_price": "119999",
		"stock":          5,
	})
	require.NoError(t, env.authed(env.Products.CreateProduct, middleware.RequireVendor())(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		models.Product
		FinalPrice float64 `json:"final_price"`
		InStock    bool    `json:"in_stock"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "gaming-laptop-pro", resp.Slug)
	require.InDelta(t, 119999.0, resp.FinalPrice, 0.001)
	require.True(t, resp.InStock)

	var stored models.Product
	require.NoError(t, env.DB.Where("slug = ?", "gaming-laptop-pro").First(&stored).Error)
	require.Equal(t, 5, stored.Stock)
}

func TestCreateProductForbiddenForCustomer(t *testing.T) {
	env := newTestEnv(t)
	_, customerToken := env.createUser("customer@shop.test", models.RoleCustomer)
	cat := env.seedCategory("laptops")

	_, c := env.doAuthedJSON(http.MethodPost, "/products/create", customerToken, map[string]interface{}{
		"name":        "Gaming Laptop Pro",
		"description": "16 inch, 32GB RAM",
		"category_id": cat.ID,
		"price":       "129999",
	})
	err := env.authed(env.Products.CreateProduct, middleware.RequireVendor())(c)
	requireHTTPError(t, err, http.StatusForbidden)
}

func TestCreateProductDuplicateSlug(t *testing.T) {
	env := newTestEnv(t)
	vendor, vendorToken := env.createUser("vendor@shop.test", models.RoleVendor)
	cat := env.seedCategory("laptops")
	env.seedProduct("gaming-laptop", "100.00", 5, vendor.ID, cat.ID)

	_, c := env.doAuthedJSON(http.MethodPost, "/products/create", vendorToken, map[string]interface{}{
		"name":        "Gaming Laptop",
		"slug":        "gaming-laptop",
		"description": "another one",
		"category_id": cat.ID,
		"price":       "200.00",
	})
	err := env.authed(env.Products.CreateProduct, middleware.RequireVendor())(c)
	requireHTTPError(t, err, http.StatusBadRequest)
}

func TestGetProductBumpsViewCounter(t *testing.T) {
	env := newTestEnv(t)
	vendor, _ := env.createUser("vendor@shop.test", models.RoleVendor)
	cat := env.seedCategory("phones")
	product := env.seedProduct("super-phone", "500.00", 5, vendor.ID, cat.ID)

	for i := 0; i < 2; i++ {
		rec, c := env.doJSONRequest(http.MethodGet, "/products/super-phone", nil)
		c.SetParamNames("slug")
		c.SetParamValues("super-phone")
		require.NoError(t, env.Products.GetProduct(c))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var stored models.Product
	require.NoError(t, env.DB.First(&stored, product.ID).Error)
	require.Equal(t, 2, stored.Views)
}

func TestGetProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodGet, "/products/missing", nil)
	c.SetParamNames("slug")
	c.SetParamValues("missing")
	requireHTTPError(t, env.Products.GetProduct(c), http.StatusNotFound)
}

func TestListProductsHidesUnavailable(t *testing.T) {
	env := newTestEnv(t)
	vendor, _ := env.createUser("vendor@shop.test", models.RoleVendor)
	cat := env.seedCategory("phones")
	env.seedProduct("visible-phone", "500.00", 5, vendor.ID, cat.ID)
	hidden := env.seedProduct("hidden-phone", "400.00", 5, vendor.ID, cat.ID)
	require.NoError(t, env.DB.Model(hidden).Update("is_available", false).Error)

	rec, c := env.doJSONRequest(http.MethodGet, "/products", nil)
	require.NoError(t, env.Products.GetProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Product `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.EqualValues(t, 1, resp.Meta.Total)
	require.Len(t, resp.Data, 1)
	require.Equal(t, "visible-phone", resp.Data[0].Slug)
}

func TestPatchProductOwnership(t *testing.T) {
	env := newTestEnv(t)
	vendor, _ := env.createUser("vendor@shop.test", models.RoleVendor)
	_, otherToken := env.createUser("other-vendor@shop.test", models.RoleVendor)
	cat := env.seedCategory("phones")
	env.seedProduct("super-phone", "500.00", 5, vendor.ID, cat.ID)

	newName := "Renamed Phone"
	_, c := env.doAuthedJSON(http.MethodPatch, "/products/super-phone", otherToken, map[string]interface{}{
		"name": newName,
	})
	c.SetParamNames("slug")
	c.SetParamValues("super-phone")
	err := env.authed(env.Products.PatchProduct, middleware.RequireVendor())(c)
	requireHTTPError(t, err, http.StatusForbidden)
}

func TestPatchProductClearsDiscount(t *testing.T) {
	env := newTestEnv(t)
	vendor, vendorToken := env.createUser("vendor@shop.test", models.RoleVendor)
	cat := env.seedCategory("phones")
	product := env.seedProduct("super-phone", "500.00", 5, vendor.ID, cat.ID)

	discount, err := models.MoneyFromString("450.00")
	require.NoError(t, err)
	require.NoError(t, env.DB.Model(product).Update("discount_price", discount).Error)

	rec, c := env.doAuthedJSON(http.MethodPatch, "/products/super-phone", vendorToken, map[string]interface{}{
		"discount_price": "",
	})
	c.SetParamNames("slug")
	c.SetParamValues("super-phone")
	require.NoError(t, env.authed(env.Products.PatchProduct, middleware.RequireVendor())(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Product
	require.NoError(t, env.DB.First(&stored, product.ID).Error)
	require.Nil(t, stored.DiscountPrice)
	require.True(t, stored.FinalPrice().Equal(stored.Price))
}

func TestDeleteProductRemovesImages(t *testing.T) {
	env := newTestEnv(t)
	vendor, vendorToken := env.createUser("vendor@shop.test", models.RoleVendor)
	cat := env.seedCategory("phones")
	product := env.seedProduct("super-phone", "500.00", 5, vendor.ID, cat.ID)
	require.NoError(t, env.DB.Create(&models.ProductImage{ProductID: product.ID, URL: "https://img.shop.test/1.jpg"}).Error)

	rec, c := env.doAuthedJSON(http.MethodDelete, "/products/super-phone", vendorToken, nil)
	c.SetParamNames("slug")
	c.SetParamValues("super-phone")
	require.NoError(t, env.authed(env.Products.DeleteProduct, middleware.RequireVendor())(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var products, images int64
	require.NoError(t, env.DB.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, env.DB.Model(&models.ProductImage{}).Count(&images).Error)
	require.Zero(t, products)
	require.Zero(t, images)
}

func TestMyProductsScopedToVendor(t *testing.T) {
	env := newTestEnv(t)
	vendor, vendorToken := env.createUser("vendor@shop.test", models.RoleVendor)
	other, _ := env.createUser("other-vendor@shop.test", models.RoleVendor)
	cat := env.seedCategory("phones")
	env.seedProduct("mine", "100.00", 5, vendor.ID, cat.ID)
	env.seedProduct("theirs", "100.00", 5, other.ID, cat.ID)

	rec, c := env.doAuthedJSON(http.MethodGet, "/products/my", vendorToken, nil)
	require.NoError(t, env.authed(env.Products.MyProducts, middleware.RequireVendor())(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Equal(t, "mine", resp[0].Slug)
}
