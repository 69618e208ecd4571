package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avklenov/martdeck/internal/models"
)

func TestCreateReviewOncePerUser(t *testing.T) {
	env := newTestEnv(t)
	vendor, _ := env.createUser("vendor@shop.test", models.RoleVendor)
	_, customerToken := env.createUser("customer@shop.test", models.RoleCustomer)
	cat := env.seedCategory("phones")
	product := env.seedProduct("super-phone", "500.00", 5, vendor.ID, cat.ID)

	payload := map[string]interface{}{"rating": 5, "comment": "great phone"}

	rec, c := env.doAuthedJSON(http.MethodPost, "/products/1/reviews", customerToken, payload)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(product.ID), 10))
	require.NoError(t, env.authed(env.Reviews.CreateReview)(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	_, c2 := env.doAuthedJSON(http.MethodPost, "/products/1/reviews", customerToken, payload)
	c2.SetParamNames("id")
	c2.SetParamValues(strconv.FormatUint(uint64(product.ID), 10))
	err := env.authed(env.Reviews.CreateReview)(c2)
	requireHTTPError(t, err, http.StatusBadRequest)

	var count int64
	require.NoError(t, env.DB.Model(&models.Review{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateReviewRatingBounds(t *testing.T) {
	env := newTestEnv(t)
	vendor, _ := env.createUser("vendor@shop.test", models.RoleVendor)
	_, customerToken := env.createUser("customer@shop.test", models.RoleCustomer)
	cat := env.seedCategory("phones")
	product := env.seedProduct("super-phone", "500.00", 5, vendor.ID, cat.ID)

	for _, rating := range []int{0, 6} {
		_, c := env.doAuthedJSON(http.MethodPost, "/products/1/reviews", customerToken, map[string]interface{}{
			"rating":  rating,
			"comment": "out of range",
		})
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(uint64(product.ID), 10))
		err := env.authed(env.Reviews.CreateReview)(c)
		requireHTTPError(t, err, http.StatusBadRequest)
	}
}

func TestListReviewsAggregates(t *testing.T) {
	env := newTestEnv(t)
	vendor, _ := env.createUser("vendor@shop.test", models.RoleVendor)
	alice, _ := env.createUser("alice@shop.test", models.RoleCustomer)
	bob, _ := env.createUser("bob@shop.test", models.RoleCustomer)
	cat := env.seedCategory("phones")
	product := env.seedProduct("super-phone", "500.00", 5, vendor.ID, cat.ID)

	require.NoError(t, env.DB.Create(&models.Review{ProductID: product.ID, UserID: alice.ID, Rating: 4, Comment: "good"}).Error)
	require.NoError(t, env.DB.Create(&models.Review{ProductID: product.ID, UserID: bob.ID, Rating: 5, Comment: "excellent"}).Error)

	rec, c := env.doJSONRequest(http.MethodGet, "/products/1/reviews", nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(product.ID), 10))
	require.NoError(t, env.Reviews.ListReviews(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reviews       []models.Review `json:"reviews"`
		AverageRating float64         `json:"average_rating"`
		ReviewCount   int64           `json:"review_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Reviews, 2)
	require.InDelta(t, 4.5, resp.AverageRating, 0.001)
	require.EqualValues(t, 2, resp.ReviewCount)
}

func TestListReviewsMissingProduct(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodGet, "/products/99/reviews", nil)
	c.SetParamNames("id")
	c.SetParamValues("99")
	requireHTTPError(t, env.Reviews.ListReviews(c), http.StatusNotFound)
}

func TestPatchReviewAuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	vendor, _ := env.createUser("vendor@shop.test", models.RoleVendor)
	alice, _ := env.createUser("alice@shop.test", models.RoleCustomer)
	_, bobToken := env.createUser("bob@shop.test", models.RoleCustomer)
	cat := env.seedCategory("phones")
	product := env.seedProduct("super-phone", "500.00", 5, vendor.ID, cat.ID)

	review := models.Review{ProductID: product.ID, UserID: alice.ID, Rating: 4, Comment: "good"}
	require.NoError(t, env.DB.Create(&review).Error)

	_, c := env.doAuthedJSON(http.MethodPatch, "/reviews/1", bobToken, map[string]interface{}{
		"rating":  1,
		"comment": "hijacked",
	})
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(review.ID), 10))
	err := env.authed(env.Reviews.PatchReview)(c)
	requireHTTPError(t, err, http.StatusForbidden)
}

func TestDeleteReviewAuthorOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	vendor, _ := env.createUser("vendor@shop.test", models.RoleVendor)
	alice, _ := env.createUser("alice@shop.test", models.RoleCustomer)
	_, bobToken := env.createUser("bob@shop.test", models.RoleCustomer)
	_, adminToken := env.createUser("admin@shop.test", models.RoleAdmin)
	cat := env.seedCategory("phones")
	product := env.seedProduct("super-phone", "500.00", 5, vendor.ID, cat.ID)

	review := models.Review{ProductID: product.ID, UserID: alice.ID, Rating: 4, Comment: "good"}
	require.NoError(t, env.DB.Create(&review).Error)

	_, c := env.doAuthedJSON(http.MethodDelete, "/reviews/1", bobToken, nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(review.ID), 10))
	err := env.authed(env.Reviews.DeleteReview)(c)
	requireHTTPError(t, err, http.StatusForbidden)

	rec, c2 := env.doAuthedJSON(http.MethodDelete, "/reviews/1", adminToken, nil)
	c2.SetParamNames("id")
	c2.SetParamValues(strconv.FormatUint(uint64(review.ID), 10))
	require.NoError(t, env.authed(env.Reviews.DeleteReview)(c2))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Review{}).Count(&count).Error)
	require.Zero(t, count)
}
