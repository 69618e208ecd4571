package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avklenov/martdeck/internal/config"
	"github.com/avklenov/martdeck/internal/hash"
	"github.com/avklenov/martdeck/internal/middleware"
	"github.com/avklenov/martdeck/internal/models"
	"github.com/avklenov/martdeck/internal/service/order"
	"github.com/avklenov/martdeck/internal/service/token"
	"github.com/avklenov/martdeck/internal/validate"
)

type testEnv struct {
	T          *testing.T
	E          *echo.Echo
	DB         *gorm.DB
	Tokens     *token.TokenService
	JWTSecret  []byte
	Auth       *AuthHandler
	Users      *UserHandler
	Categories *CategoryHandler
	Products   *ProductHandler
	Reviews    *ReviewHandler
	Orders     *OrderHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	e := echo.New()
	e.Validator = validate.New()

	jwtSecret := []byte("test-jwt-secret")
	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     jwtSecret,
		RefreshSecret: []byte("test-refresh-secret"),
	}

	return &testEnv{
		T:          t,
		E:          e,
		DB:         db,
		Tokens:     tokens,
		JWTSecret:  jwtSecret,
		Auth:       &AuthHandler{DB: db, Tokens: tokens},
		Users:      &UserHandler{DB: db},
		Categories: &CategoryHandler{DB: db},
		Products:   &ProductHandler{DB: db},
		Reviews:    &ReviewHandler{DB: db},
		Orders:     &OrderHandler{Svc: &order.Service{DB: db}},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) doAuthedJSON(method, path, accessToken string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	rec, c := env.doJSONRequest(method, path, body)
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken)
	return rec, c
}

// authed runs a handler behind the real auth middleware so the identity
// comes from the Bearer token rather than being injected by the test.
func (env *testEnv) authed(h echo.HandlerFunc, extra ...echo.MiddlewareFunc) echo.HandlerFunc {
	for i := len(extra) - 1; i >= 0; i-- {
		h = extra[i](h)
	}
	return middleware.RequireAuth(env.JWTSecret)(h)
}

func (env *testEnv) createUser(email string, role models.Role) (*models.User, string) {
	env.T.Helper()

	passwordHash, err := hash.HashPassword("password123")
	require.NoError(env.T, err)

	user := &models.User{
		Username:     email,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	require.NoError(env.T, env.DB.Create(user).Error)

	pair, err := env.Tokens.IssuePair(user)
	require.NoError(env.T, err)
	return user, pair.AccessToken
}

func (env *testEnv) seedCategory(name string) *models.Category {
	env.T.Helper()
	cat := &models.Category{Name: name, IsActive: true}
	require.NoError(env.T, env.DB.Create(cat).Error)
	return cat
}

func (env *testEnv) seedProduct(name, price string, stock int, vendorID, categoryID uint) *models.Product {
	env.T.Helper()

	amount, err := models.MoneyFromString(price)
	require.NoError(env.T, err)

	product := &models.Product{
		Name:        name,
		Slug:        name,
		Description: name,
		CategoryID:  categoryID,
		Price:       amount,
		Stock:       stock,
		IsAvailable: true,
		VendorID:    vendorID,
	}
	require.NoError(env.T, env.DB.Create(product).Error)
	return product
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, code, he.Code)
}
