package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avklenov/martdeck/internal/handlers"
	"github.com/avklenov/martdeck/internal/middleware"
)

type Deps struct {
	DB              *gorm.DB
	JWTSecret       []byte
	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	CategoryHandler *handlers.CategoryHandler
	ProductHandler  *handlers.ProductHandler
	ReviewHandler   *handlers.ReviewHandler
	OrderHandler    *handlers.OrderHandler
	SearchHandler   *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	auth := middleware.RequireAuth(d.JWTSecret)
	admin := middleware.RequireAdmin()
	vendor := middleware.RequireVendor()

	// Auth
	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/refresh", d.AuthHandler.Refresh)
	v1.POST("/logout", d.AuthHandler.LogOut, auth)

	// Profile
	v1.GET("/profile", d.UserHandler.GetProfile, auth)
	v1.PUT("/profile", d.UserHandler.UpdateProfile, auth)
	v1.POST("/change-password", d.UserHandler.ChangePassword, auth)

	// Admin user management
	v1.GET("/users", d.UserHandler.ListUsers, auth, admin)
	v1.GET("/users/:id", d.UserHandler.GetUser, auth, admin)

	// Categories
	v1.GET("/categories", d.CategoryHandler.ListCategories)
	v1.GET("/categories/:id", d.CategoryHandler.GetCategory)
	v1.POST("/categories", d.CategoryHandler.CreateCategory, auth, admin)
	v1.PATCH("/categories/:id", d.CategoryHandler.PatchCategory, auth, admin)
	v1.DELETE("/categories/:id", d.CategoryHandler.DeleteCategory, auth, admin)

	// Products; static paths before the slug route
	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/search", d.SearchHandler.Search)
	products.GET("/my", d.ProductHandler.MyProducts, auth, vendor)
	products.POST("/create", d.ProductHandler.CreateProduct, auth, vendor)
	products.GET("/:slug", d.ProductHandler.GetProduct)
	products.PATCH("/:slug", d.ProductHandler.PatchProduct, auth, vendor)
	products.DELETE("/:slug", d.ProductHandler.DeleteProduct, auth, vendor)
	products.POST("/:slug/images", d.ProductHandler.AddImage, auth, vendor)
	v1.DELETE("/images/:id", d.ProductHandler.DeleteImage, auth, vendor)

	// Reviews
	v1.GET("/products/:id/reviews", d.ReviewHandler.ListReviews)
	v1.POST("/products/:id/reviews", d.ReviewHandler.CreateReview, auth)
	v1.PATCH("/reviews/:id", d.ReviewHandler.PatchReview, auth)
	v1.DELETE("/reviews/:id", d.ReviewHandler.DeleteReview, auth)

	// Orders
	orders := v1.Group("/orders", auth)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.POST("/create", d.OrderHandler.CreateOrder)
	orders.GET("/admin/all", d.OrderHandler.AdminListOrders, admin)
	orders.PATCH("/admin/:id/update", d.OrderHandler.AdminUpdateOrder, admin)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)
}
