package transport

import (
	"time"

	"github.com/avklenov/martdeck/internal/models"
)

type RegisterRequest struct {
	Username  string `json:"username"  validate:"required"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required"`
	Phone     string `json:"phone"`
	Role      string `json:"role"      validate:"omitempty,oneof=admin customer vendor"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

type ChangePasswordRequest struct {
	OldPassword  string `json:"old_password"  validate:"required"`
	NewPassword  string `json:"new_password"  validate:"required,min=8"`
	NewPassword2 string `json:"new_password2" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	User   *models.User `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type CategoryResponse struct {
	models.Category
	ProductCount int64 `json:"product_count"`
}

type CreateProductRequest struct {
	Name          string  `json:"name"        validate:"required"`
	Slug          string  `json:"slug"`
	Description   string  `json:"description" validate:"required"`
	CategoryID    uint    `json:"category_id" validate:"required"`
	Price         string  `json:"price"       validate:"required"`
	DiscountPrice *string `json:"discount_price"`
	Stock         int     `json:"stock"       validate:"gte=0"`
	IsAvailable   *bool   `json:"is_available"`
}

type UpdateProductRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	CategoryID    *uint   `json:"category_id"`
	Price         *string `json:"price"`
	DiscountPrice *string `json:"discount_price"`
	Stock         *int    `json:"stock" validate:"omitempty,gte=0"`
	IsAvailable   *bool   `json:"is_available"`
}

type ProductImageRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type ProductResponse struct {
	models.Product
	FinalPrice    models.Money    `json:"final_price"`
	InStock       bool            `json:"in_stock"`
	AverageRating float64         `json:"average_rating"`
	ReviewCount   int64           `json:"review_count"`
	Reviews       []models.Review `json:"reviews,omitempty"`
}

func NewProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		Product:    *p,
		FinalPrice: p.FinalPrice(),
		InStock:    p.InStock(),
	}
}

type ReviewRequest struct {
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

type ReviewListResponse struct {
	Reviews       []models.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
	ReviewCount   int64           `json:"review_count"`
}

type OrderItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity"   validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	ShippingAddress string             `json:"shipping_address" validate:"required"`
	ShippingCity    string             `json:"shipping_city"    validate:"required"`
	ShippingState   string             `json:"shipping_state"   validate:"required"`
	ShippingPincode string             `json:"shipping_pincode" validate:"required"`
	Phone           string             `json:"phone"            validate:"required"`
	PaymentMethod   string             `json:"payment_method"   validate:"omitempty,oneof=cod online card"`
	Items           []OrderItemRequest `json:"items"            validate:"dive"`
}

type AdminOrderUpdateRequest struct {
	Status *string `json:"status"  validate:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
	IsPaid *bool   `json:"is_paid"`
}

type OrderResponse struct {
	models.Order
	TotalItems int `json:"total_items"`
}

func NewOrderResponse(o *models.Order) OrderResponse {
	return OrderResponse{Order: *o, TotalItems: o.TotalItems()}
}

type ListMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func NewListMeta(page, size, offset int, total int64) ListMeta {
	return ListMeta{
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: (total + int64(size) - 1) / int64(size),
		HasPrev:    page > 1,
		HasNext:    int64(offset+size) < total,
	}
}

type UserResponse struct {
	ID        uint        `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	Phone     string      `json:"phone"`
	Address   string      `json:"address"`
	City      string      `json:"city"`
	State     string      `json:"state"`
	Pincode   string      `json:"pincode"`
	CreatedAt time.Time   `json:"created_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Phone:     u.Phone,
		Address:   u.Address,
		City:      u.City,
		State:     u.State,
		Pincode:   u.Pincode,
		CreatedAt: u.CreatedAt,
	}
}
