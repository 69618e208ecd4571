package models

import (
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleCustomer, RoleVendor:
		return Role(s), true
	}
	return "", false
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username     string    `gorm:"not null"                  json:"username"`
	Email        string    `gorm:"unique;not null"           json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Role         Role      `gorm:"not null;default:customer" json:"role"`
	IsSuperuser  bool      `gorm:"default:false"             json:"is_superuser"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Pincode      string    `json:"pincode"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports admin capability: the admin role or the superuser flag.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

func (u *User) IsVendor() bool {
	return u.Role == RoleVendor
}

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"unique;not null"          json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `gorm:"default:true"             json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID            uint           `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name          string         `gorm:"not null"                    json:"name"`
	Slug          string         `gorm:"uniqueIndex;not null"        json:"slug"`
	Description   string         `gorm:"not null"                    json:"description"`
	CategoryID    uint           `gorm:"index;not null"              json:"category_id"`
	Category      *Category      `json:"category,omitempty"`
	Price         Money          `gorm:"type:decimal(10,2);not null" json:"price"`
	DiscountPrice *Money         `gorm:"type:decimal(10,2)"          json:"discount_price"`
	Stock         int            `gorm:"default:0"                   json:"stock"`
	IsAvailable   bool           `gorm:"default:true"                json:"is_available"`
	VendorID      uint           `gorm:"index;not null"              json:"vendor_id"`
	Vendor        *User          `json:"vendor,omitempty"`
	Views         int            `gorm:"default:0"                   json:"views"`
	Images        []ProductImage `json:"images,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// FinalPrice is the effective charge price: the discount price when one is
// set and positive, the list price otherwise.
func (p *Product) FinalPrice() Money {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() {
		return *p.DiscountPrice
	}
	return p.Price
}

func (p *Product) InStock() bool {
	return p.Stock > 0
}

type ProductImage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint      `gorm:"index;not null"           json:"product_id"`
	URL       string    `gorm:"not null"                 json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                     json:"id"`
	ProductID uint      `gorm:"uniqueIndex:idx_review_product_user;not null" json:"product_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_product_user;not null" json:"user_id"`
	User      *User     `json:"user,omitempty"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"   json:"rating"`
	Comment   string    `gorm:"not null"                                     json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
	PaymentCard   PaymentMethod = "card"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PaymentCOD, PaymentOnline, PaymentCard:
		return PaymentMethod(s), true
	}
	return "", false
}

type Order struct {
	ID              uint          `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderNumber     string        `gorm:"uniqueIndex;not null"        json:"order_number"`
	UserID          uint          `gorm:"index;not null"              json:"user_id"`
	User            *User         `json:"user,omitempty"`
	ShippingAddress string        `gorm:"not null"                    json:"shipping_address"`
	ShippingCity    string        `gorm:"not null"                    json:"shipping_city"`
	ShippingState   string        `gorm:"not null"                    json:"shipping_state"`
	ShippingPincode string        `gorm:"not null"                    json:"shipping_pincode"`
	Phone           string        `gorm:"not null"                    json:"phone"`
	Status          OrderStatus   `gorm:"not null;default:pending"    json:"status"`
	PaymentMethod   PaymentMethod `gorm:"not null;default:cod"        json:"payment_method"`
	IsPaid          bool          `gorm:"default:false"               json:"is_paid"`
	TotalAmount     Money         `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Items           []OrderItem   `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	DeliveredAt     *time.Time    `json:"delivered_at"`
}

// TotalItems is the summed quantity over all line items.
func (o *Order) TotalItems() int {
	total := 0
	for _, it := range o.Items {
		total += it.Quantity
	}
	return total
}

type OrderItem struct {
	ID        uint     `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID   uint     `gorm:"index;not null"              json:"order_id"`
	ProductID uint     `gorm:"not null"                    json:"product_id"`
	Product   *Product `json:"product,omitempty"`
	Quantity  int      `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price     Money    `gorm:"type:decimal(10,2);not null" json:"price"`
}

// Subtotal is quantity times the price snapshot taken at order time.
func (i *OrderItem) Subtotal() Money {
	return i.Price.Mul(int64(i.Quantity))
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"token"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
}
