package order

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/avklenov/martdeck/internal/models"
	"github.com/avklenov/martdeck/internal/transport"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
)

type Service struct {
	DB *gorm.DB
}

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOrderNumber draws 10 characters from a 36-symbol alphabet after a fixed
// prefix. Uniqueness is probabilistic; the uniqueIndex on order_number turns
// the rare collision into a failed, retryable transaction.
func NewOrderNumber() string {
	b := make([]byte, 10)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = orderNumberAlphabet[int(b[i])%len(orderNumberAlphabet)]
	}
	return "ORD" + string(b)
}

// Create places an order for the given user: validates the requested items,
// snapshots each product's effective price, writes the order header and line
// items and decrements stock — all inside one transaction. Either the whole
// order exists with decremented stock or nothing does.
func (s *Service) Create(ctx context.Context, userID uint, req transport.CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}

	paymentMethod := models.PaymentCOD
	if req.PaymentMethod != "" {
		pm, ok := models.ParsePaymentMethod(req.PaymentMethod)
		if !ok {
			return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
		}
		paymentMethod = pm
	}

	var order models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total := models.Money{}
		items := make([]models.OrderItem, 0, len(req.Items))

		for _, it := range req.Items {
			var p models.Product
			if err := tx.First(&p, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d not found", ErrValidation, it.ProductID)
				}
				return err
			}
			if !p.IsAvailable {
				return fmt.Errorf("%w: %s is not available", ErrValidation, p.Name)
			}
			if p.Stock < it.Quantity {
				return fmt.Errorf("%w: only %d units of %s available", ErrValidation, p.Stock, p.Name)
			}

			price := p.FinalPrice()
			total = total.Add(price.Mul(int64(it.Quantity)))
			items = append(items, models.OrderItem{
				ProductID: p.ID,
				Quantity:  it.Quantity,
				Price:     price,
			})
		}

		order = models.Order{
			OrderNumber:     NewOrderNumber(),
			UserID:          userID,
			ShippingAddress: req.ShippingAddress,
			ShippingCity:    req.ShippingCity,
			ShippingState:   req.ShippingState,
			ShippingPincode: req.ShippingPincode,
			Phone:           req.Phone,
			Status:          models.OrderStatusPending,
			PaymentMethod:   paymentMethod,
			TotalAmount:     total,
		}
		if err := tx.Create(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: order number collision, please retry", ErrConflict)
			}
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}

			// Guarded decrement: concurrent orders against the same product
			// cannot both pass; the loser sees zero rows affected.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", items[i].ProductID, items[i].Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", items[i].Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: insufficient stock for product %d", ErrConflict, items[i].ProductID)
			}
		}

		order.Items = items
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &order, nil
}

// Cancel moves the owner's pending order to cancelled and restores each line
// item's quantity to product stock, atomically with the status change.
func (s *Service) Cancel(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	var order models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").
			Where("id = ? AND user_id = ?", orderID, userID).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if order.Status != models.OrderStatusPending {
			return fmt.Errorf("%w: only pending orders can be cancelled", ErrValidation)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
			Update("status", models.OrderStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order status changed concurrently", ErrConflict)
		}

		for _, it := range order.Items {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", it.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
				return err
			}
		}

		order.Status = models.OrderStatusCancelled
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &order, nil
}

// AdminUpdate mutates status and/or the paid flag. Any valid status may be
// assigned directly; stock is never touched here. delivered_at is stamped
// when the status becomes delivered.
func (s *Service) AdminUpdate(ctx context.Context, orderID uint, req transport.AdminOrderUpdateRequest) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		status, ok := models.ParseOrderStatus(*req.Status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
		}
		updates["status"] = status
		if status == models.OrderStatusDelivered {
			updates["delivered_at"] = gorm.Expr("CURRENT_TIMESTAMP")
		}
	}
	if req.IsPaid != nil {
		updates["is_paid"] = *req.IsPaid
	}
	if len(updates) == 0 {
		return &order, nil
	}

	if err := s.DB.WithContext(ctx).Model(&order).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListFilters narrow List results; zero values mean no filtering.
type ListFilters struct {
	Status        string
	PaymentMethod string
	IsPaid        *bool
	OrderBy       string
}

// List returns the caller's orders; admins see every order.
func (s *Service) List(ctx context.Context, userID uint, isAdmin bool, f ListFilters, offset, limit int) ([]models.Order, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{})
	if !isAdmin {
		q = q.Where("user_id = ?", userID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.IsPaid != nil {
		q = q.Where("is_paid = ?", *f.IsPaid)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := "created_at DESC"
	switch f.OrderBy {
	case "total_amount":
		orderBy = "total_amount DESC"
	case "created_at":
	}

	var orders []models.Order
	if err := q.Preload("Items").Order(orderBy).Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Get returns one order; non-admins only see their own.
func (s *Service) Get(ctx context.Context, userID uint, isAdmin bool, orderID uint) (*models.Order, error) {
	q := s.DB.WithContext(ctx).Preload("Items").Preload("Items.Product")
	if !isAdmin {
		q = q.Where("user_id = ?", userID)
	}

	var order models.Order
	if err := q.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}
