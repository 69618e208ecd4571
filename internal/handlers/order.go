package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/avklenov/martdeck/internal/logging"
	"github.com/avklenov/martdeck/internal/middleware"
	"github.com/avklenov/martdeck/internal/mykafka"
	"github.com/avklenov/martdeck/internal/service/order"
	"github.com/avklenov/martdeck/internal/transport"
	"github.com/avklenov/martdeck/internal/util"
)

type OrderHandler struct {
	Svc      *order.Service
	Producer *mykafka.Producer
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	placed, err := h.Svc.Create(ctx, ident.UserID, req)
	if err != nil {
		l.Warn("create_order_error", "user_id", ident.UserID, "error", err)
		return serviceHTTPError(err)
	}

	publish(c, h.Producer, "order_events", strconv.FormatUint(uint64(ident.UserID), 10), map[string]interface{}{
		"type":        "order_created",
		"userID":      ident.UserID,
		"orderID":     placed.ID,
		"orderNumber": placed.OrderNumber,
		"total":       placed.TotalAmount,
	})

	l.Info("create_order_success", "user_id", ident.UserID, "order_id", placed.ID)
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Order placed successfully",
		"order":   transport.NewOrderResponse(placed),
	})
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel_order")

	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	cancelled, err := h.Svc.Cancel(ctx, ident.UserID, id)
	if err != nil {
		l.Warn("cancel_order_error", "user_id", ident.UserID, "order_id", id, "error", err)
		return serviceHTTPError(err)
	}

	publish(c, h.Producer, "order_events", strconv.FormatUint(uint64(ident.UserID), 10), map[string]interface{}{
		"type":    "order_cancelled",
		"userID":  ident.UserID,
		"orderID": cancelled.ID,
	})

	l.Info("cancel_order_success", "user_id", ident.UserID, "order_id", cancelled.ID)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Order cancelled successfully",
		"order":   transport.NewOrderResponse(cancelled),
	})
}

func (h *OrderHandler) listFilters(c echo.Context) order.ListFilters {
	f := order.ListFilters{
		Status:        c.QueryParam("status"),
		PaymentMethod: c.QueryParam("payment_method"),
		OrderBy:       c.QueryParam("ordering"),
	}
	if v := c.QueryParam("is_paid"); v != "" {
		paid := v == "true"
		f.IsPaid = &paid
	}
	return f
}

func (h *OrderHandler) listOrders(c echo.Context, asAdmin bool) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, total, err := h.Svc.List(c.Request().Context(), ident.UserID, asAdmin || ident.IsAdmin(), h.listFilters(c), offset, limit)
	if err != nil {
		return serviceHTTPError(err)
	}

	out := make([]transport.OrderResponse, len(orders))
	for i := range orders {
		out[i] = transport.NewOrderResponse(&orders[i])
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": out,
		"meta": transport.NewListMeta(page, limit, offset, total),
	})
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	return h.listOrders(c, false)
}

func (h *OrderHandler) AdminListOrders(c echo.Context) error {
	return h.listOrders(c, true)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	found, err := h.Svc.Get(c.Request().Context(), ident.UserID, ident.IsAdmin(), id)
	if err != nil {
		return serviceHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderResponse(found))
}

func (h *OrderHandler) AdminUpdateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_update")

	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var req transport.AdminOrderUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	updated, err := h.Svc.AdminUpdate(ctx, id, req)
	if err != nil {
		l.Warn("admin_update_error", "order_id", id, "error", err)
		return serviceHTTPError(err)
	}

	publish(c, h.Producer, "order_events", strconv.FormatUint(uint64(updated.UserID), 10), map[string]interface{}{
		"type":    "order_updated",
		"orderID": updated.ID,
		"status":  updated.Status,
		"isPaid":  updated.IsPaid,
	})

	l.Info("admin_update_success", "order_id", updated.ID, "status", updated.Status)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Order updated successfully",
		"order":   transport.NewOrderResponse(updated),
	})
}
