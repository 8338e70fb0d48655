package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopnest/shopnest-backend-go/middleware"
	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/services"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
)

const idempotencyHeader = "Idempotency-Key"

type orderLineRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

type createOrderRequest struct {
	CartItems       []orderLineRequest     `json:"cartItems" validate:"required,min=1,dive"`
	DeliveryDetails models.DeliveryDetails `json:"deliveryDetails"`
}

// CreateOrder places an order. A repeated Idempotency-Key returns the
// original order with 200 instead of placing a second one.
func (h *Handler) CreateOrder(c echo.Context, caller middleware.Caller) error {
	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	lines := make([]services.OrderLine, len(req.CartItems))
	for i, item := range req.CartItems {
		id, err := objectID(item.ProductID, "product")
		if err != nil {
			return err
		}
		lines[i] = services.OrderLine{ProductID: id, Quantity: item.Quantity}
	}

	ctx, cancel := h.context(c)
	defer cancel()

	order, created, err := h.orders.PlaceOrder(ctx, services.PlaceOrder{
		UserID:         *caller.UserID,
		SessionID:      caller.SessionID,
		Lines:          lines,
		Delivery:       req.DeliveryDetails,
		IdempotencyKey: c.Request().Header.Get(idempotencyHeader),
	})
	if err != nil {
		return err
	}
	if !created {
		return c.JSON(http.StatusOK, order)
	}
	return c.JSON(http.StatusCreated, order)
}

// FindOrder returns one of the caller's orders; admins may read any order.
func (h *Handler) FindOrder(c echo.Context, caller middleware.Caller) error {
	orderID, err := objectID(c.QueryParam("orderId"), "order")
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	order, err := h.store.Orders.Get(ctx, orderID)
	if err != nil {
		return notFound(err, "Order not found")
	}
	if !caller.Owns(order.UserID) && !caller.IsAdmin() {
		return utils.NotFound("Order not found")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) GetAllOrders(c echo.Context) error {
	var filter store.OrderFilter
	if raw, ok := filterValue(c.QueryParam("status")); ok {
		status := models.OrderStatus(raw)
		if !status.Valid() {
			return utils.BadRequest(fmt.Sprintf("Invalid status %q", raw))
		}
		filter.Status = &status
	}
	if period, ok := filterValue(c.QueryParam("period")); ok {
		r, err := utils.PeriodRange(h.now(), period, c.QueryParam("months"))
		if err != nil {
			return utils.BadRequest(err.Error())
		}
		filter.Range = r
	}

	ctx, cancel := h.context(c)
	defer cancel()

	page := pageOf(c)
	orders, total, err := h.store.Orders.List(ctx, filter, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"orders":     orders,
		"pagination": utils.NewPagination(page, total),
	})
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	orderID, err := objectID(c.Param("orderId"), "order")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	order, err := h.orders.SetStatus(ctx, orderID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}
