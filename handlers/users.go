package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopnest/shopnest-backend-go/identity"
	"github.com/shopnest/shopnest-backend-go/middleware"
	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/services"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
)

// CreateUser links the provider account of the caller to a local user,
// creating it on first sign-in.
func (h *Handler) CreateUser(c echo.Context, caller middleware.Caller) error {
	ctx, cancel := h.context(c)
	defer cancel()

	existing, err := h.store.Users.FindByAuthID(ctx, caller.Subject)
	if err == nil {
		return c.JSON(http.StatusOK, echo.Map{"user": existing})
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	profile, err := h.identity.Profile(ctx, caller.Subject)
	if errors.Is(err, identity.ErrUnknownSubject) {
		return utils.NotFound("User not found")
	}
	if err != nil {
		return err
	}

	user := &models.User{
		AuthID:    caller.Subject,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     profile.Email,
		ImageURL:  profile.ImageURL,
		Role:      models.RoleUser,
	}
	if err := h.store.Users.Create(ctx, user); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			return err
		}
		// created by a concurrent sign-in
		if existing, err = h.store.Users.FindByAuthID(ctx, caller.Subject); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"user": existing})
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": user})
}

func (h *Handler) UpdateUserInformation(c echo.Context, caller middleware.Caller) error {
	var req models.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		return utils.BadRequest("Invalid request format")
	}

	ctx, cancel := h.context(c)
	defer cancel()

	user, err := h.store.Users.UpdateProfile(ctx, *caller.UserID, req)
	if err != nil {
		return notFound(err, "User not found")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateUserImage(c echo.Context, caller middleware.Caller) error {
	ctx, cancel := h.context(c)
	defer cancel()

	url, err := h.uploadImage(ctx, c, "imageFile", true)
	if err != nil {
		return err
	}
	user, err := h.store.Users.UpdateImage(ctx, *caller.UserID, url)
	if err != nil {
		return notFound(err, "User not found")
	}
	return c.JSON(http.StatusOK, user)
}

// GetUserOrders lists the orders of user :id for that user or an admin.
func (h *Handler) GetUserOrders(c echo.Context, caller middleware.Caller) error {
	userID, err := objectID(c.Param("id"), "user")
	if err != nil {
		return err
	}
	if !caller.Owns(userID) && !caller.IsAdmin() {
		return utils.Forbidden("You can only view your own orders")
	}

	ctx, cancel := h.context(c)
	defer cancel()

	page := pageOf(c)
	orders, total, err := h.store.Orders.List(ctx, store.OrderFilter{UserID: &userID}, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"orders":     orders,
		"pagination": utils.NewPagination(page, total),
	})
}

type updateMyOrderRequest struct {
	Status          *models.OrderStatus     `json:"status"`
	DeliveryDetails *models.DeliveryDetails `json:"deliveryDetails"`
}

func (h *Handler) UpdateMyOrder(c echo.Context, caller middleware.Caller) error {
	orderID, err := objectID(c.Param("id"), "order")
	if err != nil {
		return err
	}
	var req updateMyOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequest("Invalid request format")
	}
	if req.Status == nil && req.DeliveryDetails == nil {
		return utils.BadRequest("Nothing to update")
	}
	if req.DeliveryDetails != nil {
		if err := c.Validate(req.DeliveryDetails); err != nil {
			return err
		}
	}

	ctx, cancel := h.context(c)
	defer cancel()

	order, err := h.orders.UpdateOwnOrder(ctx, *caller.UserID, orderID, services.OrderChange{
		Status:   req.Status,
		Delivery: req.DeliveryDetails,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}
