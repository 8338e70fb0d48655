package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopnest/shopnest-backend-go/middleware"
	"github.com/shopnest/shopnest-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type productRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

func (h *Handler) bindProduct(c echo.Context) (primitive.ObjectID, error) {
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return primitive.NilObjectID, err
	}
	return objectID(req.ProductID, "product")
}

// cartLines returns the owner's cart with products populated. Lines whose
// product has been removed are skipped.
func (h *Handler) cartLines(ctx context.Context, owner models.CartOwner) ([]models.CartLine, error) {
	items, err := h.store.CartItems.Find(ctx, owner)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	products, err := h.store.Products.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]models.CartLine, 0, len(items))
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, models.CartLine{ID: item.ID, Quantity: item.Quantity, Product: &p})
	}
	return lines, nil
}

func (h *Handler) AddCartItem(c echo.Context, caller middleware.Caller) error {
	productID, err := h.bindProduct(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	if _, err := h.store.Products.Get(ctx, productID); err != nil {
		return notFound(err, "Product not found")
	}
	if _, err := h.store.CartItems.Increment(ctx, caller.CartOwner(), productID); err != nil {
		return err
	}
	lines, err := h.cartLines(ctx, caller.CartOwner())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lines)
}

func (h *Handler) GetCartItems(c echo.Context, caller middleware.Caller) error {
	ctx, cancel := h.context(c)
	defer cancel()

	lines, err := h.cartLines(ctx, caller.CartOwner())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lines)
}

// DecrementCartItem removes one unit; a line at quantity 1 is deleted.
func (h *Handler) DecrementCartItem(c echo.Context, caller middleware.Caller) error {
	productID, err := h.bindProduct(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	if err := h.store.CartItems.Decrement(ctx, caller.CartOwner(), productID); err != nil {
		return notFound(err, "Cart item not found")
	}
	lines, err := h.cartLines(ctx, caller.CartOwner())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *Handler) DeleteCartItem(c echo.Context, caller middleware.Caller) error {
	productID, err := h.bindProduct(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	if err := h.store.CartItems.Remove(ctx, caller.CartOwner(), productID); err != nil {
		return notFound(err, "Cart item not found")
	}
	lines, err := h.cartLines(ctx, caller.CartOwner())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lines)
}

type wishlistLine struct {
	ID      primitive.ObjectID `json:"id"`
	Product *models.Product    `json:"product"`
}

func (h *Handler) wishlistLines(ctx context.Context, userID primitive.ObjectID) ([]wishlistLine, error) {
	items, err := h.store.Wishlist.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	products, err := h.store.Products.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	lines := make([]wishlistLine, 0, len(items))
	for _, item := range items {
		if p, ok := products[item.ProductID]; ok {
			lines = append(lines, wishlistLine{ID: item.ID, Product: &p})
		}
	}
	return lines, nil
}

// ToggleWishlist adds the product when absent and removes it when present.
func (h *Handler) ToggleWishlist(c echo.Context, caller middleware.Caller) error {
	productID, err := h.bindProduct(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	if _, err := h.store.Products.Get(ctx, productID); err != nil {
		return notFound(err, "Product not found")
	}
	if _, err := h.store.Wishlist.Toggle(ctx, *caller.UserID, productID); err != nil {
		return err
	}
	lines, err := h.wishlistLines(ctx, *caller.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *Handler) GetWishlist(c echo.Context, caller middleware.Caller) error {
	ctx, cancel := h.context(c)
	defer cancel()

	lines, err := h.wishlistLines(ctx, *caller.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lines)
}
