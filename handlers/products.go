package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
)

func (h *Handler) GetCategories(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	categories, err := h.store.Categories.All(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		return utils.NotFound("No categories found")
	}
	return c.JSON(http.StatusOK, categories)
}

// GetCategoryProducts lists the products of the category titled :catPrefix.
func (h *Handler) GetCategoryProducts(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	category, err := h.store.Categories.FindByTitle(ctx, c.Param("catPrefix"))
	if err != nil {
		return notFound(err, "Category not found")
	}
	products, err := h.store.Products.ByCategory(ctx, category.ID)
	if err != nil {
		return err
	}
	if products == nil {
		products = []models.Product{}
	}
	return c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProducts(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	products, err := h.store.Products.All(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return utils.NotFound("No products found")
	}
	return c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProductDetails(c echo.Context) error {
	productID, err := objectID(c.Param("productId"), "product")
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	product, err := h.store.Products.Get(ctx, productID)
	if err != nil {
		return notFound(err, "Product not found")
	}
	details := models.ProductDetails{Product: *product}
	category, err := h.store.Categories.Get(ctx, product.Category)
	switch {
	case err == nil:
		details.Category = category
	case !errors.Is(err, store.ErrNotFound):
		return err
	}
	return c.JSON(http.StatusOK, details)
}
