package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopnest/shopnest-backend-go/middleware"
	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) AdminGetCategories(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	categories, err := h.store.Categories.All(ctx)
	if err != nil {
		return err
	}
	out := make([]models.CategoryWithProducts, 0, len(categories))
	for _, cat := range categories {
		withProducts, err := h.catalog.CategoryWithProducts(ctx, cat)
		if err != nil {
			return err
		}
		out = append(out, *withProducts)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) AdminCreateCategory(c echo.Context) error {
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return utils.BadRequest("title is required")
	}

	ctx, cancel := h.context(c)
	defer cancel()

	img, err := h.uploadImage(ctx, c, "imageFile", true)
	if err != nil {
		return err
	}
	category := &models.Category{Title: title, Img: img}
	if err := h.catalog.CreateCategory(ctx, category); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *Handler) AdminUpdateCategory(c echo.Context) error {
	categoryID, err := objectID(c.Param("id"), "category")
	if err != nil {
		return err
	}
	title := strings.TrimSpace(c.FormValue("title"))

	ctx, cancel := h.context(c)
	defer cancel()

	img, err := h.uploadImage(ctx, c, "imageFile", false)
	if err != nil {
		return err
	}
	if title == "" && img == "" {
		return utils.BadRequest("Nothing to update")
	}
	category, err := h.catalog.UpdateCategory(ctx, categoryID, title, img)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category)
}

func (h *Handler) AdminDeleteCategory(c echo.Context) error {
	categoryID, err := objectID(c.Param("id"), "category")
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	category, err := h.catalog.DeleteCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category)
}

// AdminGetProducts pages through products. category accepts an id or a title.
func (h *Handler) AdminGetProducts(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	f := store.ProductFilter{Search: strings.TrimSpace(c.QueryParam("search"))}
	if raw, ok := filterValue(c.QueryParam("category")); ok {
		if id, err := primitive.ObjectIDFromHex(raw); err == nil {
			f.CategoryID = &id
		} else {
			category, err := h.store.Categories.FindByTitle(ctx, raw)
			if err != nil {
				return notFound(err, "Category not found")
			}
			f.CategoryID = &category.ID
		}
	}
	if raw, ok := filterValue(c.QueryParam("role")); ok {
		role := models.ProductTag(raw)
		if !role.Valid() {
			return utils.BadRequest(fmt.Sprintf("Invalid role %q", raw))
		}
		f.Role = &role
	}

	page := pageOf(c)
	products, total, err := h.store.Products.List(ctx, f, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"products":   products,
		"pagination": utils.NewPagination(page, total),
	})
}

// productForm reads the multipart product fields; only present fields are set.
func productForm(c echo.Context) (models.ProductUpdate, error) {
	var u models.ProductUpdate
	if v := strings.TrimSpace(c.FormValue("title")); v != "" {
		u.Title = &v
	}
	if v := c.FormValue("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			return u, utils.BadRequest("price must be a non-negative number")
		}
		u.Price = &price
	}
	if v := c.FormValue("category"); v != "" {
		id, err := objectID(v, "category")
		if err != nil {
			return u, err
		}
		u.Category = &id
	}
	if v := c.FormValue("stock"); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil || stock < 0 {
			return u, utils.BadRequest("stock must be a non-negative integer")
		}
		u.Stock = &stock
	}
	// an empty role clears the tag, so presence is checked on the parsed form
	if _, ok := c.Request().Form["role"]; ok {
		role := models.ProductTag(c.FormValue("role"))
		if !role.Valid() {
			return u, utils.BadRequest(fmt.Sprintf("Invalid role %q", role))
		}
		u.Role = &role
	}
	return u, nil
}

func (h *Handler) AdminCreateProduct(c echo.Context) error {
	u, err := productForm(c)
	if err != nil {
		return err
	}
	if u.Title == nil || u.Price == nil || u.Category == nil || u.Stock == nil {
		return utils.BadRequest("title, price, category and stock are required")
	}

	ctx, cancel := h.context(c)
	defer cancel()

	img, err := h.uploadImage(ctx, c, "imageFile", true)
	if err != nil {
		return err
	}
	product := &models.Product{
		Title:    *u.Title,
		Price:    *u.Price,
		Category: *u.Category,
		Stock:    *u.Stock,
		Img:      img,
	}
	if u.Role != nil {
		product.Role = *u.Role
	}
	if err := h.catalog.CreateProduct(ctx, product); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *Handler) AdminUpdateProduct(c echo.Context) error {
	productID, err := objectID(c.Param("id"), "product")
	if err != nil {
		return err
	}
	u, err := productForm(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	img, err := h.uploadImage(ctx, c, "imageFile", false)
	if err != nil {
		return err
	}
	if img != "" {
		u.Img = &img
	}
	product, err := h.catalog.UpdateProduct(ctx, productID, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

func (h *Handler) AdminDeleteProduct(c echo.Context) error {
	productID, err := objectID(c.Param("id"), "product")
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	if err := h.catalog.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func (h *Handler) GetProductStats(c echo.Context) error {
	productID, err := objectID(c.Param("id"), "product")
	if err != nil {
		return err
	}
	year := 0
	if raw := c.QueryParam("year"); raw != "" {
		if year, err = strconv.Atoi(raw); err != nil || year < 1 {
			return utils.BadRequest("year must be a positive integer")
		}
	}

	ctx, cancel := h.context(c)
	defer cancel()

	stat, err := h.dashboard.ProductStats(ctx, productID, year)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stat)
}

func (h *Handler) GetProductStatsByCategory(c echo.Context) error {
	categoryID, err := objectID(c.Param("categoryId"), "category")
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	views, err := h.dashboard.StatsByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) GetOverview(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	overview, err := h.dashboard.Overview(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, overview)
}

func (h *Handler) GetSales(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	summary, err := h.dashboard.Sales(ctx, c.QueryParam("period"), c.QueryParam("months"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetCustomers(c echo.Context) error {
	f := store.UserFilter{Search: strings.TrimSpace(c.QueryParam("search"))}
	if raw, ok := filterValue(c.QueryParam("filterByRole")); ok {
		role := models.Role(raw)
		if !role.Valid() {
			return utils.BadRequest(fmt.Sprintf("Invalid role %q", raw))
		}
		f.Role = &role
	}
	switch c.QueryParam("createdAt") {
	case "", "latest":
	case "oldest":
		f.OldestFirst = true
	default:
		return utils.BadRequest("createdAt must be latest or oldest")
	}

	ctx, cancel := h.context(c)
	defer cancel()

	page := pageOf(c)
	customers, total, err := h.store.Users.List(ctx, f, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"customers":  customers,
		"pagination": utils.NewPagination(page, total),
	})
}

type roleRequest struct {
	Role models.Role `json:"role" validate:"required"`
}

// UpdateCustomerRole changes a user's role. Granting or revoking an admin role
// is reserved to a superAdmin.
func (h *Handler) UpdateCustomerRole(c echo.Context, caller middleware.Caller) error {
	userID, err := objectID(c.Param("id"), "user")
	if err != nil {
		return err
	}
	var req roleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if !req.Role.Valid() {
		return utils.BadRequest(fmt.Sprintf("Invalid role %q", req.Role))
	}

	ctx, cancel := h.context(c)
	defer cancel()

	target, err := h.store.Users.Get(ctx, userID)
	if err != nil {
		return notFound(err, "User not found")
	}
	if (req.Role.IsAdmin() || target.Role.IsAdmin()) && caller.Role != models.RoleSuperAdmin {
		return utils.Forbidden("Only a superAdmin can change admin roles")
	}
	user, err := h.store.Users.UpdateRole(ctx, userID, req.Role)
	if err != nil {
		return notFound(err, "User not found")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteCustomer(c echo.Context, caller middleware.Caller) error {
	userID, err := objectID(c.Param("id"), "user")
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	target, err := h.store.Users.Get(ctx, userID)
	if err != nil {
		return notFound(err, "User not found")
	}
	if target.Role.IsAdmin() && caller.Role != models.RoleSuperAdmin {
		return utils.Forbidden("Only a superAdmin can delete an admin")
	}
	user, err := h.store.Users.Delete(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return utils.NotFound("User not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
