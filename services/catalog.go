package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Catalog keeps products, categories and the documents that reference them consistent.
type Catalog struct {
	store *store.Store
}

func NewCatalog(s *store.Store) *Catalog {
	return &Catalog{store: s}
}

// CategoryWithProducts derives the category's product list from Product.Category.
func (c *Catalog) CategoryWithProducts(ctx context.Context, cat models.Category) (*models.CategoryWithProducts, error) {
	products, err := c.store.Products.ByCategory(ctx, cat.ID)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return &models.CategoryWithProducts{Category: cat, Products: products}, nil
}

func (c *Catalog) CreateCategory(ctx context.Context, cat *models.Category) error {
	err := c.store.Categories.Create(ctx, cat)
	if errors.Is(err, store.ErrDuplicate) {
		return utils.Conflict(fmt.Sprintf("Category %q already exists", cat.Title))
	}
	return err
}

func (c *Catalog) UpdateCategory(ctx context.Context, id primitive.ObjectID, title, img string) (*models.Category, error) {
	cat, err := c.store.Categories.Update(ctx, id, title, img)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, utils.NotFound("Category not found")
	case errors.Is(err, store.ErrDuplicate):
		return nil, utils.Conflict(fmt.Sprintf("Category %q already exists", title))
	}
	return cat, err
}

// DeleteCategory refuses while any product still references the category.
func (c *Catalog) DeleteCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var deleted *models.Category
	err := c.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		cat, err := c.store.Categories.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound("Category not found")
		}
		if err != nil {
			return err
		}
		n, err := c.store.Products.CountByCategory(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return utils.Conflict(fmt.Sprintf("Category still has %d products", n))
		}
		if err := c.store.Categories.Delete(ctx, id); err != nil {
			return err
		}
		deleted = cat
		return nil
	})
	return deleted, err
}

// CreateProduct requires the referenced category to exist.
func (c *Catalog) CreateProduct(ctx context.Context, p *models.Product) error {
	if _, err := c.store.Categories.Get(ctx, p.Category); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.BadRequest("Category not found")
		}
		return err
	}
	return c.store.Products.Create(ctx, p)
}

func (c *Catalog) UpdateProduct(ctx context.Context, id primitive.ObjectID, u models.ProductUpdate) (*models.Product, error) {
	if u.Category != nil {
		if _, err := c.store.Categories.Get(ctx, *u.Category); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, utils.BadRequest("Category not found")
			}
			return nil, err
		}
	}
	p, err := c.store.Products.Update(ctx, id, u)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFound("Product not found")
	}
	return p, err
}

// DeleteProduct also drops cart lines and wishlist entries that reference the product.
func (c *Catalog) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	return c.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		err := c.store.Products.Delete(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound("Product not found")
		}
		if err != nil {
			return err
		}
		if err := c.store.CartItems.RemoveProduct(ctx, id); err != nil {
			return fmt.Errorf("remove cart lines: %w", err)
		}
		if err := c.store.Wishlist.RemoveProduct(ctx, id); err != nil {
			return fmt.Errorf("remove wishlist entries: %w", err)
		}
		return nil
	})
}
