package memstore

import (
	"context"
	"time"

	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type products struct{ d *db }

func productsOldestFirst(a, b models.Product) bool {
	return !newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
}

func (s *products) Get(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	p, ok := s.d.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *products) GetMany(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	out := make(map[primitive.ObjectID]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.d.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *products) All(_ context.Context) ([]models.Product, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	return sortedValues(s.d.products, productsOldestFirst), nil
}

func (s *products) List(_ context.Context, f store.ProductFilter, page utils.Page) ([]models.Product, int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var matched []models.Product
	for _, p := range sortedValues(s.d.products, productsOldestFirst) {
		if f.Search != "" && !containsFold(p.Title, f.Search) {
			continue
		}
		if f.CategoryID != nil && p.Category != *f.CategoryID {
			continue
		}
		if f.Role != nil && p.Role != *f.Role {
			continue
		}
		matched = append(matched, p)
	}
	return paginate(matched, page), int64(len(matched)), nil
}

func (s *products) ByCategory(_ context.Context, categoryID primitive.ObjectID) ([]models.Product, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var out []models.Product
	for _, p := range sortedValues(s.d.products, productsOldestFirst) {
		if p.Category == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *products) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	ps, err := s.ByCategory(ctx, categoryID)
	return int64(len(ps)), err
}

func (s *products) Create(ctx context.Context, p *models.Product) error {
	defer s.d.lock(ctx)()
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if _, ok := s.d.products[p.ID]; ok {
		return store.ErrDuplicate
	}
	s.d.products[p.ID] = *p
	return nil
}

func (s *products) Update(ctx context.Context, id primitive.ObjectID, u models.ProductUpdate) (*models.Product, error) {
	defer s.d.lock(ctx)()
	p, ok := s.d.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Img != nil {
		p.Img = *u.Img
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Role != nil {
		p.Role = *u.Role
	}
	p.UpdatedAt = time.Now()
	s.d.products[id] = p
	return &p, nil
}

func (s *products) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer s.d.lock(ctx)()
	if _, ok := s.d.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.d.products, id)
	return nil
}

func (s *products) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	defer s.d.lock(ctx)()
	p, ok := s.d.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.Stock < quantity {
		return store.ErrInsufficientStock
	}
	p.Stock -= quantity
	p.UpdatedAt = time.Now()
	s.d.products[id] = p
	return nil
}

type categories struct{ d *db }

func (s *categories) Get(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	c, ok := s.d.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *categories) FindByTitle(_ context.Context, title string) (*models.Category, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	for _, c := range s.d.categories {
		if c.Title == title {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *categories) All(_ context.Context) ([]models.Category, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	return sortedValues(s.d.categories, func(a, b models.Category) bool {
		return !newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	}), nil
}

func (s *categories) titleTaken(title string, except primitive.ObjectID) bool {
	for id, c := range s.d.categories {
		if id != except && c.Title == title {
			return true
		}
	}
	return false
}

func (s *categories) Create(ctx context.Context, c *models.Category) error {
	defer s.d.lock(ctx)()
	if s.titleTaken(c.Title, primitive.NilObjectID) {
		return store.ErrDuplicate
	}
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	s.d.categories[c.ID] = *c
	return nil
}

func (s *categories) Update(ctx context.Context, id primitive.ObjectID, title, img string) (*models.Category, error) {
	defer s.d.lock(ctx)()
	c, ok := s.d.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if title != "" {
		if s.titleTaken(title, id) {
			return nil, store.ErrDuplicate
		}
		c.Title = title
	}
	if img != "" {
		c.Img = img
	}
	c.UpdatedAt = time.Now()
	s.d.categories[id] = c
	return &c, nil
}

func (s *categories) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer s.d.lock(ctx)()
	if _, ok := s.d.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.d.categories, id)
	return nil
}
