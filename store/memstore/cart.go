package memstore

import (
	"context"
	"time"

	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type cartItems struct{ d *db }

// owns reports whether the line belongs to the owner: a user line of the
// signed-in user, or an anonymous line of the same guest session.
func owns(item models.CartItem, owner models.CartOwner) bool {
	if owner.UserID != nil && item.UserID != nil && *item.UserID == *owner.UserID {
		return true
	}
	return item.UserID == nil && owner.SessionID != "" && item.SessionID == owner.SessionID
}

// find prefers the user's own line over a guest line for the same product.
func (s *cartItems) find(owner models.CartOwner, productID primitive.ObjectID) (models.CartItem, bool) {
	var guest *models.CartItem
	for _, item := range s.d.cart {
		if item.ProductID != productID || !owns(item, owner) {
			continue
		}
		if item.UserID != nil {
			return item, true
		}
		item := item
		guest = &item
	}
	if guest != nil {
		return *guest, true
	}
	return models.CartItem{}, false
}

func (s *cartItems) Find(_ context.Context, owner models.CartOwner) ([]models.CartItem, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var out []models.CartItem
	all := sortedValues(s.d.cart, func(a, b models.CartItem) bool {
		return !newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	for _, item := range all {
		if owns(item, owner) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *cartItems) Increment(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID) (*models.CartItem, error) {
	defer s.d.lock(ctx)()
	now := time.Now()
	item, ok := s.find(owner, productID)
	if ok {
		if item.UserID == nil {
			item.UserID = owner.UserID
		}
		item.Quantity++
		item.UpdatedAt = now
	} else {
		item = models.CartItem{
			ID:        primitive.NewObjectID(),
			UserID:    owner.UserID,
			SessionID: owner.SessionID,
			ProductID: productID,
			Quantity:  1,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	s.d.cart[item.ID] = item
	return &item, nil
}

func (s *cartItems) Decrement(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID) error {
	defer s.d.lock(ctx)()
	item, ok := s.find(owner, productID)
	if !ok {
		return store.ErrNotFound
	}
	if item.Quantity <= 1 {
		delete(s.d.cart, item.ID)
		return nil
	}
	item.Quantity--
	item.UpdatedAt = time.Now()
	s.d.cart[item.ID] = item
	return nil
}

func (s *cartItems) Remove(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID) error {
	defer s.d.lock(ctx)()
	item, ok := s.find(owner, productID)
	if !ok {
		return store.ErrNotFound
	}
	delete(s.d.cart, item.ID)
	return nil
}

func (s *cartItems) Clear(ctx context.Context, owner models.CartOwner) (int64, error) {
	defer s.d.lock(ctx)()
	var n int64
	for id, item := range s.d.cart {
		if owns(item, owner) {
			delete(s.d.cart, id)
			n++
		}
	}
	return n, nil
}

func (s *cartItems) RemoveProduct(ctx context.Context, productID primitive.ObjectID) error {
	defer s.d.lock(ctx)()
	for id, item := range s.d.cart {
		if item.ProductID == productID {
			delete(s.d.cart, id)
		}
	}
	return nil
}

type wishlist struct{ d *db }

func (s *wishlist) Toggle(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	defer s.d.lock(ctx)()
	for id, w := range s.d.wishlist {
		if w.UserID == userID && w.ProductID == productID {
			delete(s.d.wishlist, id)
			return false, nil
		}
	}
	item := models.WishlistItem{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}
	s.d.wishlist[item.ID] = item
	return true, nil
}

func (s *wishlist) List(_ context.Context, userID primitive.ObjectID) ([]models.WishlistItem, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var out []models.WishlistItem
	all := sortedValues(s.d.wishlist, func(a, b models.WishlistItem) bool {
		return !newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	for _, w := range all {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *wishlist) RemoveProduct(ctx context.Context, productID primitive.ObjectID) error {
	defer s.d.lock(ctx)()
	for id, w := range s.d.wishlist {
		if w.ProductID == productID {
			delete(s.d.wishlist, id)
		}
	}
	return nil
}
