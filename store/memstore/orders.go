package memstore

import (
	"context"
	"time"

	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type orders struct{ d *db }

func (s *orders) Insert(ctx context.Context, o *models.Order) error {
	defer s.d.lock(ctx)()
	if o.IdempotencyKey != "" {
		for _, existing := range s.d.orders {
			if existing.UserID == o.UserID && existing.IdempotencyKey == o.IdempotencyKey {
				return store.ErrDuplicate
			}
		}
	}
	stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	s.d.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (s *orders) Get(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	o, ok := s.d.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (s *orders) FindByIdempotencyKey(_ context.Context, userID primitive.ObjectID, key string) (*models.Order, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	for _, o := range s.d.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			o = cloneOrder(o)
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *orders) List(_ context.Context, f store.OrderFilter, page utils.Page) ([]models.Order, int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var matched []models.Order
	all := sortedValues(s.d.orders, func(a, b models.Order) bool {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	for _, o := range all {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if !f.Range.To.IsZero() && !f.Range.Contains(o.CreatedAt) {
			continue
		}
		matched = append(matched, cloneOrder(o))
	}
	return paginate(matched, page), int64(len(matched)), nil
}

func (s *orders) update(ctx context.Context, id primitive.ObjectID, fn func(*models.Order)) (*models.Order, error) {
	defer s.d.lock(ctx)()
	o, ok := s.d.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	fn(&o)
	o.UpdatedAt = time.Now()
	s.d.orders[id] = o
	o = cloneOrder(o)
	return &o, nil
}

func (s *orders) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	return s.update(ctx, id, func(o *models.Order) { o.Status = status })
}

func (s *orders) UpdateDelivery(ctx context.Context, id primitive.ObjectID, d models.DeliveryDetails) (*models.Order, error) {
	return s.update(ctx, id, func(o *models.Order) { o.DeliveryDetails = d })
}

func (s *orders) Count(_ context.Context) (int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	return int64(len(s.d.orders)), nil
}

func (s *orders) Summary(_ context.Context, r utils.Range) (*models.SalesSummary, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	sum := &models.SalesSummary{From: r.From, To: r.To, ByStatus: map[models.OrderStatus]int64{}}
	for _, o := range s.d.orders {
		if !r.Contains(o.CreatedAt) {
			continue
		}
		sum.Orders++
		sum.Revenue += o.TotalAmount
		sum.ByStatus[o.Status]++
	}
	return sum, nil
}

type stats struct{ d *db }

func (s *stats) Record(ctx context.Context, productID primitive.ObjectID, at time.Time, quantity int, amount float64) error {
	defer s.d.lock(ctx)()
	year := at.Year()
	for id, st := range s.d.stats {
		if st.ProductID == productID && st.Year == year {
			st = cloneStat(st)
			st.Record(at, quantity, amount)
			s.d.stats[id] = st
			return nil
		}
	}
	st := models.ProductStat{ID: primitive.NewObjectID(), ProductID: productID, Year: year}
	st.Record(at, quantity, amount)
	s.d.stats[st.ID] = st
	return nil
}

func (s *stats) Get(_ context.Context, productID primitive.ObjectID, year int) (*models.ProductStat, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	for _, st := range s.d.stats {
		if st.ProductID == productID && st.Year == year {
			st = cloneStat(st)
			return &st, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *stats) ByProducts(_ context.Context, productIDs []primitive.ObjectID) ([]models.ProductStat, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	want := make(map[primitive.ObjectID]bool, len(productIDs))
	for _, id := range productIDs {
		want[id] = true
	}
	var out []models.ProductStat
	all := sortedValues(s.d.stats, func(a, b models.ProductStat) bool {
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		return a.ProductID.Hex() < b.ProductID.Hex()
	})
	for _, st := range all {
		if want[st.ProductID] {
			out = append(out, cloneStat(st))
		}
	}
	return out, nil
}
