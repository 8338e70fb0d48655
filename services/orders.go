// Package services holds the workflows that span several collections.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopnest/shopnest-backend-go/metrics"
	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderLine struct {
	ProductID primitive.ObjectID
	Quantity  int
}

type PlaceOrder struct {
	UserID         primitive.ObjectID
	SessionID      string // guest session whose anonymous cart lines also belong to the caller
	Lines          []OrderLine
	Delivery       models.DeliveryDetails
	IdempotencyKey string
}

type OrderService struct {
	store   *store.Store
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

func NewOrderService(s *store.Store, rec metrics.Recorder, logger *slog.Logger) *OrderService {
	return &OrderService{store: s, metrics: rec, logger: logger, now: time.Now}
}

// WithClock replaces the wall clock used to stamp orders and statistics.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// mergeLines sums quantities of repeated products, keeping first-seen order.
func mergeLines(lines []OrderLine) ([]OrderLine, error) {
	if len(lines) == 0 {
		return nil, utils.BadRequest("Order must contain at least one item")
	}
	merged := make([]OrderLine, 0, len(lines))
	index := make(map[primitive.ObjectID]int, len(lines))
	for _, l := range lines {
		if l.ProductID.IsZero() {
			return nil, utils.BadRequest("Invalid product ID")
		}
		if l.Quantity < 1 {
			return nil, utils.BadRequest(fmt.Sprintf("Quantity for product %s must be at least 1", l.ProductID.Hex()))
		}
		if i, ok := index[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

// PlaceOrder turns lines into a Pending order. Stock checks, cart clearing,
// the order insert, stock decrements and statistics all commit together or
// not at all. created is false when an earlier order with the same
// idempotency key is returned instead.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrder) (order *models.Order, created bool, err error) {
	reason := metrics.ReasonError
	defer func() {
		if err != nil {
			var appErr *utils.AppError
			if !errors.As(err, &appErr) {
				reason = metrics.ReasonError
			}
			s.metrics.CheckoutRejected(reason)
		}
	}()

	lines, err := mergeLines(in.Lines)
	if err != nil {
		reason = metrics.ReasonInvalid
		return nil, false, err
	}

	if in.IdempotencyKey != "" {
		existing, err := s.store.Orders.FindByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, fmt.Errorf("lookup idempotency key: %w", err)
		}
	}

	now := s.now()
	var placed *models.Order
	units := 0
	err = s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		units = 0
		ids := make([]primitive.ObjectID, len(lines))
		for i, l := range lines {
			ids[i] = l.ProductID
		}
		products, err := s.store.Products.GetMany(ctx, ids)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		amounts := make([]decimal.Decimal, 0, len(lines))
		for _, l := range lines {
			p, ok := products[l.ProductID]
			if !ok {
				reason = metrics.ReasonProductMissing
				return utils.BadRequest(fmt.Sprintf("Product with ID %s not found.", l.ProductID.Hex()))
			}
			if p.Stock < l.Quantity {
				reason = metrics.ReasonInsufficientStock
				return utils.BadRequest(fmt.Sprintf("Insufficient stock for product %s", l.ProductID.Hex()))
			}
			amount := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
			total = total.Add(amount)
			amounts = append(amounts, amount)
			items = append(items, models.OrderItem{
				ProductID: p.ID,
				Title:     p.Title,
				Img:       p.Img,
				Price:     p.Price,
				Quantity:  l.Quantity,
			})
		}

		owner := models.CartOwner{UserID: &in.UserID, SessionID: in.SessionID}
		if _, err := s.store.CartItems.Clear(ctx, owner); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		order := &models.Order{
			UserID:          in.UserID,
			CartItems:       items,
			DeliveryDetails: in.Delivery,
			TotalAmount:     total.Round(2).InexactFloat64(),
			Status:          models.OrderStatusPending,
			IdempotencyKey:  in.IdempotencyKey,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.store.Orders.Insert(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i, item := range items {
			err := s.store.Products.DecrementStock(ctx, item.ProductID, item.Quantity)
			if errors.Is(err, store.ErrInsufficientStock) || errors.Is(err, store.ErrNotFound) {
				reason = metrics.ReasonInsufficientStock
				return utils.BadRequest(fmt.Sprintf("Insufficient stock for product %s", item.ProductID.Hex()))
			}
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if err := s.store.Stats.Record(ctx, item.ProductID, now, item.Quantity, amounts[i].Round(2).InexactFloat64()); err != nil {
				return fmt.Errorf("record stats: %w", err)
			}
			units += item.Quantity
		}

		placed = order
		return nil
	})

	if errors.Is(err, store.ErrDuplicate) && in.IdempotencyKey != "" {
		// a concurrent retry with the same key committed first
		existing, findErr := s.store.Orders.FindByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
		if findErr == nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, err
	}

	s.metrics.OrderPlaced(units, placed.TotalAmount)
	s.logger.Info("order placed",
		"order_id", placed.ID.Hex(),
		"user_id", in.UserID.Hex(),
		"units", units,
		"total", placed.TotalAmount,
	)
	return placed, true, nil
}

// SetStatus writes any allow-listed status; admins may move orders freely.
func (s *OrderService) SetStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, utils.BadRequest(fmt.Sprintf("Invalid status %q", status))
	}
	order, err := s.store.Orders.UpdateStatus(ctx, orderID, status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFound("Order not found")
	}
	return order, err
}

// OrderChange is an owner's edit of their order. Nil fields are left untouched.
type OrderChange struct {
	Status   *models.OrderStatus
	Delivery *models.DeliveryDetails
}

// UpdateOwnOrder applies an owner's edit: delivery details while Pending, and
// cancellation while Pending or Processing.
func (s *OrderService) UpdateOwnOrder(ctx context.Context, userID, orderID primitive.ObjectID, change OrderChange) (*models.Order, error) {
	if change.Status != nil && !change.Status.Valid() {
		return nil, utils.BadRequest(fmt.Sprintf("Invalid status %q", *change.Status))
	}
	if change.Status != nil && *change.Status != models.OrderStatusCancelled {
		return nil, utils.Forbidden("You can only cancel your order")
	}

	order, err := s.store.Orders.Get(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, utils.Forbidden("You can only update your own orders")
	}

	if change.Delivery != nil && order.Status != models.OrderStatusPending {
		return nil, utils.Conflict("Delivery details can only be changed while the order is Pending")
	}
	if change.Status != nil && order.Status != models.OrderStatusPending && order.Status != models.OrderStatusProcessing {
		return nil, utils.Conflict(fmt.Sprintf("An order that is %s can no longer be cancelled", order.Status))
	}

	if change.Delivery != nil {
		if order, err = s.store.Orders.UpdateDelivery(ctx, orderID, *change.Delivery); err != nil {
			return nil, err
		}
	}
	if change.Status != nil {
		if order, err = s.store.Orders.UpdateStatus(ctx, orderID, *change.Status); err != nil {
			return nil, err
		}
	}
	return order, nil
}
