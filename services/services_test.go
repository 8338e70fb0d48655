package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/store/memstore"
	"github.com/shopnest/shopnest-backend-go/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2026, time.March, 4, 15, 30, 0, 0, time.UTC)

type recorder struct {
	mu       sync.Mutex
	placed   int
	units    int
	rejected map[string]int
}

func (r *recorder) OrderPlaced(units int, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placed++
	r.units += units
}

func (r *recorder) CheckoutRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejected == nil {
		r.rejected = map[string]int{}
	}
	r.rejected[reason]++
}

type fixture struct {
	store  *store.Store
	orders *OrderService
	rec    *recorder
	userID primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memstore.New()
	rec := &recorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		store:  s,
		orders: NewOrderService(s, rec, logger).WithClock(func() time.Time { return fixedNow }),
		rec:    rec,
		userID: primitive.NewObjectID(),
	}
}

func (f *fixture) product(t *testing.T, title string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Title: title, Price: price, Stock: stock}
	require.NoError(t, f.store.Products.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id primitive.ObjectID) int {
	t.Helper()
	p, err := f.store.Products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) addToCart(t *testing.T, productID primitive.ObjectID) {
	t.Helper()
	_, err := f.store.CartItems.Increment(context.Background(), models.CartOwner{UserID: &f.userID}, productID)
	require.NoError(t, err)
}

func (f *fixture) cartSize(t *testing.T) int {
	t.Helper()
	lines, err := f.store.CartItems.Find(context.Background(), models.CartOwner{UserID: &f.userID})
	require.NoError(t, err)
	return len(lines)
}

var delivery = models.DeliveryDetails{
	Name:        "Ada Lovelace",
	City:        "London",
	Country:     "UK",
	Email:       "ada@example.com",
	PhoneNumber: "+44 20 7946 0000",
	Address:     "12 St James's Square",
}

func appErr(t *testing.T, err error) *utils.AppError {
	t.Helper()
	var e *utils.AppError
	require.True(t, errors.As(err, &e), "expected AppError, got %v", err)
	return e
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	return appErr(t, err).Status
}

func TestPlaceOrderScenario(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 10, 5)
	b := f.product(t, "B", 5, 3)
	f.addToCart(t, a.ID)
	f.addToCart(t, b.ID)

	order, created, err := f.orders.PlaceOrder(context.Background(), PlaceOrder{
		UserID:   f.userID,
		Lines:    []OrderLine{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 1}},
		Delivery: delivery,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 25.0, order.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.Len(t, order.CartItems, 2)
	assert.Equal(t, "A", order.CartItems[0].Title)

	assert.Equal(t, 3, f.stock(t, a.ID))
	assert.Equal(t, 2, f.stock(t, b.ID))
	assert.Zero(t, f.cartSize(t))

	stat, err := f.store.Stats.Get(context.Background(), a.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, stat.YearlyTotalSold)
	assert.Equal(t, 20.0, stat.YearlySalesTotal)
	require.Len(t, stat.DailyData, 1)
	assert.Equal(t, "2026-03-04", stat.DailyData[0].Date)
	require.Len(t, stat.MonthlyData, 1)
	assert.Equal(t, "March", stat.MonthlyData[0].Month)

	assert.Equal(t, 1, f.rec.placed)
	assert.Equal(t, 3, f.rec.units)
}

func TestPlaceOrderTotalIsExactInCents(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Pencil", 0.1, 10)

	order, _, err := f.orders.PlaceOrder(context.Background(), PlaceOrder{
		UserID:   f.userID,
		Lines:    []OrderLine{{ProductID: p.ID, Quantity: 3}},
		Delivery: delivery,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.3, order.TotalAmount)
}

func TestPlaceOrderShortfallMutatesNothing(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 10, 5)
	b := f.product(t, "B", 5, 1)
	f.addToCart(t, a.ID)

	_, _, err := f.orders.PlaceOrder(context.Background(), PlaceOrder{
		UserID:   f.userID,
		Lines:    []OrderLine{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 2}},
		Delivery: delivery,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Equal(t, "Insufficient stock for product "+b.ID.Hex(), appErr(t, err).Message)

	assert.Equal(t, 5, f.stock(t, a.ID))
	assert.Equal(t, 1, f.stock(t, b.ID))
	assert.Equal(t, 1, f.cartSize(t))
	n, err := f.store.Orders.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = f.store.Stats.Get(context.Background(), a.ID, 2026)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, f.rec.rejected["insufficient_stock"])
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	f := newFixture(t)
	missing := primitive.NewObjectID()

	_, _, err := f.orders.PlaceOrder(context.Background(), PlaceOrder{
		UserID:   f.userID,
		Lines:    []OrderLine{{ProductID: missing, Quantity: 1}},
		Delivery: delivery,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Contains(t, err.Error(), missing.Hex())
}

func TestPlaceOrderValidatesLines(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 1, 1)

	for name, lines := range map[string][]OrderLine{
		"empty":         nil,
		"zero quantity": {{ProductID: p.ID, Quantity: 0}},
		"no product":    {{Quantity: 1}},
	} {
		_, _, err := f.orders.PlaceOrder(context.Background(), PlaceOrder{UserID: f.userID, Lines: lines, Delivery: delivery})
		require.Error(t, err, name)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err), name)
	}
	assert.Equal(t, 1, f.stock(t, p.ID))
}

func TestPlaceOrderMergesRepeatedProducts(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 4, 3)

	_, _, err := f.orders.PlaceOrder(context.Background(), PlaceOrder{
		UserID:   f.userID,
		Lines:    []OrderLine{{ProductID: p.ID, Quantity: 2}, {ProductID: p.ID, Quantity: 2}},
		Delivery: delivery,
	})
	require.Error(t, err, "4 units merged exceed a stock of 3")

	order, _, err := f.orders.PlaceOrder(context.Background(), PlaceOrder{
		UserID:   f.userID,
		Lines:    []OrderLine{{ProductID: p.ID, Quantity: 1}, {ProductID: p.ID, Quantity: 2}},
		Delivery: delivery,
	})
	require.NoError(t, err)
	require.Len(t, order.CartItems, 1)
	assert.Equal(t, 3, order.CartItems[0].Quantity)
	assert.Equal(t, 12.0, order.TotalAmount)
	assert.Zero(t, f.stock(t, p.ID))
}

func TestPlaceOrderIdempotentRetry(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 10, 5)
	in := PlaceOrder{
		UserID:         f.userID,
		Lines:          []OrderLine{{ProductID: p.ID, Quantity: 2}},
		Delivery:       delivery,
		IdempotencyKey: "checkout-1",
	}

	first, created, err := f.orders.PlaceOrder(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := f.orders.PlaceOrder(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 3, f.stock(t, p.ID))

	stat, err := f.store.Stats.Get(context.Background(), p.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, stat.YearlyTotalSold)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Limited", 1, 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.orders.PlaceOrder(context.Background(), PlaceOrder{
				UserID:   primitive.NewObjectID(),
				Lines:    []OrderLine{{ProductID: p.ID, Quantity: 1}},
				Delivery: delivery,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Zero(t, f.stock(t, p.ID))
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 1, 1)
	order, _, err := f.orders.PlaceOrder(context.Background(), PlaceOrder{
		UserID: f.userID, Lines: []OrderLine{{ProductID: p.ID, Quantity: 1}}, Delivery: delivery,
	})
	require.NoError(t, err)

	_, err = f.orders.SetStatus(context.Background(), order.ID, "Lost")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = f.orders.SetStatus(context.Background(), primitive.NewObjectID(), models.OrderStatusShipped)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	// no ordering is enforced beyond the allow-list
	updated, err := f.orders.SetStatus(context.Background(), order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, updated.Status)
}

func TestUpdateOwnOrder(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 1, 5)
	place := func() *models.Order {
		o, _, err := f.orders.PlaceOrder(context.Background(), PlaceOrder{
			UserID: f.userID, Lines: []OrderLine{{ProductID: p.ID, Quantity: 1}}, Delivery: delivery,
		})
		require.NoError(t, err)
		return o
	}
	status := func(s models.OrderStatus) *models.OrderStatus { return &s }
	ctx := context.Background()

	order := place()
	_, err := f.orders.UpdateOwnOrder(ctx, f.userID, order.ID, OrderChange{Status: status("Lost")})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	_, err = f.orders.UpdateOwnOrder(ctx, f.userID, order.ID, OrderChange{Status: status(models.OrderStatusShipped)})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	_, err = f.orders.UpdateOwnOrder(ctx, primitive.NewObjectID(), order.ID, OrderChange{Status: status(models.OrderStatusCancelled)})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	moved := delivery
	moved.City = "Bath"
	updated, err := f.orders.UpdateOwnOrder(ctx, f.userID, order.ID, OrderChange{Delivery: &moved})
	require.NoError(t, err)
	assert.Equal(t, "Bath", updated.DeliveryDetails.City)

	updated, err = f.orders.UpdateOwnOrder(ctx, f.userID, order.ID, OrderChange{Status: status(models.OrderStatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)

	shipped := place()
	_, err = f.orders.SetStatus(ctx, shipped.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	_, err = f.orders.UpdateOwnOrder(ctx, f.userID, shipped.ID, OrderChange{Status: status(models.OrderStatusCancelled)})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	_, err = f.orders.UpdateOwnOrder(ctx, f.userID, shipped.ID, OrderChange{Delivery: &moved})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}
