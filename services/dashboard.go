package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dashboard answers the admin reporting queries.
type Dashboard struct {
	store *store.Store
	now   func() time.Time
}

func NewDashboard(s *store.Store) *Dashboard {
	return &Dashboard{store: s, now: time.Now}
}

func (d *Dashboard) WithClock(now func() time.Time) *Dashboard {
	d.now = now
	return d
}

// Overview counts users and orders and sums every order total. An empty
// shop reports zeros.
func (d *Dashboard) Overview(ctx context.Context) (*models.Overview, error) {
	users, err := d.store.Users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	summary, err := d.store.Orders.Summary(ctx, utils.Range{To: d.now()})
	if err != nil {
		return nil, fmt.Errorf("summarize orders: %w", err)
	}
	return &models.Overview{
		TotalUsers:       users,
		TotalOrders:      summary.Orders,
		TotalPriceOrders: roundCents(summary.Revenue),
	}, nil
}

// Sales summarizes orders placed inside the named period.
func (d *Dashboard) Sales(ctx context.Context, period, months string) (*models.SalesSummary, error) {
	r, err := utils.PeriodRange(d.now(), period, months)
	if err != nil {
		return nil, utils.BadRequest(err.Error())
	}
	summary, err := d.store.Orders.Summary(ctx, r)
	if err != nil {
		return nil, err
	}
	summary.Revenue = roundCents(summary.Revenue)
	return summary, nil
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ProductStats returns the rollup of one product for year, or the current year when zero.
func (d *Dashboard) ProductStats(ctx context.Context, productID primitive.ObjectID, year int) (*models.ProductStat, error) {
	if year == 0 {
		year = d.now().Year()
	}
	stat, err := d.store.Stats.Get(ctx, productID, year)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFound("No stats found for this product")
	}
	return stat, err
}

// StatsByCategory returns the rollups of every product in the category with the product populated.
func (d *Dashboard) StatsByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]models.ProductStatView, error) {
	products, err := d.store.Products.ByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, utils.NotFound("No products found for this category")
	}

	ids := make([]primitive.ObjectID, len(products))
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for i, p := range products {
		ids[i] = p.ID
		byID[p.ID] = p
	}
	stats, err := d.store.Stats.ByProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.ProductStatView, 0, len(stats))
	for _, st := range stats {
		p := byID[st.ProductID]
		views = append(views, models.ProductStatView{ProductStat: st, Product: &p})
	}
	return views, nil
}
