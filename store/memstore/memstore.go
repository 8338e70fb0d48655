// Package memstore is an in-process implementation of the store contracts,
// used for local runs without MongoDB and by the handler and service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type db struct {
	mu sync.RWMutex
	// tx is held exclusively by a running transaction and shared by
	// writes outside one, so a rollback never discards a foreign write.
	tx sync.RWMutex

	products   map[primitive.ObjectID]models.Product
	categories map[primitive.ObjectID]models.Category
	cart       map[primitive.ObjectID]models.CartItem
	wishlist   map[primitive.ObjectID]models.WishlistItem
	orders     map[primitive.ObjectID]models.Order
	stats      map[primitive.ObjectID]models.ProductStat
	users      map[primitive.ObjectID]models.User
	mails      map[primitive.ObjectID]models.Mail
}

// New returns an empty in-memory store.
func New() *store.Store {
	d := &db{
		products:   make(map[primitive.ObjectID]models.Product),
		categories: make(map[primitive.ObjectID]models.Category),
		cart:       make(map[primitive.ObjectID]models.CartItem),
		wishlist:   make(map[primitive.ObjectID]models.WishlistItem),
		orders:     make(map[primitive.ObjectID]models.Order),
		stats:      make(map[primitive.ObjectID]models.ProductStat),
		users:      make(map[primitive.ObjectID]models.User),
		mails:      make(map[primitive.ObjectID]models.Mail),
	}
	return &store.Store{
		Products:   &products{d},
		Categories: &categories{d},
		CartItems:  &cartItems{d},
		Wishlist:   &wishlist{d},
		Orders:     &orders{d},
		Stats:      &stats{d},
		Users:      &users{d},
		Mails:      &mails{d},
		Tx:         &transactor{d},
	}
}

type snapshot struct {
	products   map[primitive.ObjectID]models.Product
	categories map[primitive.ObjectID]models.Category
	cart       map[primitive.ObjectID]models.CartItem
	wishlist   map[primitive.ObjectID]models.WishlistItem
	orders     map[primitive.ObjectID]models.Order
	stats      map[primitive.ObjectID]models.ProductStat
	users      map[primitive.ObjectID]models.User
	mails      map[primitive.ObjectID]models.Mail
}

func (d *db) snapshot() snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return snapshot{
		products:   cloneMap(d.products, same[models.Product]),
		categories: cloneMap(d.categories, same[models.Category]),
		cart:       cloneMap(d.cart, same[models.CartItem]),
		wishlist:   cloneMap(d.wishlist, same[models.WishlistItem]),
		orders:     cloneMap(d.orders, cloneOrder),
		stats:      cloneMap(d.stats, cloneStat),
		users:      cloneMap(d.users, same[models.User]),
		mails:      cloneMap(d.mails, cloneMail),
	}
}

func (d *db) restore(s snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.products = s.products
	d.categories = s.categories
	d.cart = s.cart
	d.wishlist = s.wishlist
	d.orders = s.orders
	d.stats = s.stats
	d.users = s.users
	d.mails = s.mails
}

type txKey struct{}

// lock takes the write lock and returns its release. Writes outside a
// transaction wait for a running one to finish first.
func (d *db) lock(ctx context.Context) func() {
	inTx := ctx.Value(txKey{}) == d
	if !inTx {
		d.tx.RLock()
	}
	d.mu.Lock()
	return func() {
		d.mu.Unlock()
		if !inTx {
			d.tx.RUnlock()
		}
	}
}

// transactor serializes transactions and rolls back to a snapshot on error.
// Writes inside fn must use the context it is given.
type transactor struct{ d *db }

func (t *transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == t.d {
		return fn(ctx)
	}
	t.d.tx.Lock()
	defer t.d.tx.Unlock()

	snap := t.d.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, t.d)); err != nil {
		t.d.restore(snap)
		return err
	}
	return nil
}

func cloneMap[V any](m map[primitive.ObjectID]V, cp func(V) V) map[primitive.ObjectID]V {
	out := make(map[primitive.ObjectID]V, len(m))
	for k, v := range m {
		out[k] = cp(v)
	}
	return out
}

func same[V any](v V) V { return v }

func cloneOrder(o models.Order) models.Order {
	o.CartItems = append([]models.OrderItem(nil), o.CartItems...)
	return o
}

func cloneStat(s models.ProductStat) models.ProductStat {
	s.MonthlyData = append([]models.MonthlyStat(nil), s.MonthlyData...)
	s.DailyData = append([]models.DailyStat(nil), s.DailyData...)
	return s
}

func cloneMail(m models.Mail) models.Mail {
	m.Replies = append([]models.Reply(nil), m.Replies...)
	return m
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func paginate[T any](items []T, page utils.Page) []T {
	start, end := page.Window(len(items))
	return items[start:end]
}

// newestFirst orders by creation time descending, ids breaking ties.
func newestFirst(aTime, bTime time.Time, aID, bID primitive.ObjectID) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aID.Hex() > bID.Hex()
}

func stamp(id *primitive.ObjectID, createdAt, updatedAt *time.Time) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now()
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

func sortedValues[V any](m map[primitive.ObjectID]V, less func(a, b V) bool) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
