// Package store declares the persistence contracts of the storefront. The
// database package implements them on MongoDB and store/memstore in memory.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicate         = errors.New("duplicate")
)

type ProductFilter struct {
	Search     string
	CategoryID *primitive.ObjectID
	Role       *models.ProductTag
}

type Products interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	All(ctx context.Context) ([]models.Product, error)
	List(ctx context.Context, filter ProductFilter, page utils.Page) ([]models.Product, int64, error)
	ByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]models.Product, error)
	CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, u models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// DecrementStock fails with ErrInsufficientStock unless stock >= quantity.
	DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error
}

type Categories interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	FindByTitle(ctx context.Context, title string) (*models.Category, error)
	All(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, id primitive.ObjectID, title, img string) (*models.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CartItems interface {
	// Find returns the lines of the user and, when set, of the guest session.
	Find(ctx context.Context, owner models.CartOwner) ([]models.CartItem, error)
	// Increment adds one unit, inserting a line of quantity 1 when absent.
	Increment(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID) (*models.CartItem, error)
	// Decrement removes one unit and deletes the line once it reaches zero.
	Decrement(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID) error
	Remove(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID) error
	// Clear deletes every line Find would return for owner.
	Clear(ctx context.Context, owner models.CartOwner) (int64, error)
	RemoveProduct(ctx context.Context, productID primitive.ObjectID) error
}

type Wishlist interface {
	// Toggle inserts the pair when absent and removes it when present.
	Toggle(ctx context.Context, userID, productID primitive.ObjectID) (added bool, err error)
	List(ctx context.Context, userID primitive.ObjectID) ([]models.WishlistItem, error)
	RemoveProduct(ctx context.Context, productID primitive.ObjectID) error
}

type OrderFilter struct {
	UserID *primitive.ObjectID
	Status *models.OrderStatus
	Range  utils.Range
}

type Orders interface {
	Insert(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID primitive.ObjectID, key string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter, page utils.Page) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	UpdateDelivery(ctx context.Context, id primitive.ObjectID, d models.DeliveryDetails) (*models.Order, error)
	Count(ctx context.Context) (int64, error)
	Summary(ctx context.Context, r utils.Range) (*models.SalesSummary, error)
}

type Stats interface {
	// Record adds one sale to the (product, year) rollup, creating it and its buckets as needed.
	Record(ctx context.Context, productID primitive.ObjectID, at time.Time, quantity int, amount float64) error
	Get(ctx context.Context, productID primitive.ObjectID, year int) (*models.ProductStat, error)
	ByProducts(ctx context.Context, productIDs []primitive.ObjectID) ([]models.ProductStat, error)
}

type UserFilter struct {
	Search      string
	Role        *models.Role
	OldestFirst bool
}

type Users interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByAuthID(ctx context.Context, authID string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.ProfileUpdate) (*models.User, error)
	UpdateImage(ctx context.Context, id primitive.ObjectID, imageURL string) (*models.User, error)
	UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context, filter UserFilter, page utils.Page) ([]models.User, int64, error)
	Count(ctx context.Context) (int64, error)
}

type MailFilter struct {
	UserID   *primitive.ObjectID
	Answered bool
	Search   string
	Status   *models.MailStatus
	MailType *models.MailType
}

type Mails interface {
	Create(ctx context.Context, m *models.Mail) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Mail, error)
	FindByOrder(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Mail, error)
	List(ctx context.Context, filter MailFilter, page utils.Page) ([]models.Mail, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, u models.MailUpdate) (*models.Mail, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Mail, error)
	// AddReply appends a reply; adminID, when set, records the answering admin.
	AddReply(ctx context.Context, id primitive.ObjectID, reply models.Reply, adminID *primitive.ObjectID) (*models.Mail, error)
	SaveReadState(ctx context.Context, m *models.Mail) error
}

// Transactor runs fn atomically: either every write made through ctx inside
// fn is committed, or none is.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles every collection the handlers need.
type Store struct {
	Products   Products
	Categories Categories
	CartItems  CartItems
	Wishlist   Wishlist
	Orders     Orders
	Stats      Stats
	Users      Users
	Mails      Mails
	Tx         Transactor
}
