// Package database implements the store contracts on MongoDB.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ProductsCollection   = "products"
	CategoriesCollection = "categories"
	CartItemsCollection  = "cartitems"
	WishlistCollection   = "wishlist"
	OrdersCollection     = "orders"
	StatsCollection      = "productstats"
	UsersCollection      = "users"
	MailsCollection      = "mails"
)

// Connect dials MongoDB and pings it before returning the client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	// Ping the database
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	slog.Info("connected to MongoDB")
	return client, nil
}

// New builds a Store backed by db. With transactions disabled (standalone
// servers) Tx runs its function without a session.
func New(client *mongo.Client, db *mongo.Database, transactions bool) *store.Store {
	return &store.Store{
		Products:   &products{db.Collection(ProductsCollection)},
		Categories: &categories{db.Collection(CategoriesCollection)},
		CartItems:  &cartItems{db.Collection(CartItemsCollection)},
		Wishlist:   &wishlist{db.Collection(WishlistCollection)},
		Orders:     &orders{db.Collection(OrdersCollection)},
		Stats:      &stats{db.Collection(StatsCollection)},
		Users:      &users{db.Collection(UsersCollection)},
		Mails:      &mails{db.Collection(MailsCollection)},
		Tx:         &transactor{client: client, enabled: transactions},
	}
}

// EnsureIndexes creates the indexes the store relies on for uniqueness and lookups.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		ProductsCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
		CategoriesCollection: {
			{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CartItemsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}}},
			{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "productId", Value: 1}}},
		},
		WishlistCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{
				Keys: bson.D{{Key: "userId", Value: 1}, {Key: "idempotencyKey", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$exists": true}}),
			},
		},
		StatsCollection: {
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "year", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "authId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		MailsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "orderId", Value: 1}}},
		},
	}
	for name, specs := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

type transactor struct {
	client  *mongo.Client
	enabled bool
}

func (t *transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return err
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOneOptions) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func findOneAndUpdate[T any](ctx context.Context, coll *mongo.Collection, filter, update interface{}, opts ...*options.FindOneAndUpdateOptions) (*T, error) {
	opts = append([]*options.FindOneAndUpdateOptions{options.FindOneAndUpdate().SetReturnDocument(options.After)}, opts...)
	var out T
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts...).Decode(&out); err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

// findPage counts the filtered set and returns one page of it.
func findPage[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, sort bson.D, page utils.Page) ([]T, int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(sort).SetSkip(page.Skip()).SetLimit(page.Limit())
	items, err := findAll[T](ctx, coll, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// containsPattern matches s literally and case-insensitively.
func containsPattern(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

var (
	newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	oldestFirst = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
)
