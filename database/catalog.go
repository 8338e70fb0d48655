package database

import (
	"context"
	"time"

	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type products struct{ coll *mongo.Collection }

func (s *products) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return findOne[models.Product](ctx, s.coll, bson.M{"_id": id})
}

func (s *products) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	found, err := findAll[models.Product](ctx, s.coll, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.Product, len(found))
	for _, p := range found {
		out[p.ID] = p
	}
	return out, nil
}

func (s *products) All(ctx context.Context) ([]models.Product, error) {
	return findAll[models.Product](ctx, s.coll, bson.M{}, options.Find().SetSort(oldestFirst))
}

func (s *products) List(ctx context.Context, f store.ProductFilter, page utils.Page) ([]models.Product, int64, error) {
	filter := bson.M{}
	if f.Search != "" {
		filter["title"] = containsPattern(f.Search)
	}
	if f.CategoryID != nil {
		filter["category"] = *f.CategoryID
	}
	if f.Role != nil {
		filter["role"] = *f.Role
	}
	return findPage[models.Product](ctx, s.coll, filter, oldestFirst, page)
}

func (s *products) ByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]models.Product, error) {
	return findAll[models.Product](ctx, s.coll, bson.M{"category": categoryID}, options.Find().SetSort(oldestFirst))
}

func (s *products) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"category": categoryID})
}

func (s *products) Create(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := s.coll.InsertOne(ctx, p)
	return duplicate(err)
}

func (s *products) Update(ctx context.Context, id primitive.ObjectID, u models.ProductUpdate) (*models.Product, error) {
	set := bson.M{"updatedAt": time.Now()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Img != nil {
		set["img"] = *u.Img
	}
	if u.Stock != nil {
		set["stock"] = *u.Stock
	}
	if u.Role != nil {
		set["role"] = *u.Role
	}
	return findOneAndUpdate[models.Product](ctx, s.coll, bson.M{"_id": id}, bson.M{"$set": set})
}

func (s *products) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DecrementStock only matches while enough stock is left, so concurrent
// checkouts cannot drive stock negative.
func (s *products) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": quantity}},
		bson.M{
			"$inc": bson.M{"stock": -quantity},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrInsufficientStock
}

type categories struct{ coll *mongo.Collection }

func (s *categories) Get(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return findOne[models.Category](ctx, s.coll, bson.M{"_id": id})
}

func (s *categories) FindByTitle(ctx context.Context, title string) (*models.Category, error) {
	return findOne[models.Category](ctx, s.coll, bson.M{"title": title})
}

func (s *categories) All(ctx context.Context) ([]models.Category, error) {
	return findAll[models.Category](ctx, s.coll, bson.M{}, options.Find().SetSort(oldestFirst))
}

func (s *categories) Create(ctx context.Context, c *models.Category) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.coll.InsertOne(ctx, c)
	return duplicate(err)
}

func (s *categories) Update(ctx context.Context, id primitive.ObjectID, title, img string) (*models.Category, error) {
	set := bson.M{"updatedAt": time.Now()}
	if title != "" {
		set["title"] = title
	}
	if img != "" {
		set["img"] = img
	}
	c, err := findOneAndUpdate[models.Category](ctx, s.coll, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, duplicate(err)
	}
	return c, nil
}

func (s *categories) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
