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

type orders struct{ coll *mongo.Collection }

func (s *orders) Insert(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	o.UpdatedAt = o.CreatedAt
	_, err := s.coll.InsertOne(ctx, o)
	return duplicate(err)
}

func (s *orders) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return findOne[models.Order](ctx, s.coll, bson.M{"_id": id})
}

func (s *orders) FindByIdempotencyKey(ctx context.Context, userID primitive.ObjectID, key string) (*models.Order, error) {
	return findOne[models.Order](ctx, s.coll, bson.M{"userId": userID, "idempotencyKey": key})
}

func rangeFilter(r utils.Range) bson.M {
	created := bson.M{"$lte": r.To}
	if r.From != nil {
		created["$gte"] = *r.From
	}
	return created
}

func (s *orders) List(ctx context.Context, f store.OrderFilter, page utils.Page) ([]models.Order, int64, error) {
	filter := bson.M{}
	if f.UserID != nil {
		filter["userId"] = *f.UserID
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if !f.Range.To.IsZero() {
		filter["createdAt"] = rangeFilter(f.Range)
	}
	return findPage[models.Order](ctx, s.coll, filter, newestFirst, page)
}

func (s *orders) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	return findOneAndUpdate[models.Order](ctx, s.coll,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
	)
}

func (s *orders) UpdateDelivery(ctx context.Context, id primitive.ObjectID, d models.DeliveryDetails) (*models.Order, error) {
	return findOneAndUpdate[models.Order](ctx, s.coll,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"deliveryDetails": d, "updatedAt": time.Now()}},
	)
}

func (s *orders) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}

func (s *orders) Summary(ctx context.Context, r utils.Range) (*models.SalesSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": rangeFilter(r)}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$status",
			"orders":  bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$totalAmount"},
		}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Status  models.OrderStatus `bson:"_id"`
		Orders  int64              `bson:"orders"`
		Revenue float64            `bson:"revenue"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	sum := &models.SalesSummary{From: r.From, To: r.To, ByStatus: map[models.OrderStatus]int64{}}
	for _, g := range groups {
		sum.Orders += g.Orders
		sum.Revenue += g.Revenue
		sum.ByStatus[g.Status] = g.Orders
	}
	return sum, nil
}

type stats struct{ coll *mongo.Collection }

// Record upserts the yearly document, makes sure the month and day buckets
// exist, then increments every counter in one update. Array filters always
// match after the push steps, so the increment cannot silently miss a bucket.
func (s *stats) Record(ctx context.Context, productID primitive.ObjectID, at time.Time, quantity int, amount float64) error {
	year, month, day := models.StatKeys(at)
	doc := bson.M{"productId": productID, "year": year}

	_, err := s.coll.UpdateOne(ctx, doc,
		bson.M{"$setOnInsert": bson.M{
			"monthlyData":      bson.A{},
			"dailyData":        bson.A{},
			"yearlySalesTotal": 0.0,
			"yearlyTotalSold":  0,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}

	_, err = s.coll.UpdateOne(ctx,
		bson.M{"productId": productID, "year": year, "monthlyData.month": bson.M{"$ne": month}},
		bson.M{"$push": bson.M{"monthlyData": models.MonthlyStat{Month: month}}},
	)
	if err != nil {
		return err
	}
	_, err = s.coll.UpdateOne(ctx,
		bson.M{"productId": productID, "year": year, "dailyData.date": bson.M{"$ne": day}},
		bson.M{"$push": bson.M{"dailyData": models.DailyStat{Date: day}}},
	)
	if err != nil {
		return err
	}

	arrayFilters := options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"m.month": month},
			bson.M{"d.date": day},
		},
	}
	res, err := s.coll.UpdateOne(ctx, doc,
		bson.M{"$inc": bson.M{
			"yearlySalesTotal":            amount,
			"yearlyTotalSold":             quantity,
			"monthlyData.$[m].salesTotal": amount,
			"monthlyData.$[m].totalSold":  quantity,
			"dailyData.$[d].salesTotal":   amount,
			"dailyData.$[d].totalSold":    quantity,
		}},
		options.Update().SetArrayFilters(arrayFilters),
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *stats) Get(ctx context.Context, productID primitive.ObjectID, year int) (*models.ProductStat, error) {
	return findOne[models.ProductStat](ctx, s.coll, bson.M{"productId": productID, "year": year})
}

func (s *stats) ByProducts(ctx context.Context, productIDs []primitive.ObjectID) ([]models.ProductStat, error) {
	return findAll[models.ProductStat](ctx, s.coll,
		bson.M{"productId": bson.M{"$in": productIDs}},
		options.Find().SetSort(bson.D{{Key: "year", Value: -1}, {Key: "productId", Value: 1}}),
	)
}
