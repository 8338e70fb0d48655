package database

import (
	"context"
	"errors"
	"time"

	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartItems struct{ coll *mongo.Collection }

// ownerFilter matches the signed-in user's lines and the anonymous lines of
// the guest session.
func ownerFilter(owner models.CartOwner) bson.M {
	var or bson.A
	if owner.UserID != nil {
		or = append(or, bson.M{"userId": *owner.UserID})
	}
	if owner.SessionID != "" {
		or = append(or, bson.M{"userId": nil, "sessionId": owner.SessionID})
	}
	return bson.M{"$or": or}
}

// line finds the owner's line for a product, preferring a user line over a guest one.
func (s *cartItems) line(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID) (*models.CartItem, error) {
	if owner.IsZero() {
		return nil, store.ErrNotFound
	}
	filter := ownerFilter(owner)
	filter["productId"] = productID
	return findOne[models.CartItem](ctx, s.coll, filter, options.FindOne().SetSort(bson.D{{Key: "userId", Value: -1}}))
}

func (s *cartItems) Find(ctx context.Context, owner models.CartOwner) ([]models.CartItem, error) {
	if owner.IsZero() {
		return []models.CartItem{}, nil
	}
	return findAll[models.CartItem](ctx, s.coll, ownerFilter(owner), options.Find().SetSort(oldestFirst))
}

func (s *cartItems) Increment(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID) (*models.CartItem, error) {
	if owner.IsZero() {
		return nil, store.ErrNotFound
	}
	now := time.Now()
	existing, err := s.line(ctx, owner, productID)
	switch {
	case err == nil:
		set := bson.M{"updatedAt": now}
		if existing.UserID == nil && owner.UserID != nil {
			set["userId"] = *owner.UserID
		}
		return findOneAndUpdate[models.CartItem](ctx, s.coll,
			bson.M{"_id": existing.ID},
			bson.M{"$inc": bson.M{"quantity": 1}, "$set": set},
		)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	filter := bson.M{"productId": productID}
	onInsert := bson.M{"createdAt": now}
	if owner.UserID != nil {
		filter["userId"] = *owner.UserID
		if owner.SessionID != "" {
			onInsert["sessionId"] = owner.SessionID
		}
	} else {
		filter["userId"] = nil
		filter["sessionId"] = owner.SessionID
	}
	return findOneAndUpdate[models.CartItem](ctx, s.coll, filter,
		bson.M{
			"$inc":         bson.M{"quantity": 1},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": onInsert,
		},
		options.FindOneAndUpdate().SetUpsert(true),
	)
}

func (s *cartItems) Decrement(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID) error {
	existing, err := s.line(ctx, owner, productID)
	if err != nil {
		return err
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": existing.ID, "quantity": bson.M{"$gt": 1}},
		bson.M{"$inc": bson.M{"quantity": -1}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	_, err = s.coll.DeleteOne(ctx, bson.M{"_id": existing.ID})
	return err
}

func (s *cartItems) Remove(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID) error {
	existing, err := s.line(ctx, owner, productID)
	if err != nil {
		return err
	}
	_, err = s.coll.DeleteOne(ctx, bson.M{"_id": existing.ID})
	return err
}

func (s *cartItems) Clear(ctx context.Context, owner models.CartOwner) (int64, error) {
	if owner.IsZero() {
		return 0, nil
	}
	res, err := s.coll.DeleteMany(ctx, ownerFilter(owner))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *cartItems) RemoveProduct(ctx context.Context, productID primitive.ObjectID) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"productId": productID})
	return err
}

type wishlist struct{ coll *mongo.Collection }

func (s *wishlist) Toggle(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	pair := bson.M{"userId": userID, "productId": productID}
	res, err := s.coll.DeleteOne(ctx, pair)
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}
	_, err = s.coll.InsertOne(ctx, models.WishlistItem{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	})
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent toggle inserted the same pair
		return true, nil
	}
	return err == nil, err
}

func (s *wishlist) List(ctx context.Context, userID primitive.ObjectID) ([]models.WishlistItem, error) {
	return findAll[models.WishlistItem](ctx, s.coll, bson.M{"userId": userID}, options.Find().SetSort(oldestFirst))
}

func (s *wishlist) RemoveProduct(ctx context.Context, productID primitive.ObjectID) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"productId": productID})
	return err
}
