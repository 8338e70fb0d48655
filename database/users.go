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
)

type users struct{ coll *mongo.Collection }

func (s *users) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, s.coll, bson.M{"_id": id})
}

func (s *users) FindByAuthID(ctx context.Context, authID string) (*models.User, error) {
	return findOne[models.User](ctx, s.coll, bson.M{"authId": authID})
}

func (s *users) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := s.coll.InsertOne(ctx, u)
	return duplicate(err)
}

func (s *users) set(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	set["updatedAt"] = time.Now()
	return findOneAndUpdate[models.User](ctx, s.coll, bson.M{"_id": id}, bson.M{"$set": set})
}

func (s *users) UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.ProfileUpdate) (*models.User, error) {
	set := bson.M{}
	if p.FirstName != "" {
		set["firstName"] = p.FirstName
	}
	if p.LastName != "" {
		set["lastName"] = p.LastName
	}
	if p.PhoneMobile != "" {
		set["phoneMobile"] = p.PhoneMobile
	}
	return s.set(ctx, id, set)
}

func (s *users) UpdateImage(ctx context.Context, id primitive.ObjectID, imageURL string) (*models.User, error) {
	return s.set(ctx, id, bson.M{"imageUrl": imageURL})
}

func (s *users) UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	return s.set(ctx, id, bson.M{"role": role})
}

func (s *users) Delete(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *users) List(ctx context.Context, f store.UserFilter, page utils.Page) ([]models.User, int64, error) {
	filter := bson.M{}
	if f.Search != "" {
		pattern := containsPattern(f.Search)
		filter["$or"] = bson.A{
			bson.M{"firstName": pattern},
			bson.M{"email": pattern},
		}
	}
	if f.Role != nil {
		filter["role"] = *f.Role
	}
	sort := newestFirst
	if f.OldestFirst {
		sort = oldestFirst
	}
	return findPage[models.User](ctx, s.coll, filter, sort, page)
}

func (s *users) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}
