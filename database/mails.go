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

type mails struct{ coll *mongo.Collection }

func (s *mails) Create(ctx context.Context, m *models.Mail) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.Status == "" {
		m.Status = models.MailStatusUnread
	}
	if m.Replies == nil {
		m.Replies = []models.Reply{}
	}
	now := time.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	_, err := s.coll.InsertOne(ctx, m)
	return err
}

func (s *mails) Get(ctx context.Context, id primitive.ObjectID) (*models.Mail, error) {
	return findOne[models.Mail](ctx, s.coll, bson.M{"_id": id})
}

func (s *mails) FindByOrder(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Mail, error) {
	return findOne[models.Mail](ctx, s.coll,
		bson.M{"userId": userID, "orderId": orderID},
		options.FindOne().SetSort(newestFirst),
	)
}

func (s *mails) List(ctx context.Context, f store.MailFilter, page utils.Page) ([]models.Mail, int64, error) {
	filter := bson.M{}
	if f.UserID != nil {
		filter["userId"] = *f.UserID
	}
	if f.Answered {
		filter["adminId"] = bson.M{"$exists": true, "$ne": nil}
	}
	if f.Search != "" {
		filter["subject"] = containsPattern(f.Search)
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.MailType != nil {
		filter["mailType"] = *f.MailType
	}
	return findPage[models.Mail](ctx, s.coll, filter, newestFirst, page)
}

func (s *mails) Update(ctx context.Context, id primitive.ObjectID, u models.MailUpdate) (*models.Mail, error) {
	set := bson.M{"updatedAt": time.Now()}
	if u.OrderID != nil {
		set["orderId"] = *u.OrderID
	}
	if u.Subject != nil {
		set["subject"] = *u.Subject
	}
	if u.Body != nil {
		set["body"] = *u.Body
	}
	if u.MailType != nil {
		set["mailType"] = *u.MailType
	}
	if u.Image != nil {
		set["image"] = *u.Image
	}
	return findOneAndUpdate[models.Mail](ctx, s.coll, bson.M{"_id": id}, bson.M{"$set": set})
}

func (s *mails) Delete(ctx context.Context, id primitive.ObjectID) (*models.Mail, error) {
	var m models.Mail
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s *mails) AddReply(ctx context.Context, id primitive.ObjectID, reply models.Reply, adminID *primitive.ObjectID) (*models.Mail, error) {
	if reply.ID.IsZero() {
		reply.ID = primitive.NewObjectID()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}
	set := bson.M{"updatedAt": time.Now()}
	if adminID != nil {
		set["adminId"] = *adminID
	}
	return findOneAndUpdate[models.Mail](ctx, s.coll,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"replies": reply}, "$set": set},
	)
}

// SaveReadState persists the mail status and flags the replies marked read,
// leaving replies appended since the mail was loaded untouched.
func (s *mails) SaveReadState(ctx context.Context, m *models.Mail) error {
	var read []primitive.ObjectID
	for _, r := range m.Replies {
		if r.IsRead {
			read = append(read, r.ID)
		}
	}

	set := bson.M{"status": m.Status, "updatedAt": time.Now()}
	opts := options.Update()
	if len(read) > 0 {
		set["replies.$[r].isRead"] = true
		opts.SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"r._id": bson.M{"$in": read}}},
		})
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": set}, opts)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
