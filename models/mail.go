package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MailStatus string

const (
	MailStatusRead   MailStatus = "read"
	MailStatusUnread MailStatus = "unread"
)

func (s MailStatus) Valid() bool {
	return s == MailStatusRead || s == MailStatusUnread
}

type MailType string

const (
	MailTypeOrderConfirmation    MailType = "orderConfirmation"
	MailTypeShippingNotification MailType = "shippingNotification"
	MailTypeCustomerInquiry      MailType = "customerInquiry"
)

func (t MailType) Valid() bool {
	switch t {
	case MailTypeOrderConfirmation, MailTypeShippingNotification, MailTypeCustomerInquiry:
		return true
	}
	return false
}

type Reply struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Content   string             `bson:"content" json:"content"`
	IsRead    bool               `bson:"isRead" json:"isRead"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Mail is a support ticket opened by a user, answered through Replies.
type Mail struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderID   *primitive.ObjectID `bson:"orderId,omitempty" json:"orderId,omitempty"`
	UserID    primitive.ObjectID  `bson:"userId" json:"userId"`
	AdminID   *primitive.ObjectID `bson:"adminId,omitempty" json:"adminId,omitempty"`
	Subject   string              `bson:"subject" json:"subject"`
	Body      string              `bson:"body" json:"body"`
	Status    MailStatus          `bson:"status" json:"status"`
	MailType  MailType            `bson:"mailType" json:"mailType"`
	Image     string              `bson:"image,omitempty" json:"image,omitempty"`
	Replies   []Reply             `bson:"replies" json:"replies"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// MarkReadBy flags the replies the reader has now seen and marks the mail read.
// The owner sees replies written by anyone else; an admin sees the owner's replies.
func (m *Mail) MarkReadBy(reader primitive.ObjectID, readerIsAdmin bool) {
	for i := range m.Replies {
		fromOwner := m.Replies[i].User == m.UserID
		if readerIsAdmin && fromOwner {
			m.Replies[i].IsRead = true
		}
		if !readerIsAdmin && reader == m.UserID && !fromOwner {
			m.Replies[i].IsRead = true
		}
	}
	m.Status = MailStatusRead
}

// MailUpdate is a partial update; nil fields are left untouched.
type MailUpdate struct {
	OrderID  *primitive.ObjectID
	Subject  *string
	Body     *string
	MailType *MailType
	Image    *string
}
