package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartOwner identifies whose cart a line belongs to: a signed-in user or a guest session.
type CartOwner struct {
	UserID    *primitive.ObjectID
	SessionID string
}

func (o CartOwner) IsZero() bool {
	return o.UserID == nil && o.SessionID == ""
}

type CartItem struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	SessionID string              `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	ProductID primitive.ObjectID  `bson:"productId" json:"productId"`
	Quantity  int                 `bson:"quantity" json:"quantity"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CartLine is a cart item with its product populated.
type CartLine struct {
	ID       primitive.ObjectID `json:"id"`
	Quantity int                `json:"quantity"`
	Product  *Product           `json:"product"`
}

type WishlistItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
