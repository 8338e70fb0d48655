package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductTag is the promotional badge shown on a product card.
type ProductTag string

const (
	TagNone ProductTag = ""
	TagNew  ProductTag = "New"
	TagSale ProductTag = "Sale"
)

func (t ProductTag) Valid() bool {
	return t == TagNone || t == TagNew || t == TagSale
}

type Product struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Price     float64            `bson:"price" json:"price"`
	Category  primitive.ObjectID `bson:"category" json:"category"`
	Img       string             `bson:"img" json:"img"`
	Stock     int                `bson:"stock" json:"stock"`
	Role      ProductTag         `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProductUpdate is a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Title    *string
	Price    *float64
	Category *primitive.ObjectID
	Img      *string
	Stock    *int
	Role     *ProductTag
}

// ProductDetails is a product with its category populated.
type ProductDetails struct {
	Product
	Category *Category `json:"category"`
}

// Category owns no product list: membership is derived from Product.Category.
type Category struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Img       string             `bson:"img" json:"img"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type CategoryWithProducts struct {
	Category
	Products []Product `json:"products"`
}
