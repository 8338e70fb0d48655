package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses is the allow-list for status writes.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// OrderItem is an immutable snapshot of a purchased product.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Title     string             `bson:"title" json:"title"`
	Img       string             `bson:"img" json:"img"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

type DeliveryDetails struct {
	Name        string `bson:"name" json:"name" validate:"required"`
	City        string `bson:"city" json:"city" validate:"required"`
	Country     string `bson:"country" json:"country" validate:"required"`
	Email       string `bson:"email" json:"email" validate:"required,email"`
	PhoneNumber string `bson:"phoneNumber" json:"phoneNumber" validate:"required"`
	Address     string `bson:"address" json:"address" validate:"required"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	CartItems       []OrderItem        `bson:"cartItems" json:"cartItems"`
	DeliveryDetails DeliveryDetails    `bson:"deliveryDetails" json:"deliveryDetails"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	Status          OrderStatus        `bson:"status" json:"status"`
	IdempotencyKey  string             `bson:"idempotencyKey,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SalesSummary aggregates orders placed inside a reporting window.
type SalesSummary struct {
	From     *time.Time            `json:"from,omitempty"`
	To       time.Time             `json:"to"`
	Orders   int64                 `json:"orders"`
	Revenue  float64               `json:"revenue"`
	ByStatus map[OrderStatus]int64 `json:"byStatus"`
}
