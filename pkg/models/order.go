package models

import (
	"fmt"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

const (
	PaymentStatusPending           = "Pending"
	PaymentStatusPaid              = "Paid"
	PaymentStatusRefunded          = "Refunded"
	PaymentStatusPartiallyRefunded = "Partially Refunded"
)

// OrderItem is a snapshot of the product at the time of purchase. Later
// edits to the catalog must not change historical orders.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	SKU       string             `bson:"sku" json:"sku"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
}

type ShippingAddress struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Zip     string `bson:"zip,omitempty" json:"zip,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

type Tracking struct {
	Carrier string `bson:"carrier,omitempty" json:"carrier,omitempty"`
	Number  string `bson:"number,omitempty" json:"number,omitempty"`
}

type Cancellation struct {
	Reason string `bson:"reason,omitempty" json:"reason,omitempty"`
	Notes  string `bson:"notes,omitempty" json:"notes,omitempty"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber     string             `bson:"orderNumber" json:"orderNumber"`
	Customer        primitive.ObjectID `bson:"customer" json:"customer"`
	Items           []OrderItem        `bson:"items" json:"items"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	Tax             float64            `bson:"tax" json:"tax"`
	ShippingCost    float64            `bson:"shippingCost" json:"shippingCost"`
	Discount        float64            `bson:"discount" json:"discount"`
	CouponCode      string             `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	Total           float64            `bson:"total" json:"total"`
	Currency        string             `bson:"currency" json:"currency"`
	Status          string             `bson:"status" json:"status"`
	PaymentStatus   string             `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod   string             `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	PaymentIntentID string             `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	RefundID        string             `bson:"refundId,omitempty" json:"refundId,omitempty"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress,omitempty" json:"shippingAddress,omitempty"`
	Tracking        *Tracking          `bson:"tracking,omitempty" json:"tracking,omitempty"`
	Cancellation    *Cancellation      `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewOrderNumber builds the external-facing order number
// #ORD-<YY><MM><DD>-<HH><MM><SS>-<4-digit-random>. The format is stable.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("#ORD-%s-%s-%04d",
		now.Format("060102"), now.Format("150405"), 1000+rand.Intn(9000))
}

// CanTransition reports whether an order status change is allowed:
// Processing -> Shipped -> Delivered, or Cancelled any time before Delivered.
func CanTransition(from, to string) bool {
	switch to {
	case OrderStatusShipped:
		return from == OrderStatusProcessing
	case OrderStatusDelivered:
		return from == OrderStatusShipped
	case OrderStatusCancelled:
		return from == OrderStatusProcessing || from == OrderStatusShipped
	default:
		return false
	}
}
