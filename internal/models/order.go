package models

import (
	"fmt"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order lifecycle statuses. Delivered and cancelled are terminal.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment statuses carried on an order.
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"
)

// OrderLine is a point-in-time snapshot of a purchased product. Name,
// image and unit price are copied at order creation so later catalog
// edits never change a recorded order.
type OrderLine struct {
	ProductID    primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName  string             `bson:"productName" json:"productName"`
	ProductImage string             `bson:"productImage,omitempty" json:"productImage,omitempty"`
	Price        float64            `bson:"price" json:"price"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	Subtotal     float64            `bson:"subtotal" json:"subtotal"`
}

// ShippingAddress is embedded into an order at creation time; it has no
// lifecycle of its own.
type ShippingAddress struct {
	FullName     string `bson:"fullName" json:"fullName"`
	Phone        string `bson:"phone" json:"phone"`
	AddressLine1 string `bson:"addressLine1" json:"addressLine1"`
	AddressLine2 string `bson:"addressLine2,omitempty" json:"addressLine2,omitempty"`
	City         string `bson:"city" json:"city"`
	State        string `bson:"state" json:"state"`
	PostalCode   string `bson:"postalCode" json:"postalCode"`
	Country      string `bson:"country" json:"country"`
}

// StatusHistory is one append-only entry in the order's transition log.
type StatusHistory struct {
	Status    string    `bson:"status" json:"status"`
	Message   string    `bson:"message" json:"message"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// PaymentReference ties an order to the gateway payment that funded it.
// GatewayOrderID doubles as the idempotency key for order creation.
type PaymentReference struct {
	GatewayOrderID string `bson:"gatewayOrderId" json:"gatewayOrderId"`
	PaymentID      string `bson:"paymentId" json:"paymentId"`
	Signature      string `bson:"signature" json:"-"`
}

// Order is created exactly once per verified payment. Everything except
// OrderStatus/StatusHistory/UpdatedAt is immutable after creation.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	OrderNumber     string             `bson:"orderNumber" json:"orderNumber"`
	Items           []OrderLine        `bson:"items" json:"items"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	Tax             float64            `bson:"tax" json:"tax"`
	ShippingCost    float64            `bson:"shippingCost" json:"shippingCost"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus   string             `bson:"paymentStatus" json:"paymentStatus"`
	Payment         PaymentReference   `bson:"payment" json:"payment"`
	OrderStatus     string             `bson:"orderStatus" json:"orderStatus"`
	StatusHistory   []StatusHistory    `bson:"statusHistory" json:"statusHistory"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AddStatus appends a history entry and moves the order to status.
// History is never rewritten or truncated.
func (o *Order) AddStatus(status, message string) {
	now := time.Now()
	o.StatusHistory = append(o.StatusHistory, StatusHistory{
		Status:    status,
		Message:   message,
		Timestamp: now,
	})
	o.OrderStatus = status
	o.UpdatedAt = now
}

// NewOrderNumber returns a human-readable order number. Uniqueness is
// not load-bearing; the order _id and the gateway order id are.
func NewOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%03d", time.Now().UnixMilli(), rand.Intn(1000))
}
