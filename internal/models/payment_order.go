package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentOrder statuses. A reconciliation_required record means money was
// captured but the stock re-check failed, so no order exists; these are
// surfaced to operators instead of being silently discarded.
const (
	PaymentOrderCreated        = "created"
	PaymentOrderCompleted      = "completed"
	PaymentOrderReconciliation = "reconciliation_required"
)

// Checkout sources.
const (
	CheckoutSourceCart   = "cart"
	CheckoutSourceBuyNow = "buynow"
)

// PaymentOrder records a gateway order request: the server-computed line
// snapshot and the exact amount (in paise) the gateway was asked to
// collect. The verification callback is checked against this record, not
// against anything the client resubmits.
type PaymentOrder struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GatewayOrderID  string             `bson:"gatewayOrderId" json:"gatewayOrderId"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Source          string             `bson:"source" json:"source"`
	Lines           []OrderLine        `bson:"lines" json:"lines"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	Tax             float64            `bson:"tax" json:"tax"`
	ShippingCost    float64            `bson:"shippingCost" json:"shippingCost"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	AmountPaise     int64              `bson:"amountPaise" json:"amountPaise"`
	Currency        string             `bson:"currency" json:"currency"`
	Receipt         string             `bson:"receipt" json:"receipt"`
	Status          string             `bson:"status" json:"status"`
	Note            string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
