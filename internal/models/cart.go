package models

import (
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one line of a cart. Price is the snapshot captured when the
// product was first added; repeat adds bump the quantity but keep the
// first-seen price for the lifetime of the cart.
type CartItem struct {
	ProductID    primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName  string             `bson:"productName" json:"productName"`
	ProductImage string             `bson:"productImage,omitempty" json:"productImage,omitempty"`
	Price        float64            `bson:"price" json:"price"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	Subtotal     float64            `bson:"subtotal" json:"subtotal"`
}

// CalculateSubtotal refreshes the derived line subtotal.
func (i *CartItem) CalculateSubtotal() {
	i.Subtotal = i.Price * float64(i.Quantity)
}

// Cart holds one user's pending items. A user has at most one cart
// (unique index on userId); an absent document reads as an empty cart.
type Cart struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Items       []CartItem         `bson:"items" json:"items"`
	TotalAmount float64            `bson:"totalAmount" json:"totalAmount"`
	ItemCount   int                `bson:"itemCount" json:"itemCount"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CalculateTotals recomputes the derived totals from the item lines.
// Called after every mutation so the stored document never drifts.
func (c *Cart) CalculateTotals() {
	c.TotalAmount = lo.SumBy(c.Items, func(item CartItem) float64 { return item.Subtotal })
	c.ItemCount = lo.SumBy(c.Items, func(item CartItem) int { return item.Quantity })
}
