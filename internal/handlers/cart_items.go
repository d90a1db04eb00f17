package handlers

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sugarsphere/internal/models"
)

// upsertCartItem merges item into the line list. When the product is
// already present the quantities add and the first-seen price snapshot
// is kept for the lifetime of the cart; a price refresh would silently
// change a total the shopper already saw.
func upsertCartItem(items []models.CartItem, item models.CartItem) []models.CartItem {
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			items[i].CalculateSubtotal()
			return items
		}
	}
	item.CalculateSubtotal()
	return append(items, item)
}

// replaceCartItemQuantity sets the line quantity. Zero removes the line;
// a line with quantity 0 is never stored. Returns false when the product
// is not in the cart.
func replaceCartItemQuantity(items []models.CartItem, productID primitive.ObjectID, quantity int) ([]models.CartItem, bool) {
	for i := range items {
		if items[i].ProductID == productID {
			if quantity == 0 {
				return append(items[:i], items[i+1:]...), true
			}
			items[i].Quantity = quantity
			items[i].CalculateSubtotal()
			return items, true
		}
	}
	return items, false
}

// removeCartItem drops the line if present. Removing an absent product
// is a no-op, not an error.
func removeCartItem(items []models.CartItem, productID primitive.ObjectID) []models.CartItem {
	for i := range items {
		if items[i].ProductID == productID {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}

// cartQuantityOf returns the quantity already carted for a product.
func cartQuantityOf(items []models.CartItem, productID primitive.ObjectID) int {
	for i := range items {
		if items[i].ProductID == productID {
			return items[i].Quantity
		}
	}
	return 0
}
