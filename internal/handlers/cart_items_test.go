package handlers

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sugarsphere/internal/models"
)

func newTestItem(quantity int) models.CartItem {
	item := models.CartItem{
		ProductID:   primitive.NewObjectID(),
		ProductName: gofakeit.ProductName(),
		Price:       float64(gofakeit.IntRange(1, 500)),
		Quantity:    quantity,
	}
	item.CalculateSubtotal()
	return item
}

func assertTotalsConsistent(t *testing.T, cart *models.Cart) {
	t.Helper()
	wantCount := 0
	wantTotal := 0.0
	for _, item := range cart.Items {
		require.GreaterOrEqual(t, item.Quantity, 1, "a zero-quantity line must never be stored")
		wantCount += item.Quantity
		wantTotal += item.Price * float64(item.Quantity)
	}
	assert.Equal(t, wantCount, cart.ItemCount)
	assert.InDelta(t, wantTotal, cart.TotalAmount, 1e-9)
}

func TestUpsertCartItemAddsQuantitiesKeepsFirstPrice(t *testing.T) {
	first := newTestItem(2)

	items := upsertCartItem(nil, first)

	repeat := first
	repeat.Price = first.Price + 10 // catalog price changed since first add
	repeat.Quantity = 3
	items = upsertCartItem(items, repeat)

	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, first.Price, items[0].Price)
	assert.Equal(t, first.Price*5, items[0].Subtotal)
}

func TestReplaceCartItemQuantityZeroRemovesLine(t *testing.T) {
	item := newTestItem(4)
	items := upsertCartItem(nil, item)

	items, found := replaceCartItemQuantity(items, item.ProductID, 0)
	require.True(t, found)
	assert.Empty(t, items)
}

func TestReplaceCartItemQuantityUnknownProduct(t *testing.T) {
	items := upsertCartItem(nil, newTestItem(1))

	_, found := replaceCartItemQuantity(items, primitive.NewObjectID(), 2)
	assert.False(t, found)
}

func TestRemoveCartItemIsIdempotent(t *testing.T) {
	item := newTestItem(2)
	items := upsertCartItem(nil, item)

	items = removeCartItem(items, item.ProductID)
	assert.Empty(t, items)

	// Removing again is a no-op, not an error.
	items = removeCartItem(items, item.ProductID)
	assert.Empty(t, items)

	items = removeCartItem(items, primitive.NewObjectID())
	assert.Empty(t, items)
}

// Totals must never drift from the item lines, whatever sequence of
// mutations produced the cart.
func TestCartTotalsNeverDrift(t *testing.T) {
	gofakeit.Seed(42)

	cart := models.Cart{Items: []models.CartItem{}}
	known := make([]models.CartItem, 0)

	for i := 0; i < 200; i++ {
		switch gofakeit.IntRange(0, 3) {
		case 0:
			item := newTestItem(gofakeit.IntRange(1, 5))
			known = append(known, item)
			cart.Items = upsertCartItem(cart.Items, item)
		case 1:
			if len(known) == 0 {
				continue
			}
			target := known[gofakeit.IntRange(0, len(known)-1)]
			repeat := target
			repeat.Quantity = gofakeit.IntRange(1, 3)
			cart.Items = upsertCartItem(cart.Items, repeat)
		case 2:
			if len(known) == 0 {
				continue
			}
			target := known[gofakeit.IntRange(0, len(known)-1)]
			cart.Items, _ = replaceCartItemQuantity(cart.Items, target.ProductID, gofakeit.IntRange(0, 4))
		case 3:
			if len(known) == 0 {
				continue
			}
			target := known[gofakeit.IntRange(0, len(known)-1)]
			cart.Items = removeCartItem(cart.Items, target.ProductID)
		}

		cart.CalculateTotals()
		assertTotalsConsistent(t, &cart)
	}
}

func TestClearedCartReadsEmpty(t *testing.T) {
	cart := models.Cart{Items: []models.CartItem{}}
	cart.Items = upsertCartItem(cart.Items, newTestItem(3))
	cart.Items = upsertCartItem(cart.Items, newTestItem(1))
	cart.CalculateTotals()
	require.Equal(t, 4, cart.ItemCount)

	cart.Items = []models.CartItem{}
	cart.CalculateTotals()

	assert.Equal(t, 0, cart.ItemCount)
	assert.Equal(t, 0.0, cart.TotalAmount)
}
