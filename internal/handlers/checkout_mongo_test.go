package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sugarsphere/internal/models"
)

func (suite *mongoHandlerSuite) TestCreateOrderStockBoundary() {
	tests := []struct {
		name      string
		available int
		requested int
		wantStock int
		wantError bool
	}{
		{
			name:      "order for exactly the remaining stock: ok, stock reaches zero",
			available: 5,
			requested: 5,
			wantStock: 0,
		},
		{
			name:      "order for one more than available: fails, stock untouched",
			available: 5,
			requested: 6,
			wantStock: 5,
			wantError: true,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := context.Background()

			product := suite.insertProduct(tt.available)
			userID := primitive.NewObjectID()
			paymentOrder := suite.insertPaymentOrder(userID, product, tt.requested)

			req := verifyPaymentRequest{
				GatewayOrderID: paymentOrder.GatewayOrderID,
				PaymentID:      "pay_" + uuid.NewString(),
				Signature:      "checked-upstream",
			}

			order, err := createOrderFromPayment(ctx, suite.db, paymentOrder, req)
			if tt.wantError {
				var stockErr insufficientStockError
				require.ErrorAs(t, err, &stockErr)
				assert.Equal(t, product.ID, stockErr.ProductID)
				assert.Equal(t, tt.available, stockErr.Available)
				assert.Equal(t, tt.requested, stockErr.Requested)

				count, countErr := suite.db.Collection("orders").CountDocuments(ctx,
					bson.M{"payment.gatewayOrderId": paymentOrder.GatewayOrderID})
				require.NoError(t, countErr)
				assert.Zero(t, count, "failed order creation must not insert an order")
			} else {
				require.NoError(t, err)
				assert.Equal(t, models.OrderStatusConfirmed, order.OrderStatus)
				assert.NotEmpty(t, order.OrderNumber)
				assert.Equal(t, userID, order.UserID)
			}

			assert.Equal(t, tt.wantStock, suite.productQuantity(product.ID))
		})
	}
}

func (suite *mongoHandlerSuite) TestVerifyPaymentRedelivery() {
	t := suite.T()
	ctx := context.Background()

	product := suite.insertProduct(10)
	userID := primitive.NewObjectID()
	paymentOrder := suite.insertPaymentOrder(userID, product, 2)

	handler := VerifyPayment(suite.db, approveAllGateway{})
	body := gin.H{
		"razorpayOrderId":   paymentOrder.GatewayOrderID,
		"razorpayPaymentId": "pay_" + uuid.NewString(),
		"razorpaySignature": "accepted-by-stub",
	}

	first := performJSON(t, handler, userID, http.MethodPost, "/checkout/verify", body)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	var created models.Order
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &created))
	require.NotEmpty(t, created.OrderNumber)

	// The gateway delivers the callback at least once; a second delivery
	// must return the order the first one created, not mint another.
	second := performJSON(t, handler, userID, http.MethodPost, "/checkout/verify", body)
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())

	var replayed models.Order
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &replayed))
	assert.Equal(t, created.ID, replayed.ID)
	assert.Equal(t, created.OrderNumber, replayed.OrderNumber)

	count, err := suite.db.Collection("orders").CountDocuments(ctx,
		bson.M{"payment.gatewayOrderId": paymentOrder.GatewayOrderID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// Stock was decremented exactly once.
	assert.Equal(t, 8, suite.productQuantity(product.ID))
}

func (suite *mongoHandlerSuite) TestVerifyPaymentStockRanOut() {
	t := suite.T()
	ctx := context.Background()

	product := suite.insertProduct(1)
	userID := primitive.NewObjectID()
	paymentOrder := suite.insertPaymentOrder(userID, product, 3)

	handler := VerifyPayment(suite.db, approveAllGateway{})
	w := performJSON(t, handler, userID, http.MethodPost, "/checkout/verify", gin.H{
		"razorpayOrderId":   paymentOrder.GatewayOrderID,
		"razorpayPaymentId": "pay_" + uuid.NewString(),
		"razorpaySignature": "accepted-by-stub",
	})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var stored models.PaymentOrder
	err := suite.db.Collection("payment_orders").FindOne(ctx,
		bson.M{"gatewayOrderId": paymentOrder.GatewayOrderID}).Decode(&stored)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentOrderReconciliation, stored.Status)

	count, err := suite.db.Collection("orders").CountDocuments(ctx,
		bson.M{"payment.gatewayOrderId": paymentOrder.GatewayOrderID})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, 1, suite.productQuantity(product.ID))
}
