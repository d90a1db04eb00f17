package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sugarsphere/internal/models"
)

var knownOrderStatuses = map[string]bool{
	models.OrderStatusPending:    true,
	models.OrderStatusConfirmed:  true,
	models.OrderStatusProcessing: true,
	models.OrderStatusShipped:    true,
	models.OrderStatusDelivered:  true,
	models.OrderStatusCancelled:  true,
}

func isTerminalOrderStatus(status string) bool {
	return status == models.OrderStatusDelivered || status == models.OrderStatusCancelled
}

type invalidTransitionError struct {
	From string
	To   string
}

func (e invalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// validateStatusTransition enforces terminality only: a delivered or
// cancelled order never moves again, while backward moves between live
// statuses (e.g. shipped back to processing) are allowed so an admin
// can correct mistakes.
func validateStatusTransition(from, to string) error {
	if !knownOrderStatuses[to] {
		return fmt.Errorf("unknown order status: %s", to)
	}
	if isTerminalOrderStatus(from) {
		return invalidTransitionError{From: from, To: to}
	}
	return nil
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// UpdateOrderStatus applies an admin-initiated transition, appending
// exactly one history entry. The update is guarded on the status the
// transition was validated against so a concurrent admin action cannot
// slip a transition out of a terminal state.
func UpdateOrderStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/orders/:id/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "order not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := validateStatusTransition(order.OrderStatus, req.Status); err != nil {
			respondWithError(c, http.StatusConflict, route, err.Error())
			return
		}

		message := req.Note
		if message == "" {
			message = "Order status updated to " + req.Status
		}

		now := time.Now()
		entry := models.StatusHistory{Status: req.Status, Message: message, Timestamp: now}

		var updated models.Order
		err = db.Collection("orders").FindOneAndUpdate(
			ctx,
			bson.M{"_id": orderID, "orderStatus": order.OrderStatus},
			bson.M{
				"$set":  bson.M{"orderStatus": req.Status, "updatedAt": now},
				"$push": bson.M{"statusHistory": entry},
			},
			mongoReturnAfter(),
		).Decode(&updated)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusConflict, route, "order status changed concurrently, retry")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

func GetUserOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("orders").Find(ctx, bson.M{"userId": userID}, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "order not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if order.UserID != userID && !isAdmin(c) {
			respondWithError(c, http.StatusForbidden, route, "forbidden")
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

// CancelOrder is the shopper-initiated cancel. Unlike the admin machine
// it only applies before fulfilment starts (pending or confirmed).
func CancelOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/cancel"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID, "userId": userID}).Decode(&order); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "order not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if order.OrderStatus != models.OrderStatusPending && order.OrderStatus != models.OrderStatusConfirmed {
			respondWithError(c, http.StatusConflict, route, "order cannot be cancelled at this stage")
			return
		}

		now := time.Now()
		set := bson.M{
			"orderStatus": models.OrderStatusCancelled,
			"updatedAt":   now,
		}
		if order.PaymentStatus == models.PaymentStatusCompleted {
			set["paymentStatus"] = models.PaymentStatusRefunded
		}
		entry := models.StatusHistory{
			Status:    models.OrderStatusCancelled,
			Message:   "Order cancelled by user",
			Timestamp: now,
		}

		var updated models.Order
		err = db.Collection("orders").FindOneAndUpdate(
			ctx,
			bson.M{"_id": orderID, "orderStatus": order.OrderStatus},
			bson.M{"$set": set, "$push": bson.M{"statusHistory": entry}},
			mongoReturnAfter(),
		).Decode(&updated)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusConflict, route, "order status changed concurrently, retry")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}
