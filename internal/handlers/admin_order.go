package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sugarsphere/internal/models"
)

func GetAllOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("orders").Find(ctx, bson.M{}, findOptions)
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

func DeleteOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("orders").DeleteOne(ctx, bson.M{"_id": orderID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}

// GetReconciliationQueue lists verified payments that could not produce
// an order because stock ran out: captured money with no fulfilment,
// awaiting an operator decision (refund or manual fulfilment).
func GetReconciliationQueue(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/reconciliation"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
		cursor, err := db.Collection("payment_orders").Find(
			ctx,
			bson.M{"status": models.PaymentOrderReconciliation},
			findOptions,
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		queue := make([]models.PaymentOrder, 0)
		if err := cursor.All(ctx, &queue); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, queue)
	}
}

func GetRevenueStats(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/revenue"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx, bson.M{})
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

		completed := lo.Filter(orders, func(o models.Order, _ int) bool {
			return o.PaymentStatus == models.PaymentStatusCompleted
		})

		today := time.Now().Truncate(24 * time.Hour)
		todayRevenue := lo.SumBy(
			lo.Filter(completed, func(o models.Order, _ int) bool {
				return !o.CreatedAt.Before(today)
			}),
			func(o models.Order) float64 { return o.TotalAmount },
		)

		pendingCount := lo.CountBy(orders, func(o models.Order) bool {
			return o.OrderStatus == models.OrderStatusPending || o.OrderStatus == models.OrderStatusConfirmed
		})

		c.JSON(http.StatusOK, gin.H{
			"totalRevenue":    lo.SumBy(completed, func(o models.Order) float64 { return o.TotalAmount }),
			"todayRevenue":    todayRevenue,
			"totalOrders":     len(orders),
			"completedOrders": len(completed),
			"pendingOrders":   pendingCount,
		})
	}
}
