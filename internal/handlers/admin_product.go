package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"sugarsphere/internal/models"
)

type productCreateRequest struct {
	Name        string   `json:"name" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" binding:"required"`
	Quantity    *int     `json:"quantity" binding:"required"`
	ImageURL    string   `json:"imageUrl"`
}

type productUpdateRequest struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	ImageURL    *string  `json:"imageUrl"`
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"
		defer handlePanic(c, route)

		var req productCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if *req.Price < 0 {
			respondWithError(c, http.StatusBadRequest, route, "price must not be negative")
			return
		}
		if *req.Quantity < 0 {
			respondWithError(c, http.StatusBadRequest, route, "quantity must not be negative")
			return
		}

		now := time.Now()
		product := models.Product{
			Name:        strings.TrimSpace(req.Name),
			Category:    strings.TrimSpace(req.Category),
			Description: strings.TrimSpace(req.Description),
			Price:       *req.Price,
			Quantity:    *req.Quantity,
			ImageURL:    strings.TrimSpace(req.ImageURL),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}
		product.InStock = product.Quantity > 0

		c.JSON(http.StatusCreated, product)
	}
}

func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req productUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		set := bson.M{"updatedAt": time.Now()}
		if req.Name != nil {
			set["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Category != nil {
			set["category"] = strings.TrimSpace(*req.Category)
		}
		if req.Description != nil {
			set["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Price != nil {
			if *req.Price < 0 {
				respondWithError(c, http.StatusBadRequest, route, "price must not be negative")
				return
			}
			set["price"] = *req.Price
		}
		if req.Quantity != nil {
			if *req.Quantity < 0 {
				respondWithError(c, http.StatusBadRequest, route, "quantity must not be negative")
				return
			}
			set["quantity"] = *req.Quantity
		}
		if req.ImageURL != nil {
			set["imageUrl"] = strings.TrimSpace(*req.ImageURL)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": productID},
			bson.M{"$set": set},
			mongoReturnAfter(),
		).Decode(&product)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		product.InStock = product.Quantity > 0

		c.JSON(http.StatusOK, product)
	}
}

func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": productID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}

// RestockProduct is the ledger increment: admin-only, rejects
// negative quantities before touching the store. Zero is a valid
// no-op increment.
func RestockProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products/:id/restock"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req restockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.Quantity < 0 {
			respondWithError(c, http.StatusBadRequest, route, "quantity must not be negative")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": productID},
			bson.M{
				"$inc": bson.M{"quantity": req.Quantity},
				"$set": bson.M{"updatedAt": time.Now()},
			},
			mongoReturnAfter(),
		).Decode(&product)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		product.InStock = product.Quantity > 0

		c.JSON(http.StatusOK, product)
	}
}
