package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"sugarsphere/internal/models"
	"sugarsphere/internal/payment"
	"sugarsphere/internal/pricing"
)

type checkoutRequest struct {
	Source          string                 `json:"source"`
	ProductID       string                 `json:"productId"`
	Quantity        int                    `json:"quantity"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
}

type verifyPaymentRequest struct {
	GatewayOrderID string `json:"razorpayOrderId" binding:"required"`
	PaymentID      string `json:"razorpayPaymentId" binding:"required"`
	Signature      string `json:"razorpaySignature" binding:"required"`
}

type insufficientStockError struct {
	ProductID primitive.ObjectID
	Available int
	Requested int
}

func (e insufficientStockError) Error() string {
	return "insufficient stock"
}

// InitiateCheckout turns the cart (or a single buy-now item) into a
// gateway order. Lines and totals are computed server-side from the
// catalog and the stored cart; anything the client submits about money
// is ignored. Nothing here reserves stock: the authoritative check is
// the guarded decrement at order creation.
func InitiateCheckout(db *mongo.Database, gw payment.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		source := req.Source
		if source == "" {
			source = models.CheckoutSourceCart
		}
		if source != models.CheckoutSourceCart && source != models.CheckoutSourceBuyNow {
			respondWithError(c, http.StatusBadRequest, route, "invalid checkout source")
			return
		}

		if err := validateShippingAddress(req.ShippingAddress); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		address := normalizeShippingAddress(req.ShippingAddress)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		var lines []models.OrderLine
		var err error
		switch source {
		case models.CheckoutSourceCart:
			lines, err = cartCheckoutLines(ctx, db, userID)
		case models.CheckoutSourceBuyNow:
			lines, err = buyNowCheckoutLines(ctx, db, req.ProductID, req.Quantity)
		}
		if err != nil {
			var stockErr insufficientStockError
			if errors.As(err, &stockErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "insufficient stock",
					"productId": stockErr.ProductID.Hex(),
					"available": stockErr.Available,
					"requested": stockErr.Requested,
				})
				return
			}
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		totals := pricing.Compute(lines)
		amountPaise := pricing.Paise(totals.Total)
		receipt := "rcpt_" + uuid.NewString()

		gatewayOrder, err := gw.CreateOrder(ctx, amountPaise, pricing.Currency, receipt)
		if err != nil {
			var unavailable *payment.UnavailableError
			if errors.As(err, &unavailable) {
				respondWithError(c, http.StatusServiceUnavailable, route, "payment gateway unavailable, retry checkout")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "payment gateway error")
			return
		}

		now := time.Now()
		paymentOrder := models.PaymentOrder{
			GatewayOrderID:  gatewayOrder.OrderID,
			UserID:          userID,
			Source:          source,
			Lines:           lines,
			ShippingAddress: address,
			Subtotal:        totals.Subtotal,
			Tax:             totals.Tax,
			ShippingCost:    totals.ShippingCost,
			TotalAmount:     totals.Total,
			AmountPaise:     amountPaise,
			Currency:        gatewayOrder.Currency,
			Receipt:         receipt,
			Status:          models.PaymentOrderCreated,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if _, err := db.Collection("payment_orders").InsertOne(ctx, paymentOrder); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] user=%s gatewayOrder=%s amountPaise=%d source=%s",
			route, userID.Hex(), gatewayOrder.OrderID, amountPaise, source)

		c.JSON(http.StatusCreated, gin.H{
			"orderId":      gatewayOrder.OrderID,
			"amount":       gatewayOrder.Amount,
			"currency":     gatewayOrder.Currency,
			"key":          gatewayOrder.Key,
			"subtotal":     totals.Subtotal,
			"tax":          totals.Tax,
			"shippingCost": totals.ShippingCost,
			"totalAmount":  totals.Total,
		})
	}
}

func cartCheckoutLines(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) ([]models.OrderLine, error) {
	cart, err := loadCart(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, errors.New("cart is empty")
	}

	lines := make([]models.OrderLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		if err := checkAvailability(ctx, db, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, models.OrderLine{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Price:        item.Price,
			Quantity:     item.Quantity,
			Subtotal:     pricing.LineSubtotal(item.Price, item.Quantity),
		})
	}
	return lines, nil
}

func buyNowCheckoutLines(ctx context.Context, db *mongo.Database, productIDHex string, quantity int) ([]models.OrderLine, error) {
	productID, err := primitive.ObjectIDFromHex(productIDHex)
	if err != nil {
		return nil, errors.New("invalid productId")
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, errors.New("quantity must be at least 1")
	}

	var product models.Product
	if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("product not found")
		}
		return nil, err
	}

	if product.Quantity < quantity {
		return nil, insufficientStockError{
			ProductID: productID,
			Available: product.Quantity,
			Requested: quantity,
		}
	}

	return []models.OrderLine{{
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductImage: product.ImageURL,
		Price:        product.Price,
		Quantity:     quantity,
		Subtotal:     pricing.LineSubtotal(product.Price, quantity),
	}}, nil
}

// checkAvailability is the soft pre-gateway stock check.
func checkAvailability(ctx context.Context, db *mongo.Database, productID primitive.ObjectID, quantity int) error {
	var product models.Product
	if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		if err == mongo.ErrNoDocuments {
			return errors.New("product no longer available: " + productID.Hex())
		}
		return err
	}
	if product.Quantity < quantity {
		return insufficientStockError{
			ProductID: productID,
			Available: product.Quantity,
			Requested: quantity,
		}
	}
	return nil
}

// VerifyPayment is the payment callback: it checks the proof against the
// recorded gateway order and, exactly once per gateway order id, creates
// the persisted order while atomically decrementing stock. Replays of
// the same callback return the already-created order.
func VerifyPayment(db *mongo.Database, gw payment.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout/verify"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req verifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		// Idempotency fast path: an order for this gateway order id
		// means a previous delivery of this callback already succeeded.
		if existing, err := findOrderByGatewayOrderID(ctx, db, req.GatewayOrderID); err == nil {
			if existing.UserID != userID {
				respondWithError(c, http.StatusForbidden, route, "forbidden")
				return
			}
			log.Printf("[%s] replay for gatewayOrder=%s, returning order %s", route, req.GatewayOrderID, existing.OrderNumber)
			c.JSON(http.StatusOK, existing)
			return
		} else if err != mongo.ErrNoDocuments {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var paymentOrder models.PaymentOrder
		err := db.Collection("payment_orders").FindOne(ctx, bson.M{
			"gatewayOrderId": req.GatewayOrderID,
			"userId":         userID,
		}).Decode(&paymentOrder)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "unknown payment order")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		// Fail closed on any proof mismatch. The proof is bound to the
		// recorded amount through the gateway order id: the signature
		// covers the id pair, and the id maps to the amount we asked
		// the gateway to collect.
		if !gw.VerifySignature(req.GatewayOrderID, req.PaymentID, req.Signature) {
			log.Printf("[%s] [ERROR] signature mismatch for gatewayOrder=%s", route, req.GatewayOrderID)
			respondWithError(c, http.StatusBadRequest, route, "payment verification failed")
			return
		}

		order, err := createOrderFromPayment(ctx, db, paymentOrder, req)
		if err != nil {
			var stockErr insufficientStockError
			if errors.As(err, &stockErr) {
				// Money was captured but stock ran out since checkout
				// started. No order is created; the payment order goes
				// to the operator reconciliation queue.
				markReconciliationRequired(db, paymentOrder.GatewayOrderID, stockErr)
				c.JSON(http.StatusConflict, gin.H{
					"error":     "insufficient stock",
					"productId": stockErr.ProductID.Hex(),
					"available": stockErr.Available,
					"requested": stockErr.Requested,
					"note":      "payment captured, queued for manual reconciliation",
				})
				return
			}
			if mongo.IsDuplicateKeyError(err) {
				// Lost the race against a concurrent replay; the other
				// delivery created the order.
				if existing, findErr := findOrderByGatewayOrderID(ctx, db, req.GatewayOrderID); findErr == nil {
					c.JSON(http.StatusOK, existing)
					return
				}
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		// Only a cart-based checkout consumes the cart; buy-now leaves
		// it untouched.
		if paymentOrder.Source == models.CheckoutSourceCart {
			if err := clearCartAfterOrder(ctx, db, userID); err != nil {
				log.Printf("[%s] [ERROR] cart clear failed for user=%s: %v", route, userID.Hex(), err)
			}
		}

		log.Printf("[%s] order %s created for gatewayOrder=%s total=%.2f",
			route, order.OrderNumber, req.GatewayOrderID, order.TotalAmount)
		c.JSON(http.StatusCreated, order)
	}
}

func findOrderByGatewayOrderID(ctx context.Context, db *mongo.Database, gatewayOrderID string) (models.Order, error) {
	var order models.Order
	err := db.Collection("orders").FindOne(ctx, bson.M{"payment.gatewayOrderId": gatewayOrderID}).Decode(&order)
	return order, err
}

// createOrderFromPayment runs the stock decrement and order insert in
// one transaction. Totals are recomputed from the payment order's own
// line snapshots; the verify payload carries no money fields at all.
func createOrderFromPayment(ctx context.Context, db *mongo.Database, paymentOrder models.PaymentOrder, req verifyPaymentRequest) (models.Order, error) {
	session, err := db.Client().StartSession()
	if err != nil {
		return models.Order{}, err
	}
	defer session.EndSession(ctx)

	totals := pricing.Compute(paymentOrder.Lines)

	order := models.Order{
		UserID:          paymentOrder.UserID,
		OrderNumber:     models.NewOrderNumber(),
		Items:           paymentOrder.Lines,
		ShippingAddress: paymentOrder.ShippingAddress,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		ShippingCost:    totals.ShippingCost,
		TotalAmount:     totals.Total,
		PaymentMethod:   "razorpay",
		PaymentStatus:   models.PaymentStatusCompleted,
		Payment: models.PaymentReference{
			GatewayOrderID: req.GatewayOrderID,
			PaymentID:      req.PaymentID,
			Signature:      req.Signature,
		},
		CreatedAt: time.Now(),
	}
	order.AddStatus(models.OrderStatusConfirmed, "Order confirmed and payment received")

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		for _, line := range order.Items {
			var product models.Product
			findErr := db.Collection("products").FindOne(sessCtx, bson.M{"_id": line.ProductID}).Decode(&product)
			if findErr == mongo.ErrNoDocuments {
				return nil, insufficientStockError{ProductID: line.ProductID, Available: 0, Requested: line.Quantity}
			}
			if findErr != nil {
				return nil, findErr
			}

			// The guarded update is the authority; the read above only
			// provides the available count for the error payload.
			res, updErr := db.Collection("products").UpdateOne(
				sessCtx,
				bson.M{"_id": line.ProductID, "quantity": bson.M{"$gte": line.Quantity}},
				bson.M{"$inc": bson.M{"quantity": -line.Quantity}},
			)
			if updErr != nil {
				return nil, updErr
			}
			if res.MatchedCount == 0 {
				return nil, insufficientStockError{
					ProductID: line.ProductID,
					Available: product.Quantity,
					Requested: line.Quantity,
				}
			}
		}

		res, insErr := db.Collection("orders").InsertOne(sessCtx, order)
		if insErr != nil {
			return nil, insErr
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			order.ID = id
		}

		_, updErr := db.Collection("payment_orders").UpdateOne(
			sessCtx,
			bson.M{"gatewayOrderId": paymentOrder.GatewayOrderID},
			bson.M{"$set": bson.M{
				"status":    models.PaymentOrderCompleted,
				"updatedAt": time.Now(),
			}},
		)
		return nil, updErr
	})
	if err != nil {
		return models.Order{}, err
	}

	return order, nil
}

func markReconciliationRequired(db *mongo.Database, gatewayOrderID string, stockErr insufficientStockError) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := db.Collection("payment_orders").UpdateOne(
		ctx,
		bson.M{"gatewayOrderId": gatewayOrderID},
		bson.M{"$set": bson.M{
			"status": models.PaymentOrderReconciliation,
			"note": "verified payment with insufficient stock for product " +
				stockErr.ProductID.Hex(),
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		log.Println("[CHECKOUT] [ERROR] could not flag payment order for reconciliation:", err)
	}
}

func clearCartAfterOrder(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) error {
	_, err := db.Collection("carts").UpdateOne(
		ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{
			"items":       []models.CartItem{},
			"totalAmount": 0.0,
			"itemCount":   0,
			"updatedAt":   time.Now(),
		}},
	)
	return err
}
