package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sugarsphere/internal/database"
	"sugarsphere/internal/models"
	"sugarsphere/internal/payment"
	"sugarsphere/internal/pricing"
)

// mongoHandlerSuite runs the handlers against a real MongoDB. The order
// pipeline uses transactions, so the container is started as a
// single-node replica set.
type mongoHandlerSuite struct {
	suite.Suite

	client    *mongo.Client
	db        *mongo.Database
	container testcontainers.Container
}

// entry point to run the tests in the suite
func TestMongoHandlerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	suite.Run(t, new(mongoHandlerSuite))
}

// before all tests in the suite
func (suite *mongoHandlerSuite) SetupSuite() {
	ctx := context.Background()

	var (
		uri string
		err error
	)

	suite.container, uri, err = startMongo(ctx)
	suite.Require().NoError(err)

	suite.client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	suite.Require().NoError(err)

	suite.db = suite.client.Database("sugarsphere_test")
	suite.Require().NoError(database.EnsureProductIndexes(suite.db))
	suite.Require().NoError(database.EnsureOrderIndexes(suite.db))
	suite.Require().NoError(database.EnsurePaymentOrderIndexes(suite.db))
}

// after all tests in the suite
func (suite *mongoHandlerSuite) TearDownSuite() {
	ctx := context.Background()

	if suite.client != nil {
		suite.NoError(suite.client.Disconnect(ctx))
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(ctx))
	}
}

func startMongo(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	if err != nil {
		return nil, "", err
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		return container, "", err
	}

	return container, uri, nil
}

// performJSON drives a handler factory's product through a synthetic gin
// context, the way the router would, with the auth middleware's context
// keys pre-set.
func performJSON(t *testing.T, handler gin.HandlerFunc, userID primitive.ObjectID, method, target string, body interface{}, params ...gin.Param) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	c.Set("userId", userID)
	c.Set("role", "user")

	handler(c)
	return w
}

func (suite *mongoHandlerSuite) insertProduct(quantity int) models.Product {
	t := suite.T()
	now := time.Now()

	product := models.Product{
		Name:      gofakeit.ProductName(),
		Category:  "sweets",
		Price:     250,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := suite.db.Collection("products").InsertOne(context.Background(), product)
	require.NoError(t, err)

	id, ok := res.InsertedID.(primitive.ObjectID)
	require.True(t, ok)
	product.ID = id
	return product
}

func (suite *mongoHandlerSuite) insertPaymentOrder(userID primitive.ObjectID, product models.Product, quantity int) models.PaymentOrder {
	t := suite.T()

	lines := []models.OrderLine{{
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
		Quantity:    quantity,
		Subtotal:    pricing.LineSubtotal(product.Price, quantity),
	}}
	totals := pricing.Compute(lines)

	now := time.Now()
	paymentOrder := models.PaymentOrder{
		GatewayOrderID: "order_" + uuid.NewString(),
		UserID:         userID,
		Source:         models.CheckoutSourceBuyNow,
		Lines:          lines,
		ShippingAddress: models.ShippingAddress{
			FullName:     gofakeit.Name(),
			Phone:        "9876543210",
			AddressLine1: gofakeit.Street(),
			City:         gofakeit.City(),
			State:        gofakeit.State(),
			PostalCode:   gofakeit.Zip(),
			Country:      "India",
		},
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		ShippingCost: totals.ShippingCost,
		TotalAmount:  totals.Total,
		AmountPaise:  pricing.Paise(totals.Total),
		Currency:     pricing.Currency,
		Receipt:      "rcpt_" + uuid.NewString(),
		Status:       models.PaymentOrderCreated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := suite.db.Collection("payment_orders").InsertOne(context.Background(), paymentOrder)
	require.NoError(t, err)
	return paymentOrder
}

func (suite *mongoHandlerSuite) productQuantity(id primitive.ObjectID) int {
	t := suite.T()

	var product models.Product
	err := suite.db.Collection("products").FindOne(context.Background(), bson.M{"_id": id}).Decode(&product)
	require.NoError(t, err)
	return product.Quantity
}

// approveAllGateway stands in for the payment provider: every proof
// verifies. Signature checking itself is covered in internal/payment.
type approveAllGateway struct{}

func (approveAllGateway) CreateOrder(_ context.Context, amountPaise int64, currency, _ string) (payment.GatewayOrder, error) {
	return payment.GatewayOrder{
		OrderID:  "order_" + uuid.NewString(),
		Amount:   amountPaise,
		Currency: currency,
	}, nil
}

func (approveAllGateway) VerifySignature(_, _, _ string) bool {
	return true
}
