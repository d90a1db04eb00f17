package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayGateway implements Gateway against the Razorpay Orders API.
type RazorpayGateway struct {
	client *razorpay.Client
	keyID  string
	secret string
}

func NewRazorpayGateway(keyID, secret string) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(keyID, secret),
		keyID:  keyID,
		secret: secret,
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":          amountPaise,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		log.Println("[PAYMENT] [ERROR] gateway order create failed:", err)
		return GatewayOrder{}, &UnavailableError{Err: err}
	}

	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return GatewayOrder{}, &UnavailableError{Err: errors.New("gateway response missing order id")}
	}

	return GatewayOrder{
		OrderID:  orderID,
		Amount:   amountPaise,
		Currency: currency,
		Key:      g.keyID,
	}, nil
}

// VerifySignature checks the HMAC-SHA256 of "orderId|paymentId" against
// the callback signature. The amount check happens at the caller against
// the recorded gateway order; the signature alone only proves the id
// pair, which is why verification is not delegated to the SDK helper.
func (g *RazorpayGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return checkSignature(gatewayOrderID+"|"+paymentID, signature, g.secret)
}

func checkSignature(payload, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
