// Package payment is the boundary to the external payment provider.
package payment

import "context"

// GatewayOrder is the provider-side order handed back to the client so
// it can drive the out-of-band payment interaction.
type GatewayOrder struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

// Gateway is the contract the checkout path depends on. Amounts are
// integer minor units (paise).
type Gateway interface {
	// CreateOrder registers a payment attempt with the provider.
	// Transient provider failures come back as *UnavailableError and
	// are safe for the shopper to retry from scratch.
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (GatewayOrder, error)

	// VerifySignature checks the callback proof against the shared
	// secret. A false return is terminal for that proof.
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

// UnavailableError marks a transient gateway failure.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return "payment gateway unavailable: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
