// Package payment adapts the hosted payment provider: it opens checkout
// sessions and turns signed webhook deliveries into order events.
package payment

import (
	"context"

	"greencart/internal/lifecycle"
	"greencart/internal/pricing"
)

// Metadata keys attached to every checkout session and payment intent.
const (
	MetadataOrderID = "orderId"
	MetadataUserID  = "userId"
)

// CheckoutRequest describes a hosted checkout for one order.
type CheckoutRequest struct {
	OrderID string
	UserID  string
	Items   []pricing.GatewayItem
	// Origin is the storefront origin used for the return URLs. Empty means
	// the configured frontend URL.
	Origin string
}

// Checkout is an opened hosted checkout.
type Checkout struct {
	SessionID string
	URL       string
}

// Event is a verified provider event reduced to what the order lifecycle needs.
type Event struct {
	ID   string
	Type string
	// Kind is empty for event types the lifecycle does not handle.
	Kind            lifecycle.EventType
	SessionID       string
	PaymentIntentID string
	OrderID         string
	UserID          string
}

// Handled reports whether the event maps to an order transition.
func (e Event) Handled() bool {
	return e.Kind != ""
}

// Gateway is the payment provider.
type Gateway interface {
	// CreateCheckout opens a hosted checkout session.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)

	// ParseEvent verifies the signature over the raw payload and decodes it.
	// Verification failures return model.ErrSignatureInvalid.
	ParseEvent(payload []byte, signature string) (Event, error)

	// OrderIDForPaymentIntent asks the provider which order a payment intent
	// was opened for. Returns "" when no session references it.
	OrderIDForPaymentIntent(ctx context.Context, paymentIntentID string) (string, error)
}
