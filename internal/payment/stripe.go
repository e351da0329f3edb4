package payment

import (
	"context"
	"encoding/json"
	"strings"

	"greencart/internal/lifecycle"
	"greencart/internal/model"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeOptions configures the Stripe gateway.
type StripeOptions struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	FrontendURL   string
	// Backend overrides the API backend. Nil uses the default Stripe API.
	Backend stripe.Backend
}

type stripeGateway struct {
	sessions      *session.Client
	webhookSecret string
	currency      string
	frontendURL   string
	logger        zerolog.Logger
}

// NewStripeGateway creates a Gateway backed by Stripe Checkout.
func NewStripeGateway(opts StripeOptions, logger zerolog.Logger) Gateway {
	backend := opts.Backend
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	currency := opts.Currency
	if currency == "" {
		currency = "inr"
	}

	return &stripeGateway{
		sessions:      &session.Client{B: backend, Key: opts.SecretKey},
		webhookSecret: opts.WebhookSecret,
		currency:      currency,
		frontendURL:   strings.TrimRight(opts.FrontendURL, "/"),
		logger:        logger.With().Str("component", "stripe").Logger(),
	}
}

func (g *stripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if len(req.Items) == 0 {
		return nil, errors.New("checkout without line items")
	}

	origin := strings.TrimRight(req.Origin, "/")
	if origin == "" {
		origin = g.frontendURL
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(origin + "/loader?next=my-orders"),
		CancelURL:  stripe.String(origin + "/cart"),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				MetadataOrderID: req.OrderID,
				MetadataUserID:  req.UserID,
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataOrderID, req.OrderID)
	params.AddMetadata(MetadataUserID, req.UserID)

	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	s, err := g.sessions.New(params)
	if err != nil {
		g.logger.Error().Err(err).Str("order_id", req.OrderID).Msg("failed to create checkout session")
		return nil, model.ErrExternalGateway.Wrap("Failed to create payment session", errors.Wrap(err, "create checkout session"))
	}

	g.logger.Info().
		Str("order_id", req.OrderID).
		Str("session_id", s.ID).
		Msg("checkout session created")

	return &Checkout{SessionID: s.ID, URL: s.URL}, nil
}

func (g *stripeGateway) ParseEvent(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, model.ErrSignatureInvalid.Wrap("Webhook signature verification failed", err)
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}

	switch ev.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return Event{}, errors.Wrapf(err, "decode %s", ev.Type)
		}
		out.Kind = lifecycle.EventSessionExpired
		if ev.Type == stripe.EventTypeCheckoutSessionCompleted {
			out.Kind = lifecycle.EventPaymentCompleted
		}
		out.SessionID = s.ID
		out.OrderID = s.Metadata[MetadataOrderID]
		out.UserID = s.Metadata[MetadataUserID]
		if s.PaymentIntent != nil {
			out.PaymentIntentID = s.PaymentIntent.ID
		}

	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return Event{}, errors.Wrapf(err, "decode %s", ev.Type)
		}
		out.Kind = lifecycle.EventPaymentFailed
		out.PaymentIntentID = pi.ID
		out.OrderID = pi.Metadata[MetadataOrderID]
		out.UserID = pi.Metadata[MetadataUserID]
	}

	return out, nil
}

func (g *stripeGateway) OrderIDForPaymentIntent(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.CheckoutSessionListParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := g.sessions.List(params)
	for it.Next() {
		if id := it.CheckoutSession().Metadata[MetadataOrderID]; id != "" {
			return id, nil
		}
	}
	if err := it.Err(); err != nil {
		return "", model.ErrExternalGateway.Wrap("Failed to look up payment session", errors.Wrap(err, "list checkout sessions"))
	}
	return "", nil
}
