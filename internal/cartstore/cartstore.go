// Package cartstore holds a shopper's cart on the client side and keeps it in
// sync with the server. A Store belongs to one session; nothing is global.
package cartstore

import (
	"context"
	"time"

	"greencart/internal/model"

	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period before a cart change is pushed.
const DefaultDebounce = time.Second

// Remote is the server side of the cart for the signed-in user.
type Remote interface {
	// Get returns the stored cart.
	Get(ctx context.Context) (model.Cart, error)
	// Replace overwrites the stored cart with cart.
	Replace(ctx context.Context, cart model.Cart) error
}

// OrderPlacer submits checkout requests.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req model.OrderRequest, paymentType model.PaymentType) (*model.PlacedOrder, error)
}

// Notifier surfaces short messages to the shopper.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
	// PromptLogin asks the shopper to sign in.
	PromptLogin()
}

type logNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier returns a Notifier that writes to logger.
func NewLogNotifier(logger zerolog.Logger) Notifier {
	return &logNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

func (n *logNotifier) Success(msg string) { n.logger.Info().Str("kind", "success").Msg(msg) }
func (n *logNotifier) Info(msg string)    { n.logger.Info().Str("kind", "info").Msg(msg) }
func (n *logNotifier) Error(msg string)   { n.logger.Warn().Str("kind", "error").Msg(msg) }
func (n *logNotifier) PromptLogin()       { n.logger.Info().Str("kind", "login").Msg("login required") }
