package service

import (
	"context"
	"time"

	"greencart/internal/model"
	"greencart/internal/payment"

	"github.com/google/uuid"
)

// ProductService defines operations for the product catalogue.
type ProductService interface {
	// List retrieves every product.
	List(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product. Missing products return model.ErrProductNotFound.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves the products that exist among ids.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// Add creates a product from a seller request.
	Add(ctx context.Context, req *model.ProductRequest) (*model.Product, error)

	// ChangeStock toggles a product's availability.
	ChangeStock(ctx context.Context, req *model.StockRequest) error
}

// AddressService defines operations for shipping addresses.
type AddressService interface {
	// Add validates and stores an address for userID.
	Add(ctx context.Context, userID string, address *model.Address) (*model.Address, error)

	// ListByUser retrieves a user's addresses.
	ListByUser(ctx context.Context, userID string) ([]model.Address, error)

	// GetByID retrieves a single address. Missing addresses return model.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Address, error)
}

// CartService is the server side of cart persistence.
type CartService interface {
	// Get returns the stored cart, or an empty cart.
	Get(ctx context.Context, userID string) (model.Cart, error)

	// Replace overwrites the stored cart and returns what was stored.
	Replace(ctx context.Context, userID string, cart model.Cart) (model.Cart, error)
}

// OrderService drives checkout and the order lifecycle.
type OrderService interface {
	// PlaceOrder validates, prices and persists an order. Online orders also
	// open a hosted checkout whose URL is returned.
	PlaceOrder(ctx context.Context, userID string, req *model.OrderRequest, paymentType model.PaymentType, origin string) (*model.PlacedOrder, error)

	// HandleEvent applies a verified payment event. Replays are no-ops.
	HandleEvent(ctx context.Context, ev payment.Event) error

	// ListUserOrders returns a user's visible orders, newest first.
	ListUserOrders(ctx context.Context, userID string) ([]model.OrderView, error)

	// ListAllOrders returns every visible order, newest first.
	ListAllOrders(ctx context.Context) ([]model.OrderView, error)

	// ExpireStale expires online orders still awaiting payment that were
	// created before cutoff. Returns how many were expired.
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}

// Publisher receives order events.
type Publisher interface {
	Publish(ev model.OrderEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(model.OrderEvent) {}
