package repository

import (
	"context"
	"time"

	"greencart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves every product, newest first.
	GetAll(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product. Returns nil, nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves the products that exist among ids.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// SetStock updates a product's availability. Returns false when absent.
	SetStock(ctx context.Context, id string, inStock bool) (bool, error)
}

// AddressRepository defines the interface for address data access operations.
type AddressRepository interface {
	// Create inserts a new address.
	Create(ctx context.Context, address *model.Address) error

	// ListByUser retrieves a user's addresses, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.Address, error)

	// GetByID retrieves a single address. Returns nil, nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Address, error)

	// GetByIDs retrieves the addresses that exist among ids.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Address, error)
}

// CartRepository persists one cart document per user.
type CartRepository interface {
	// Get returns the stored cart, or an empty cart when none exists.
	Get(ctx context.Context, userID string) (model.Cart, error)

	// Replace overwrites the whole stored cart in one write.
	Replace(ctx context.Context, userID string, cart model.Cart) error
}

// StatusUpdate is a compare-and-set on an order's status.
type StatusUpdate struct {
	OrderID    uuid.UUID
	FromStatus model.OrderStatus
	ToStatus   model.OrderStatus
	IsPaid     bool
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order with its items. Returns nil, nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// List retrieves visible orders (COD or paid) with their items, newest first.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// UpdateStatus applies u only if the order is still in u.FromStatus.
	// Returns the updated order, or nil when the status had already moved.
	UpdateStatus(ctx context.Context, u StatusUpdate) (*model.Order, error)

	// ListStalePending returns unpaid online orders still awaiting payment that
	// were created before cutoff.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error)

	// CreatePaymentSession records the provider session opened for an order.
	CreatePaymentSession(ctx context.Context, session *model.PaymentSession) error

	// AttachPaymentIntent links a payment intent to the session's order.
	AttachPaymentIntent(ctx context.Context, sessionID, paymentIntentID string) error

	// OrderIDByPaymentIntent resolves the order a payment intent belongs to.
	// Returns uuid.Nil, nil when the intent is unknown.
	OrderIDByPaymentIntent(ctx context.Context, paymentIntentID string) (uuid.UUID, error)
}
