package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle label persisted on an order.
type OrderStatus string

const (
	StatusOrderPlaced      OrderStatus = "Order Placed"
	StatusPaymentConfirmed OrderStatus = "Payment Confirmed"
	StatusSessionExpired   OrderStatus = "Payment Failed - Session Expired"
	StatusPaymentFailed    OrderStatus = "Payment Failed"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusOrderPlaced, StatusPaymentConfirmed, StatusSessionExpired, StatusPaymentFailed:
		return true
	}
	return false
}

// PaymentType is the payment mode chosen at checkout.
type PaymentType string

const (
	PaymentCOD    PaymentType = "COD"
	PaymentOnline PaymentType = "Online"
)

// Order represents a customer order.
type Order struct {
	ID          uuid.UUID       `json:"_id" db:"id"`
	UserID      string          `json:"userId" db:"user_id"`
	Items       []OrderItem     `json:"items"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	AddressID   uuid.UUID       `json:"address" db:"address_id"`
	Status      OrderStatus     `json:"status" db:"status"`
	PaymentType PaymentType     `json:"paymentType" db:"payment_type"`
	IsPaid      bool            `json:"isPaid" db:"is_paid"`
	PromoCode   *string         `json:"promoCode,omitempty" db:"promo_code"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ID        uuid.UUID `json:"-" db:"id"`
	OrderID   uuid.UUID `json:"-" db:"order_id"`
	Position  int       `json:"-" db:"position"`
	ProductID string    `json:"product" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// OrderRequest represents the request payload for placing an order.
type OrderRequest struct {
	Items     []OrderItemRequest `json:"items"`
	Address   string             `json:"address"`
	PromoCode string             `json:"promoCode,omitempty"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// PlacedOrder is the result of a checkout submit.
type PlacedOrder struct {
	Order *Order
	// URL is the hosted payment page for online orders.
	URL string
}

// OrderView is an order with its products and address populated.
type OrderView struct {
	ID          uuid.UUID       `json:"_id"`
	UserID      string          `json:"userId"`
	Items       []OrderItemView `json:"items"`
	Amount      decimal.Decimal `json:"amount"`
	Address     *Address        `json:"address"`
	Status      OrderStatus     `json:"status"`
	PaymentType PaymentType     `json:"paymentType"`
	IsPaid      bool            `json:"isPaid"`
	PromoCode   *string         `json:"promoCode,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OrderItemView is a line item with its product populated. Product is nil when
// the product has since been removed from the catalogue.
type OrderItemView struct {
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
}

// OrderFilter selects orders for listing.
type OrderFilter struct {
	// UserID restricts to one user's orders when non-empty.
	UserID string
}

// PaymentSession links a provider checkout session to an order.
type PaymentSession struct {
	SessionID       string    `db:"session_id"`
	OrderID         uuid.UUID `db:"order_id"`
	PaymentIntentID *string   `db:"payment_intent_id"`
	CreatedAt       time.Time `db:"created_at"`
}
