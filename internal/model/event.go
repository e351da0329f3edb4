package model

import "time"

// Order event types broadcast to sellers.
const (
	OrderEventPlaced        = "order.placed"
	OrderEventStatusChanged = "order.status_changed"
)

// OrderEvent reports an order creation or an applied status transition.
type OrderEvent struct {
	Type  string    `json:"type"`
	Order *Order    `json:"order"`
	At    time.Time `json:"at"`
}
