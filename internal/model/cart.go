package model

import "fmt"

// Cart maps product IDs to desired quantities for one user.
type Cart map[string]int

// CartRequest is the payload of POST /api/cart/update.
type CartRequest struct {
	CartItems Cart `json:"cartItems"`
}

// Validate checks that the cart is a well-formed mapping.
func (c Cart) Validate() error {
	if c == nil {
		return ErrValidation.WithMessage("Invalid cart items provided")
	}
	for id, qty := range c {
		if id == "" {
			return ErrValidation.WithMessage("cart item has an empty product id")
		}
		if qty <= 0 {
			return ErrValidation.WithMessage(fmt.Sprintf("cart item %s has non-positive quantity %d", id, qty))
		}
	}
	return nil
}

// Clone returns an independent copy of the cart.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for id, qty := range c {
		out[id] = qty
	}
	return out
}

// Reconcile returns a copy of the cart without entries that are unknown to the
// catalog or carry a non-positive quantity.
func (c Cart) Reconcile(catalog Catalog) Cart {
	out := make(Cart, len(c))
	for id, qty := range c {
		if qty <= 0 {
			continue
		}
		if _, ok := catalog[id]; !ok {
			continue
		}
		out[id] = qty
	}
	return out
}
