package cartstore

import (
	"context"
	"sort"
	"sync"

	"greencart/internal/model"
	"greencart/internal/pricing"
	"greencart/internal/promo"
)

// Checkout is the checkout state of a session: the applied promo code lives
// here and not in the cart.
type Checkout struct {
	mu     sync.Mutex
	store  *Store
	placer OrderPlacer
	code   string
}

// Checkout opens checkout over the store's cart.
func (s *Store) Checkout(placer OrderPlacer) *Checkout {
	return &Checkout{store: s, placer: placer}
}

// ApplyPromo applies code. Re-applying the current code changes nothing.
func (c *Checkout) ApplyPromo(code string) error {
	normalised := promo.NormaliseCode(code)

	c.mu.Lock()
	if normalised != "" && normalised == c.code {
		c.mu.Unlock()
		c.store.notifier.Info("Promo code already applied")
		return nil
	}
	c.mu.Unlock()

	if _, ok := c.store.promos.Lookup(normalised); !ok {
		return c.store.fail(model.ErrInvalidPromoCode)
	}

	c.mu.Lock()
	c.code = normalised
	c.mu.Unlock()

	c.store.notifier.Success("Promo code applied")
	return nil
}

// RemovePromo clears the applied code.
func (c *Checkout) RemovePromo() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.code = ""
}

// PromoCode returns the applied code, or "".
func (c *Checkout) PromoCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

// Quote prices the cart with the applied code.
func (c *Checkout) Quote() (pricing.Breakdown, error) {
	return c.store.Quote(c.PromoCode())
}

// Place submits the cart as an order. On success the submitted quantities are
// removed from the local cart for both payment types; for online orders the
// returned URL is the hosted payment page.
func (c *Checkout) Place(ctx context.Context, addressID string, paymentType model.PaymentType) (*model.PlacedOrder, error) {
	if paymentType != model.PaymentCOD && paymentType != model.PaymentOnline {
		return nil, c.store.fail(model.ErrValidation.WithMessage("unknown payment type"))
	}

	s := c.store
	s.mu.Lock()
	userID, gen := s.userID, s.gen
	cart := s.cart.Clone()
	if len(s.catalog) > 0 {
		cart = cart.Reconcile(s.catalog)
	}
	s.mu.Unlock()

	if userID == "" {
		s.notifier.PromptLogin()
		return nil, model.ErrAuthRequired
	}
	if pricing.ItemCount(cart) == 0 {
		return nil, s.fail(model.ErrInvalidOrder.WithMessage("Your cart is empty"))
	}
	if addressID == "" {
		return nil, s.fail(model.ErrInvalidOrder.WithMessage("Please select an address"))
	}

	ids := make([]string, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	items := make([]model.OrderItemRequest, len(ids))
	for i, id := range ids {
		items[i] = model.OrderItemRequest{Product: id, Quantity: cart[id]}
	}

	placed, err := c.placer.PlaceOrder(ctx, model.OrderRequest{
		Items:     items,
		Address:   addressID,
		PromoCode: c.PromoCode(),
	}, paymentType)
	if err != nil {
		return nil, s.fail(err)
	}

	s.clearAfterOrder(gen, cart)
	c.RemovePromo()

	if paymentType == model.PaymentCOD {
		s.notifier.Success("Order Placed Successfully")
	}
	return placed, nil
}
