package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greencart/internal/lifecycle"
	"greencart/internal/model"
	"greencart/internal/payment"
	"greencart/internal/pricing"
	"greencart/internal/promo"
	"greencart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// staleBatchSize caps how many orders one expiry pass loads.
const staleBatchSize = 500

// OrderDeps holds the collaborators of the order service.
type OrderDeps struct {
	Orders    repository.OrderRepository
	Products  repository.ProductRepository
	Addresses repository.AddressRepository
	Carts     repository.CartRepository
	Promos    promo.Book
	Gateway   payment.Gateway
	// Publisher is optional.
	Publisher Publisher
}

// orderService implements OrderService.
type orderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	addresses repository.AddressRepository
	carts     repository.CartRepository
	promos    promo.Book
	gateway   payment.Gateway
	publisher Publisher
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(deps OrderDeps, logger zerolog.Logger) OrderService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &orderService{
		orders:    deps.Orders,
		products:  deps.Products,
		addresses: deps.Addresses,
		carts:     deps.Carts,
		promos:    deps.Promos,
		gateway:   deps.Gateway,
		publisher: publisher,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// PlaceOrder validates, prices and persists an order.
func (s *orderService) PlaceOrder(
	ctx context.Context,
	userID string,
	req *model.OrderRequest,
	paymentType model.PaymentType,
	origin string,
) (*model.PlacedOrder, error) {
	if err := validateOrderRequest(req); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("rejected order request")
		return nil, err
	}

	addressID, err := s.resolveAddress(ctx, userID, req.Address)
	if err != nil {
		return nil, err
	}

	catalog, err := s.loadCatalog(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	cart := make(model.Cart, len(req.Items))
	for _, item := range req.Items {
		cart[item.Product] += item.Quantity
	}

	breakdown, err := pricing.Quote(cart, catalog, req.PromoCode, s.promos)
	if err != nil {
		s.logger.Warn().Err(err).Str("promo_code", req.PromoCode).Msg("rejected promo code")
		return nil, err
	}

	now := time.Now().UTC()
	order := &model.Order{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      breakdown.Total,
		AddressID:   addressID,
		Status:      model.StatusOrderPlaced,
		PaymentType: paymentType,
		IsPaid:      false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if breakdown.PromoCode != "" {
		code := breakdown.PromoCode
		order.PromoCode = &code
	}
	order.Items = make([]model.OrderItem, len(req.Items))
	for i, item := range req.Items {
		order.Items[i] = model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			Position:  i,
			ProductID: item.Product,
			Quantity:  item.Quantity,
		}
	}

	if err := s.persist(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID).
		Str("payment_type", string(paymentType)).
		Str("amount", order.Amount.StringFixed(2)).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	placed := &model.PlacedOrder{Order: order}

	switch paymentType {
	case model.PaymentCOD:
		s.clearCart(ctx, userID)
		s.publish(model.OrderEventPlaced, order)

	case model.PaymentOnline:
		// Sellers only see online orders once paid, so the feed hears about
		// them through the confirming status change.
		lines := make([]pricing.Line, len(req.Items))
		for i, item := range req.Items {
			p := catalog[item.Product]
			lines[i] = pricing.Line{Name: p.Name, UnitPrice: p.OfferPrice, Quantity: item.Quantity}
		}

		checkout, err := s.gateway.CreateCheckout(ctx, payment.CheckoutRequest{
			OrderID: order.ID.String(),
			UserID:  userID,
			Items:   pricing.LineItems(lines, breakdown),
			Origin:  origin,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to open checkout")
			if errors.Is(err, model.ErrExternalGateway) {
				return nil, err
			}
			return nil, model.ErrExternalGateway.Wrap("Failed to create payment session", err)
		}

		if err := s.orders.CreatePaymentSession(ctx, &model.PaymentSession{
			SessionID: checkout.SessionID,
			OrderID:   order.ID,
			CreatedAt: now,
		}); err != nil {
			s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to index payment session")
		}

		placed.URL = checkout.URL
	}

	return placed, nil
}

// HandleEvent applies a verified payment event.
func (s *orderService) HandleEvent(ctx context.Context, ev payment.Event) error {
	logger := s.logger.With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()

	if !ev.Handled() {
		logger.Debug().Msg("ignoring unhandled payment event")
		return nil
	}

	if ev.SessionID != "" && ev.PaymentIntentID != "" {
		if err := s.orders.AttachPaymentIntent(ctx, ev.SessionID, ev.PaymentIntentID); err != nil {
			logger.Warn().Err(err).Msg("failed to index payment intent")
		}
	}

	orderID, err := s.resolveEventOrder(ctx, ev)
	if err != nil {
		return err
	}
	if orderID == uuid.Nil {
		logger.Warn().Str("payment_intent_id", ev.PaymentIntentID).Msg("payment event does not resolve to an order")
		return nil
	}
	logger = logger.With().Str("order_id", orderID.String()).Logger()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		logger.Warn().Msg("payment event for unknown order")
		return nil
	}

	tr, err := lifecycle.Next(lifecycle.Of(order), ev.Kind)
	if err != nil {
		logger.Warn().Err(err).Msg("payment event rejected by order state")
		return nil
	}
	if !tr.Change {
		logger.Debug().Str("status", string(order.Status)).Msg("payment event already applied")
		return nil
	}

	updated, err := s.orders.UpdateStatus(ctx, repository.StatusUpdate{
		OrderID:    order.ID,
		FromStatus: tr.From.Status,
		ToStatus:   tr.To.Status,
		IsPaid:     tr.To.IsPaid,
	})
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if updated == nil {
		logger.Debug().Msg("order status moved concurrently")
		return nil
	}

	if ev.Kind == lifecycle.EventPaymentCompleted {
		s.clearCart(ctx, updated.UserID)
	}

	logger.Info().
		Str("from", string(tr.From.Status)).
		Str("to", string(tr.To.Status)).
		Msg("order status changed")

	s.publish(model.OrderEventStatusChanged, updated)
	return nil
}

// ListUserOrders returns a user's visible orders.
func (s *orderService) ListUserOrders(ctx context.Context, userID string) ([]model.OrderView, error) {
	return s.listViews(ctx, model.OrderFilter{UserID: userID})
}

// ListAllOrders returns every visible order.
func (s *orderService) ListAllOrders(ctx context.Context) ([]model.OrderView, error) {
	return s.listViews(ctx, model.OrderFilter{})
}

// ExpireStale expires abandoned online checkouts.
func (s *orderService) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.orders.ListStalePending(ctx, cutoff, staleBatchSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list stale orders")
		return 0, fmt.Errorf("failed to list stale orders: %w", err)
	}

	expired := 0
	for i := range stale {
		if err := ctx.Err(); err != nil {
			return expired, err
		}

		order := &stale[i]
		tr, err := lifecycle.Next(lifecycle.Of(order), lifecycle.EventSessionExpired)
		if err != nil || !tr.Change {
			continue
		}

		updated, err := s.orders.UpdateStatus(ctx, repository.StatusUpdate{
			OrderID:    order.ID,
			FromStatus: tr.From.Status,
			ToStatus:   tr.To.Status,
			IsPaid:     tr.To.IsPaid,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to expire order")
			continue
		}
		if updated == nil {
			continue
		}

		expired++
		s.publish(model.OrderEventStatusChanged, updated)
	}

	if expired > 0 {
		s.logger.Info().Int("expired", expired).Time("cutoff", cutoff).Msg("expired stale orders")
	}
	return expired, nil
}

func (s *orderService) resolveAddress(ctx context.Context, userID, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.ErrInvalidOrder.WithMessage("Invalid address")
	}

	address, err := s.addresses.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("address_id", raw).Msg("failed to load address")
		return uuid.Nil, fmt.Errorf("failed to load address: %w", err)
	}
	if address == nil || address.UserID != userID {
		return uuid.Nil, model.ErrInvalidOrder.WithMessage("Invalid address")
	}

	return id, nil
}

// loadCatalog reads current prices for every ordered product.
func (s *orderService) loadCatalog(ctx context.Context, items []model.OrderItemRequest) (model.Catalog, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if !seen[item.Product] {
			seen[item.Product] = true
			ids = append(ids, item.Product)
		}
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load products")
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	catalog := model.NewCatalog(products)
	for _, id := range ids {
		if _, ok := catalog[id]; !ok {
			s.logger.Warn().Str("product_id", id).Msg("order references unknown product")
			return nil, model.ErrInvalidOrder.WithMessage("Product not found: " + id)
		}
	}

	return catalog, nil
}

// persist writes the order and its items in one transaction.
func (s *orderService) persist(ctx context.Context, order *model.Order) (err error) {
	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orders.CreateOrder(ctx, tx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orders.CreateOrderItems(ctx, tx, order.Items); err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// resolveEventOrder finds the order an event refers to. Payment failures go
// through the payment-intent index first, then the intent metadata, then the
// provider's session lookup.
func (s *orderService) resolveEventOrder(ctx context.Context, ev payment.Event) (uuid.UUID, error) {
	if ev.Kind == lifecycle.EventPaymentFailed && ev.PaymentIntentID != "" {
		id, err := s.orders.OrderIDByPaymentIntent(ctx, ev.PaymentIntentID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to resolve payment intent: %w", err)
		}
		if id != uuid.Nil {
			return id, nil
		}
	}

	raw := ev.OrderID
	if raw == "" && ev.Kind == lifecycle.EventPaymentFailed && ev.PaymentIntentID != "" {
		found, err := s.gateway.OrderIDForPaymentIntent(ctx, ev.PaymentIntentID)
		if err != nil {
			return uuid.Nil, err
		}
		raw = found
	}
	if raw == "" {
		return uuid.Nil, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		s.logger.Warn().Str("order_id", raw).Msg("payment event carries malformed order id")
		return uuid.Nil, nil
	}
	return id, nil
}

func (s *orderService) listViews(ctx context.Context, filter model.OrderFilter) ([]model.OrderView, error) {
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", filter.UserID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	productIDs := make([]string, 0)
	addressIDs := make([]uuid.UUID, 0, len(orders))
	seenProduct := make(map[string]bool)
	seenAddress := make(map[uuid.UUID]bool)
	for _, o := range orders {
		if !seenAddress[o.AddressID] {
			seenAddress[o.AddressID] = true
			addressIDs = append(addressIDs, o.AddressID)
		}
		for _, item := range o.Items {
			if !seenProduct[item.ProductID] {
				seenProduct[item.ProductID] = true
				productIDs = append(productIDs, item.ProductID)
			}
		}
	}

	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load order products: %w", err)
	}
	addresses, err := s.addresses.GetByIDs(ctx, addressIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load order addresses: %w", err)
	}

	catalog := model.NewCatalog(products)
	addressByID := make(map[uuid.UUID]*model.Address, len(addresses))
	for i := range addresses {
		addressByID[addresses[i].ID] = &addresses[i]
	}

	views := make([]model.OrderView, len(orders))
	for i, o := range orders {
		items := make([]model.OrderItemView, len(o.Items))
		for j, item := range o.Items {
			items[j] = model.OrderItemView{Quantity: item.Quantity}
			if p, ok := catalog[item.ProductID]; ok {
				items[j].Product = &p
			}
		}
		views[i] = model.OrderView{
			ID:          o.ID,
			UserID:      o.UserID,
			Items:       items,
			Amount:      o.Amount,
			Address:     addressByID[o.AddressID],
			Status:      o.Status,
			PaymentType: o.PaymentType,
			IsPaid:      o.IsPaid,
			PromoCode:   o.PromoCode,
			CreatedAt:   o.CreatedAt,
			UpdatedAt:   o.UpdatedAt,
		}
	}

	return views, nil
}

// clearCart empties the persisted cart. Failures are logged only: the order
// already exists and the client clears its own copy.
func (s *orderService) clearCart(ctx context.Context, userID string) {
	if err := s.carts.Replace(ctx, userID, model.Cart{}); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to clear cart")
	}
}

func (s *orderService) publish(eventType string, order *model.Order) {
	s.publisher.Publish(model.OrderEvent{Type: eventType, Order: order, At: time.Now().UTC()})
}

// validateOrderRequest validates the order request.
func validateOrderRequest(req *model.OrderRequest) error {
	if req == nil || req.Address == "" || len(req.Items) == 0 {
		return model.ErrInvalidOrder
	}

	for i, item := range req.Items {
		if item.Product == "" {
			return model.ErrInvalidOrder.WithMessage(fmt.Sprintf("item %d: product is required", i))
		}
		if item.Quantity <= 0 {
			return model.ErrInvalidOrder.WithMessage(fmt.Sprintf("item %d: quantity must be greater than 0", i))
		}
	}

	return nil
}
