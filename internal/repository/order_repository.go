package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greencart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, user_id, amount, address_id, status, payment_type, is_paid, promo_code, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Amount,
		&o.AddressID,
		&o.Status,
		&o.PaymentType,
		&o.IsPaid,
		&o.PromoCode,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, o *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.Exec(ctx, query,
		o.ID, o.UserID, o.Amount, o.AddressID, o.Status, o.PaymentType, o.IsPaid, o.PromoCode, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", o.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", o.ID.String()).
		Str("payment_type", string(o.PaymentType)).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, position, product_id, quantity)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.Position, item.ProductID, item.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// List retrieves visible orders with their items, newest first.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE (payment_type = 'COD' OR is_paid = TRUE)
		  AND ($1 = '' OR user_id = $1)
		ORDER BY created_at DESC, id
	`

	orders, err := r.queryOrders(ctx, query, filter.UserID)
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus applies a compare-and-set on the order status.
func (r *orderRepository) UpdateStatus(ctx context.Context, u StatusUpdate) (*model.Order, error) {
	query := `
		UPDATE orders
		SET status = $3, is_paid = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + orderColumns

	o, err := scanOrder(r.pool.QueryRow(ctx, query, u.OrderID, u.FromStatus, u.ToStatus, u.IsPaid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().
				Str("order_id", u.OrderID.String()).
				Str("from", string(u.FromStatus)).
				Msg("order status already moved")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", u.OrderID.String()).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	orders := []model.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	r.logger.Info().
		Str("order_id", u.OrderID.String()).
		Str("from", string(u.FromStatus)).
		Str("to", string(u.ToStatus)).
		Msg("order status updated")

	return &orders[0], nil
}

// ListStalePending returns unpaid online orders created before cutoff.
func (r *orderRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE payment_type = 'Online' AND is_paid = FALSE AND status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`
	return r.queryOrders(ctx, query, model.StatusOrderPlaced, cutoff, limit)
}

// CreatePaymentSession records the provider session opened for an order.
func (r *orderRepository) CreatePaymentSession(ctx context.Context, s *model.PaymentSession) error {
	query := `
		INSERT INTO payment_sessions (session_id, order_id, payment_intent_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.pool.Exec(ctx, query, s.SessionID, s.OrderID, s.PaymentIntentID, s.CreatedAt); err != nil {
		r.logger.Error().Err(err).Str("order_id", s.OrderID.String()).Msg("failed to record payment session")
		return fmt.Errorf("failed to record payment session: %w", err)
	}
	return nil
}

// AttachPaymentIntent links a payment intent to the session's order. A
// repeated call with the same intent is a no-op.
func (r *orderRepository) AttachPaymentIntent(ctx context.Context, sessionID, paymentIntentID string) error {
	query := `
		UPDATE payment_sessions
		SET payment_intent_id = $2
		WHERE session_id = $1 AND (payment_intent_id IS NULL OR payment_intent_id = $2)
	`
	if _, err := r.pool.Exec(ctx, query, sessionID, paymentIntentID); err != nil {
		r.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to attach payment intent")
		return fmt.Errorf("failed to attach payment intent: %w", err)
	}
	return nil
}

// OrderIDByPaymentIntent resolves the order a payment intent belongs to.
func (r *orderRepository) OrderIDByPaymentIntent(ctx context.Context, paymentIntentID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT order_id FROM payment_sessions WHERE payment_intent_id = $1`, paymentIntentID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("failed to resolve payment intent: %w", err)
	}
	return id, nil
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// attachItems loads the items of every order in one query.
func (r *orderRepository) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, position, product_id, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Position, &item.ProductID, &item.Quantity); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}
	return nil
}
