package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"greencart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// cartRepository stores each cart as one JSONB row keyed by user.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

func (r *cartRepository) Get(ctx context.Context, userID string) (model.Cart, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT items FROM carts WHERE user_id = $1`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Cart{}, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	cart := model.Cart{}
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return cart, nil
}

func (r *cartRepository) Replace(ctx context.Context, userID string, cart model.Cart) error {
	if cart == nil {
		cart = model.Cart{}
	}
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	query := `
		INSERT INTO carts (user_id, items, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, userID, raw); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to replace cart")
		return fmt.Errorf("failed to replace cart: %w", err)
	}

	r.logger.Debug().Str("user_id", userID).Int("entries", len(cart)).Msg("cart replaced")
	return nil
}
